package ws

import (
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"dominoleague/internal/domain"
)

func testClient(h *Hub) *Client {
	return &Client{id: "test", hub: h, send: make(chan []byte, 4), logger: slog.Default()}
}

func recvPayload(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case p := <-c.send:
		return p
	case <-time.After(time.Second):
		t.Fatalf("no payload delivered")
		return nil
	}
}

func TestHubFansOutRankings(t *testing.T) {
	h := NewHub(slog.Default())
	go h.Run()
	defer h.Stop()

	c1 := testClient(h)
	c2 := testClient(h)
	h.add(c1)
	h.add(c2)

	h.BroadcastRankings([]domain.RankingEntry{
		{Rank: 1, PlayerID: "p1", GamesWon: 3},
	})

	for _, c := range []*Client{c1, c2} {
		var msg message
		if err := json.Unmarshal(recvPayload(t, c), &msg); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if msg.Type != messageTypeRankings {
			t.Fatalf("unexpected message type: %s", msg.Type)
		}
		if len(msg.Entries) != 1 || msg.Entries[0].PlayerID != "p1" {
			t.Fatalf("unexpected entries: %#v", msg.Entries)
		}
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	h := NewHub(slog.Default())
	go h.Run()
	defer h.Stop()

	c := testClient(h)
	h.add(c)
	h.remove(c)

	select {
	case _, ok := <-c.send:
		if ok {
			t.Fatalf("expected send channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatalf("send channel was not closed")
	}
}

func TestHubStopUnblocksLateClients(t *testing.T) {
	h := NewHub(slog.Default())
	stopped := make(chan struct{})
	go func() {
		h.Run()
		close(stopped)
	}()
	h.Stop()
	<-stopped

	done := make(chan bool, 1)
	go func() {
		done <- h.add(testClient(h))
	}()

	select {
	case registered := <-done:
		if registered {
			t.Fatal("add should fail after Stop")
		}
	case <-time.After(time.Second):
		t.Fatal("add blocked on a stopped hub")
	}

	// remove must not block either, even for a never-registered client.
	h.remove(testClient(h))
}

func TestHubSkipsSlowClients(t *testing.T) {
	h := NewHub(slog.Default())
	go h.Run()
	defer h.Stop()

	slow := &Client{id: "slow", hub: h, send: make(chan []byte), logger: slog.Default()}
	fast := testClient(h)
	h.add(slow)
	h.add(fast)

	h.BroadcastRankings([]domain.RankingEntry{{Rank: 1, PlayerID: "p1"}})
	h.BroadcastRankings([]domain.RankingEntry{{Rank: 1, PlayerID: "p2"}})

	// The fast client gets both updates even though the slow one never reads.
	recvPayload(t, fast)
	recvPayload(t, fast)
}
