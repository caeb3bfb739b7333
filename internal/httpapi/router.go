package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"dominoleague/internal/auth"
	"dominoleague/internal/service"
	"dominoleague/internal/ws"
)

type RouterOpts struct {
	Logger *slog.Logger
	IsProd bool

	DBPing    func(context.Context) error
	CachePing func(context.Context) error

	Auth     *service.AuthService
	Games    *service.GameService
	Rankings *service.RankingService
	Leagues  *service.LeagueService
	Players  *service.PlayerService

	Hub *ws.Hub

	CookieCodec  auth.CookieCodec
	CookieSecure bool
	SessionTTL   time.Duration
	AvatarDir    string
}

func NewRouter(opts RouterOpts) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.AvatarDir == "" {
		opts.AvatarDir = "data/avatars"
	}

	api := &api{
		logger:       logger,
		isProd:       opts.IsProd,
		dbPing:       opts.DBPing,
		cachePing:    opts.CachePing,
		authSvc:      opts.Auth,
		gameSvc:      opts.Games,
		rankingSvc:   opts.Rankings,
		leagueSvc:    opts.Leagues,
		playerSvc:    opts.Players,
		hub:          opts.Hub,
		avatarDir:    opts.AvatarDir,
		cookieCodec:  opts.CookieCodec,
		cookieSecure: opts.CookieSecure,
		sessionTTL:   opts.SessionTTL,
		loginLimiter: newLoginLimiter(),
	}

	publicMux := http.NewServeMux()
	apiMux := http.NewServeMux()

	publicMux.HandleFunc("GET /healthz", api.handleHealthz)

	if api.authSvc == nil {
		apiMux.HandleFunc("/v1/", handleNotImplemented)
		return wrap(publicMux, apiMux, logger, opts.IsProd)
	}

	apiMux.HandleFunc("POST /v1/auth/register", api.handleAuthRegister)
	apiMux.HandleFunc("POST /v1/auth/login", api.handleAuthLogin)
	apiMux.HandleFunc("POST /v1/auth/google", api.handleAuthLoginGoogle)
	apiMux.HandleFunc("POST /v1/auth/logout", api.requireAuth(api.handleAuthLogout))

	apiMux.HandleFunc("GET /v1/players/me", api.requireAuth(api.handlePlayersMe))
	apiMux.HandleFunc("PATCH /v1/players/me", api.requireAuth(api.handlePlayersMeUpdate))
	apiMux.HandleFunc("PUT /v1/players/me/handle", api.requireAuth(api.handlePlayersMeHandle))
	apiMux.HandleFunc("POST /v1/players/me/avatar", api.requireAuth(api.handlePlayersMeAvatar))
	apiMux.HandleFunc("GET /v1/players/{id}", api.requireAuth(api.handlePlayersGet))

	apiMux.HandleFunc("POST /v1/games", api.requireAuth(api.handleGamesCreate))
	apiMux.HandleFunc("GET /v1/games", api.requireAuth(api.handleGamesList))
	apiMux.HandleFunc("GET /v1/games/invitations", api.requireAuth(api.handleGamesInvitations))
	apiMux.HandleFunc("GET /v1/games/active", api.requireAuth(api.handleGamesActive))
	apiMux.HandleFunc("GET /v1/games/{id}", api.requireAuth(api.handleGamesGet))
	apiMux.HandleFunc("POST /v1/games/{id}/accept", api.requireAuth(api.handleGamesAccept))
	apiMux.HandleFunc("POST /v1/games/{id}/reject", api.requireAuth(api.handleGamesReject))
	apiMux.HandleFunc("POST /v1/games/{id}/start", api.requireAuth(api.handleGamesStart))
	apiMux.HandleFunc("POST /v1/games/{id}/score", api.requireAuth(api.handleGamesScore))
	apiMux.HandleFunc("POST /v1/games/{id}/confirm", api.requireAuth(api.handleGamesConfirm))

	apiMux.HandleFunc("GET /v1/rankings/global", api.requireAuth(api.handleRankingsGlobal))
	apiMux.HandleFunc("GET /v1/rankings/window", api.requireAuth(api.handleRankingsWindow))
	if api.hub != nil {
		apiMux.HandleFunc("GET /v1/rankings/live", api.requireAuth(api.handleRankingsLive))
	}

	apiMux.HandleFunc("POST /v1/leagues", api.requireAuth(api.handleLeaguesCreate))
	apiMux.HandleFunc("GET /v1/leagues", api.requireAuth(api.handleLeaguesList))
	apiMux.HandleFunc("GET /v1/leagues/{id}", api.requireAuth(api.handleLeaguesGet))
	apiMux.HandleFunc("DELETE /v1/leagues/{id}", api.requireAuth(api.handleLeaguesDelete))
	apiMux.HandleFunc("POST /v1/leagues/{id}/members", api.requireAuth(api.handleLeaguesAddMember))
	apiMux.HandleFunc("DELETE /v1/leagues/{id}/members/{playerID}", api.requireAuth(api.handleLeaguesDeactivateMember))
	apiMux.HandleFunc("GET /v1/leagues/{id}/standings", api.requireAuth(api.handleLeaguesStandings))

	return wrap(publicMux, apiMux, logger, opts.IsProd)
}

func wrap(publicMux, apiMux *http.ServeMux, logger *slog.Logger, isProd bool) http.Handler {
	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, pattern := apiMux.Handler(r)
		if pattern == "" {
			handleV1NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})

	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v1/") || r.URL.Path == "/v1" {
			apiHandler.ServeHTTP(w, r)
			return
		}
		publicMux.ServeHTTP(w, r)
	})

	var h http.Handler = root
	h = RequestLogger(logger)(h)
	h = RequestID()(h)
	h = Recoverer(logger, isProd)(h)
	return h
}

func handleNotImplemented(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotImplemented, "not_implemented", "not implemented")
}

func handleV1NotFound(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotFound, "not_found", "not found")
}

type api struct {
	logger *slog.Logger
	isProd bool

	dbPing    func(context.Context) error
	cachePing func(context.Context) error

	authSvc    *service.AuthService
	gameSvc    *service.GameService
	rankingSvc *service.RankingService
	leagueSvc  *service.LeagueService
	playerSvc  *service.PlayerService

	hub *ws.Hub

	avatarDir    string
	cookieCodec  auth.CookieCodec
	cookieSecure bool
	sessionTTL   time.Duration

	loginLimiter *loginLimiter
}

func (a *api) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()

	if a.dbPing != nil {
		if err := a.dbPing(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db down"))
			return
		}
	}
	if a.cachePing != nil {
		if err := a.cachePing(ctx); err != nil {
			// Rankings degrade without the cache; still report it.
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok (cache down)"))
			return
		}
	}

	_, _ = w.Write([]byte("ok"))
}
