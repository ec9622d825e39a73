// Package api serves published snapshot artifacts read-only over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"

	"github.com/tyler180/boxscore-stats/internal/config"
	"github.com/tyler180/boxscore-stats/internal/publish"
	"github.com/tyler180/boxscore-stats/internal/store"
)

// ObjectReader is the read side of an object store.
type ObjectReader interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

type Handler struct {
	objects ObjectReader
	keys    publish.Keys
	cache   *Cache
	ttl     time.Duration
	log     *slog.Logger
}

// NewRouter builds the chi router with middleware and all routes.
func NewRouter(objects ObjectReader, cfg *config.Config, log *slog.Logger) *chi.Mux {
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{
		objects: objects,
		keys:    publish.Keys{Prefix: cfg.Prefix},
		cache:   NewCache(cfg.CacheTTL),
		ttl:     cfg.CacheTTL,
		log:     log,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))
	r.Use(timing)
	r.Use(middleware.Compress(5))

	c := corslib.New(corslib.Options{
		AllowedOrigins: cfg.CORSAllowOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Accept-Encoding", "If-None-Match", "Cache-Control"},
		ExposedHeaders: []string{"ETag", "X-Cache", "X-Process-Time"},
	})
	r.Use(c.Handler)

	if cfg.RateLimitEnabled && cfg.RateLimitReqs > 0 && cfg.RateLimitWindow > 0 {
		r.Use(rateLimit(cfg.RateLimitReqs, cfg.RateLimitWindow))
	}

	r.Get("/health", h.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/stats/{season}", func(r chi.Router) {
			r.Get("/standings", h.standings)
			r.Get("/teams/{team}", h.team)
			r.Get("/players", h.players)
			r.Get("/players/{slug}/log", h.playerLog)
			r.Get("/leaders", h.leaders)
		})
		r.Get("/career/{slug}", h.career)
	})
	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeObject(w, http.StatusOK, map[string]any{"status": "ok", "cached": h.cache.Len()})
}

func (h *Handler) standings(w http.ResponseWriter, r *http.Request) {
	if season, ok := seasonParam(w, r); ok {
		h.serve(w, r, h.keys.Standings(season))
	}
}

func (h *Handler) team(w http.ResponseWriter, r *http.Request) {
	season, ok := seasonParam(w, r)
	if !ok {
		return
	}
	team := unescape(chi.URLParam(r, "team"))
	if team == "" {
		writeError(w, http.StatusBadRequest, "BAD_TEAM", "team is required")
		return
	}
	h.serve(w, r, h.keys.Team(season, team))
}

func (h *Handler) players(w http.ResponseWriter, r *http.Request) {
	if season, ok := seasonParam(w, r); ok {
		h.serve(w, r, h.keys.PlayerIndex(season))
	}
}

func (h *Handler) leaders(w http.ResponseWriter, r *http.Request) {
	if season, ok := seasonParam(w, r); ok {
		h.serve(w, r, h.keys.Leaders(season))
	}
}

func (h *Handler) playerLog(w http.ResponseWriter, r *http.Request) {
	season, ok := seasonParam(w, r)
	if !ok {
		return
	}
	if slug, ok := slugParam(w, r); ok {
		h.serve(w, r, h.keys.PlayerLog(season, slug))
	}
}

func (h *Handler) career(w http.ResponseWriter, r *http.Request) {
	if slug, ok := slugParam(w, r); ok {
		h.serve(w, r, h.keys.Career(slug))
	}
}

// serve answers with the stored artifact at key, honoring If-None-Match.
func (h *Handler) serve(w http.ResponseWriter, r *http.Request, key string) {
	data, etag, hit := h.cache.Get(key)
	if !hit {
		var err error
		data, err = h.objects.Get(r.Context(), key)
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "no published artifact for this path")
			return
		case err != nil:
			h.log.Error("read artifact", "key", key, "err", err)
			writeError(w, http.StatusBadGateway, "STORE_ERROR", "artifact store unavailable")
			return
		}
		etag = h.cache.Set(key, data)
	}
	if etagMatch(r.Header.Get("If-None-Match"), etag) {
		writeNotModified(w, etag)
		return
	}
	writeJSON(w, data, etag, h.ttl, hit)
}

func seasonParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	s := chi.URLParam(r, "season")
	if !validSeason(s) {
		writeError(w, http.StatusBadRequest, "BAD_SEASON", "season must be letters, digits, '-' or '_'")
		return "", false
	}
	return s, true
}

func validSeason(s string) bool {
	if s == "" || len(s) > 16 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

func slugParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	slug, ok := publish.CanonicalSlug(chi.URLParam(r, "slug"))
	if !ok {
		writeError(w, http.StatusBadRequest, "BAD_SLUG", "player slug must look like <player>__<team>")
		return "", false
	}
	return slug, true
}

// unescape decodes a path parameter that chi matched on the raw path.
func unescape(s string) string {
	if u, err := url.PathUnescape(s); err == nil {
		return u
	}
	return s
}
