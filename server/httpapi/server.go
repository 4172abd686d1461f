package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tanpawarit/ai-sales-assistant/agent/agents/interaction"
	"github.com/tanpawarit/ai-sales-assistant/agent/agents/negotiation"
	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
	statex "github.com/tanpawarit/ai-sales-assistant/agent/state"
)

type Config struct {
	Addr           string        `default:":8080"`
	AllowedOrigins []string      `split_words:"true" default:"*"`
	ReadTimeout    time.Duration `split_words:"true" default:"15s"`
	WriteTimeout   time.Duration `split_words:"true" default:"120s"`
}

type Interactions interface {
	RunInteraction(ctx context.Context, customerName, utterance string) (interaction.Outcome, error)
}

type Negotiations interface {
	StartNegotiation(ctx context.Context, customerName string) (negotiation.TurnResult, error)
	SubmitNegotiationTurn(ctx context.Context, customerName, utterance string) (negotiation.TurnResult, error)
	CloseNegotiation(ctx context.Context, customerName, outcome string) (negotiation.CloseResult, error)
	Session(ctx context.Context, customerName string) (*statex.NegotiationSession, error)
}

type Catalog interface {
	contractx.ProductCatalog
	FindLatestByName(ctx context.Context, name string) (contractx.CustomerRecord, bool, error)
	ListCustomers(ctx context.Context) ([]contractx.CustomerRecord, error)
	History(ctx context.Context, customerID int64) ([]contractx.CustomerRecord, error)
}

type Handler struct {
	interactions Interactions
	negotiations Negotiations
	catalog      Catalog
}

func NewHandler(interactions Interactions, negotiations Negotiations, catalog Catalog) *Handler {
	return &Handler{interactions: interactions, negotiations: negotiations, catalog: catalog}
}

// NewRouter mounts every route on a chi router.
func NewRouter(cfg Config, h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
	}))

	RegisterRoutes(r, h)

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})
	return r
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/interactions", h.RunInteraction)
	r.Get("/customers", h.ListCustomers)
	r.Get("/customers/{name}/history", h.CustomerHistory)
	r.Get("/products", h.ListProducts)

	r.Route("/negotiations/{name}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Post("/start", h.StartNegotiation)
		r.Post("/turns", h.SubmitTurn)
		r.Post("/close", h.CloseNegotiation)
	})
}

// NewServer returns an http.Server for the router.
func NewServer(cfg Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      h,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		logger := log.With().Str("request_id", id).Logger()
		start := time.Now()
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request handled")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, contractx.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, contractx.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, contractx.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
