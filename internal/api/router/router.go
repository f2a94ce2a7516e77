package router

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kapalua/ordersbot/internal/catalog"
	"github.com/kapalua/ordersbot/pkg/logging"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dispatcher feeds a message through the conversation pipeline on demand.
type Dispatcher interface {
	HandleIncoming(ctx context.Context, receiver, sender, messageText string) error
}

// ProductSearcher looks up catalog articles by description keywords.
type ProductSearcher interface {
	SearchProducts(ctx context.Context, keywords []string) ([]catalog.Product, error)
}

// Config holds router configuration.
type Config struct {
	Logger         *logging.Logger
	ChatDB         Pinger
	CatalogDB      Pinger
	MetricsHandler http.Handler
	Dispatcher     Dispatcher
	Products       ProductSearcher
	AdminToken     string
}

// New creates a Chi router with the service's operational endpoints:
// liveness, readiness, metrics, and a token-guarded manual dispatch used
// to replay a message through the pipeline.
func New(cfg *Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 5*time.Second)
		defer cancel()
		for name, db := range map[string]Pinger{"chat": cfg.ChatDB, "catalog": cfg.CatalogDB} {
			if db == nil {
				continue
			}
			if err := db.Ping(ctx); err != nil {
				logger.Error("readiness check failed", "db", name, "error", err)
				http.Error(w, name+" database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.Dispatcher != nil {
		r.With(requireAdminToken(cfg.AdminToken)).Post("/admin/dispatch", dispatchHandler(cfg.Dispatcher, logger))
	}
	if cfg.Products != nil {
		r.With(requireAdminToken(cfg.AdminToken)).Get("/admin/products", productSearchHandler(cfg.Products, logger))
	}

	return r
}

type dispatchRequest struct {
	Receiver string `json:"receiver"`
	Sender   string `json:"sender"`
	Text     string `json:"text"`
}

func dispatchHandler(dispatcher Dispatcher, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dispatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Receiver == "" || req.Sender == "" || req.Text == "" {
			http.Error(w, "receiver, sender and text are required", http.StatusBadRequest)
			return
		}
		if err := dispatcher.HandleIncoming(r.Context(), req.Receiver, req.Sender, req.Text); err != nil {
			logger.Error("manual dispatch failed", "error", err, "sender", req.Sender)
			http.Error(w, "dispatch failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

type productResult struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func productSearchHandler(products ProductSearcher, logger *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var keywords []string
		for _, kw := range strings.Fields(r.URL.Query().Get("q")) {
			if kw != "" {
				keywords = append(keywords, kw)
			}
		}
		if len(keywords) == 0 {
			http.Error(w, "query parameter q is required", http.StatusBadRequest)
			return
		}
		found, err := products.SearchProducts(r.Context(), keywords)
		if err != nil {
			logger.Error("product search failed", "error", err)
			http.Error(w, "search failed", http.StatusInternalServerError)
			return
		}
		results := make([]productResult, 0, len(found))
		for _, p := range found {
			results = append(results, productResult{Code: p.Code, Description: p.Description})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(results)
	}
}

func requireAdminToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" || r.Header.Get("X-Admin-Token") != token {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
