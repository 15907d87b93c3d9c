package app

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// updateHandler consumes a decoded webhook update
type updateHandler func(update tgbotapi.Update)

// newRouter serves health checks, metrics and the Telegram webhook
func newRouter(mode string, handle updateHandler, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "Bump bot is running (mode: %s)", mode)
	})

	r.Handle("/metrics", promhttp.Handler())

	// Webhook endpoint (only used in webhook mode)
	r.Post("/telegram-webhook", func(w http.ResponseWriter, r *http.Request) {
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			logger.Warn("Error decoding webhook update", zap.Error(err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		// Process update in background to respond quickly to Telegram
		go handle(update)

		w.WriteHeader(http.StatusOK)
	})

	return r
}
