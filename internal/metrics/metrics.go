// Package metrics provides Prometheus instrumentation for the moderation bot.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MessagesClassified counts classified messages by result kind:
// "clean", "prohibited_word" or "link".
var MessagesClassified = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "antispam_messages_classified_total",
	Help: "Number of messages classified, by result kind",
}, []string{"kind"})

var MessagesSuppressed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "antispam_messages_suppressed_total",
	Help: "Number of messages removed from the chat",
})

var MessagesDenied = promauto.NewCounter(prometheus.CounterOpts{
	Name: "antispam_messages_denied_total",
	Help: "Number of messages rejected before classification",
})

// Notifications counts outbound sends by purpose and result ("ok" or "error").
var Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "antispam_notifications_total",
	Help: "Number of outbound notifications attempted",
}, []string{"purpose", "result"})

// AuthAttempts counts 2FA operations by step ("setup", "verify", "authorize")
// and result.
var AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "antispam_auth_attempts_total",
	Help: "Number of two-factor authentication attempts",
}, []string{"step", "result"})

// Actions counts operator interactions by kind ("ban", "report") and result.
var Actions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "antispam_actions_total",
	Help: "Number of ban and report actions handled",
}, []string{"kind", "result"})

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Serving metrics", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
