// Package metrics описывает Prometheus-метрики ретранслятора.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "notify_relay"

// Метки приёмников и результатов.
const (
	SinkChat = "chat"
	SinkLog  = "log"

	ResultOK         = "ok"
	ResultError      = "error"
	ResultSuppressed = "suppressed"
)

// Metrics — набор счётчиков ретранслятора.
type Metrics struct {
	EventsTotal       *prometheus.CounterVec
	SendsTotal        *prometheus.CounterVec
	TokenRefreshTotal *prometheus.CounterVec
	OutstandingGifts  prometheus.Gauge
}

// NewRegistry создаёт реестр с коллекторами Go runtime и процесса.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// New регистрирует метрики в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Events received, by kind.",
		}, []string{"kind"}),
		SendsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sends_total",
			Help:      "Outbound chat replies and log entries, by sink and result.",
		}, []string{"sink", "result"}),
		TokenRefreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refresh_total",
			Help:      "Credential refresh attempts, by result.",
		}, []string{"result"}),
		OutstandingGifts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outstanding_gift_subs",
			Help:      "Gifted subs announced by community gifts and not yet attributed.",
		}),
	}
	reg.MustRegister(m.EventsTotal, m.SendsTotal, m.TokenRefreshTotal, m.OutstandingGifts)
	return m
}

// ObserveRefresh подходит как колбэк для tokens.NewRefresher.
func (m *Metrics) ObserveRefresh(err error) {
	if err != nil {
		m.TokenRefreshTotal.WithLabelValues(ResultError).Inc()
		return
	}
	m.TokenRefreshTotal.WithLabelValues(ResultOK).Inc()
}

// Handler возвращает http.Handler с метриками реестра.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Serve обслуживает /metrics на addr до отмены контекста.
func Serve(ctx context.Context, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(reg))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("metrics: слушаю", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("metrics: shutdown", slog.Any("err", err))
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
