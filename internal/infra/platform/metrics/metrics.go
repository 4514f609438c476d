package metrics

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	graphite "github.com/cyberdelia/go-metrics-graphite"
	gometrics "github.com/rcrowley/go-metrics"
)

const reportInterval = time.Minute

// OutputMetricsIfRequired starts the Graphite reporter and/or periodic log
// output for registry. graphiteAddr が空なら Graphite へは送らない。
func OutputMetricsIfRequired(registry gometrics.Registry, graphiteAddr, prefix string, logMetrics bool) error {
	if graphiteAddr != "" {
		addr, err := net.ResolveTCPAddr("tcp", graphiteAddr)
		if err != nil {
			return fmt.Errorf("resolve graphite address: %w", err)
		}
		slog.Info("graphite reporter enabled", slog.String("address", graphiteAddr), slog.String("prefix", prefix))
		go graphite.Graphite(registry, reportInterval, prefix, addr)
	}
	if logMetrics {
		go gometrics.Log(registry, reportInterval, slogPrinter{})
	}
	return nil
}

// slogPrinter は go-metrics の Logger を slog に流します。
type slogPrinter struct{}

func (slogPrinter) Printf(format string, v ...interface{}) {
	slog.Info(fmt.Sprintf(format, v...), slog.String("source", "metrics"))
}

// Handler serves the registry as JSON (GET /__metrics).
func Handler(registry gometrics.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		gometrics.WriteJSONOnce(registry, w)
	}
}
