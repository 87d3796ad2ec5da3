// Package app wires the configuration into a ready-to-use analysis service.
package app

import (
	"context"
	"fmt"

	"github.com/parkops/workplan/config"
	"github.com/parkops/workplan/core/analysis"
	coremetrics "github.com/parkops/workplan/core/metrics"
	"github.com/parkops/workplan/core/project"
	"github.com/parkops/workplan/infra/logger"
	"github.com/parkops/workplan/infra/metrics"
	"github.com/parkops/workplan/infra/store"
	"github.com/parkops/workplan/internal/eventbus"
)

// Service bundles the analysis manager with the project store and event bus.
type Service struct {
	Manager *analysis.Manager
	Store   project.Store
	Bus     eventbus.EventBus

	log         logger.Logger
	influx      *metrics.InfluxSink
	promEnabled bool
	promPort    string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	var sinks []coremetrics.MetricsSink
	var influx *metrics.InfluxSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sink := metrics.NewInfluxSinkWithFallback(cfg.Metrics)
		if is, ok := sink.(*metrics.InfluxSink); ok {
			influx = is
		}
		sinks = append(sinks, sink)
	}
	var sink coremetrics.MetricsSink
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	st, err := store.NewJSONStore(cfg.Storage.Root)
	if err != nil {
		return nil, fmt.Errorf("project store: %w", err)
	}

	bus := eventbus.New()
	manager, err := analysis.NewManager(cfg.Analysis, bus, sink, logg)
	if err != nil {
		return nil, fmt.Errorf("analysis manager: %w", err)
	}

	return &Service{
		Manager:     manager,
		Store:       st,
		Bus:         bus,
		log:         logg,
		influx:      influx,
		promEnabled: cfg.Metrics.PrometheusEnabled,
		promPort:    cfg.Metrics.PrometheusPort,
	}, nil
}

// StartMetrics serves the Prometheus endpoint until the context is cancelled.
// It is a no-op when Prometheus is disabled.
func (s *Service) StartMetrics(ctx context.Context) {
	if !s.promEnabled {
		return
	}
	go func() {
		if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
			s.log.Errorf("prom server: %v", err)
		}
	}()
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.Bus.Close()
	if s.influx != nil {
		s.influx.Close()
	}
	return nil
}
