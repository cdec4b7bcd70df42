package kanban

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "jobtracker/tracker-service/kanban"

// boardMetrics holds the instruments recorded by Service. Instruments come
// from the global MeterProvider, so they are no-ops until
// observability.InitMetrics installs a real one.
type boardMetrics struct {
	moves     metric.Int64Counter
	shifted   metric.Int64Histogram
	compacted metric.Int64Counter
}

func newBoardMetrics() *boardMetrics {
	meter := otel.Meter(meterName)
	fallback := noop.NewMeterProvider().Meter(meterName)

	moves, err := meter.Int64Counter("kanban.moves",
		metric.WithDescription("Cards moved on the board"))
	if err != nil {
		slog.Warn("kanban.moves instrument unavailable", "err", err)
		moves, _ = fallback.Int64Counter("kanban.moves")
	}
	shifted, err := meter.Int64Histogram("kanban.move.shifted",
		metric.WithDescription("Cards displaced by a single move"))
	if err != nil {
		slog.Warn("kanban.move.shifted instrument unavailable", "err", err)
		shifted, _ = fallback.Int64Histogram("kanban.move.shifted")
	}
	compacted, err := meter.Int64Counter("kanban.compaction.rewritten",
		metric.WithDescription("Cards renumbered by column compaction"))
	if err != nil {
		slog.Warn("kanban.compaction.rewritten instrument unavailable", "err", err)
		compacted, _ = fallback.Int64Counter("kanban.compaction.rewritten")
	}

	return &boardMetrics{moves: moves, shifted: shifted, compacted: compacted}
}

func (m *boardMetrics) recordMove(ctx context.Context, from, to Status, shifted int) {
	m.moves.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", string(from)),
		attribute.String("to", string(to)),
	))
	m.shifted.Record(ctx, int64(shifted))
}

func (m *boardMetrics) recordCompaction(ctx context.Context, rewritten int) {
	if rewritten > 0 {
		m.compacted.Add(ctx, int64(rewritten))
	}
}
