package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics are the engine's business counters. They are recorded after commit,
// so a rolled-back operation never counts. A nil *Metrics records nothing.
type Metrics struct {
	setsLogged          metric.Int64Counter
	personalRecords     metric.Int64Counter
	achievementsAwarded metric.Int64Counter
	challengesCompleted metric.Int64Counter
	requestDuration     metric.Float64Histogram
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error
	if m.setsLogged, err = meter.Int64Counter("ironlog.sets.logged",
		metric.WithDescription("Working and warmup sets logged")); err != nil {
		return nil, err
	}
	if m.personalRecords, err = meter.Int64Counter("ironlog.personal_records.set",
		metric.WithDescription("Personal records created or improved")); err != nil {
		return nil, err
	}
	if m.achievementsAwarded, err = meter.Int64Counter("ironlog.achievements.awarded",
		metric.WithDescription("Achievements earned by users")); err != nil {
		return nil, err
	}
	if m.challengesCompleted, err = meter.Int64Counter("ironlog.challenges.completed",
		metric.WithDescription("Challenge participants reaching their target")); err != nil {
		return nil, err
	}
	if m.requestDuration, err = meter.Float64Histogram("ironlog.http.server.duration",
		metric.WithDescription("API request latency by route and status"),
		metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) SetLogged(ctx context.Context, warmup bool) {
	if m == nil {
		return
	}
	m.setsLogged.Add(ctx, 1, metric.WithAttributes(attribute.Bool("warmup", warmup)))
}

func (m *Metrics) PersonalRecordsSet(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.personalRecords.Add(ctx, int64(n))
}

func (m *Metrics) AchievementsAwarded(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.achievementsAwarded.Add(ctx, int64(n))
}

func (m *Metrics) ChallengesCompleted(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.challengesCompleted.Add(ctx, int64(n))
}

// RequestServed records one API call. route is the matched route pattern,
// never the raw path, to keep session and set ids out of the label set.
func (m *Metrics) RequestServed(ctx context.Context, method, route string, status int, replayed bool, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.Record(ctx, float64(d)/float64(time.Millisecond), metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
		attribute.Bool("ironlog.idempotent_replay", replayed),
	))
}
