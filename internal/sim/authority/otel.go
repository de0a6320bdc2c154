package authority

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "hexmove.ai/internal/sim/authority"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type instruments struct {
	accepted metric.Int64Counter
	rejected metric.Int64Counter
	steps    metric.Int64Histogram
	latency  metric.Float64Histogram
	sessions metric.Int64UpDownCounter
}

func newInstruments() (instruments, error) {
	m := meter()
	var (
		in  instruments
		err error
	)
	if in.accepted, err = m.Int64Counter("authority.paths.accepted",
		metric.WithDescription("Submitted paths accepted and applied")); err != nil {
		return in, err
	}
	if in.rejected, err = m.Int64Counter("authority.paths.rejected",
		metric.WithDescription("Submitted paths rejected, by code")); err != nil {
		return in, err
	}
	if in.steps, err = m.Int64Histogram("authority.path.steps",
		metric.WithDescription("Steps applied per accepted path")); err != nil {
		return in, err
	}
	if in.latency, err = m.Float64Histogram("authority.ruling.duration",
		metric.WithDescription("Time to replay and rule on one path"),
		metric.WithUnit("ms")); err != nil {
		return in, err
	}
	if in.sessions, err = m.Int64UpDownCounter("authority.sessions",
		metric.WithDescription("Connected player sessions")); err != nil {
		return in, err
	}
	return in, nil
}
