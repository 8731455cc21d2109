package cart

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/xenking/mateicos-storefront/internal/domain/cart"

type telemetry struct {
	tracer          trace.Tracer
	mutations       metric.Int64Counter
	persistFailures metric.Int64Counter
}

func newTelemetry(mp metric.MeterProvider, tp trace.TracerProvider) (*telemetry, error) {
	meter := mp.Meter(instrumentationName)

	mutations, err := meter.Int64Counter("cart.mutations",
		metric.WithDescription("Applied cart mutations by operation"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create mutations counter")
	}
	persistFailures, err := meter.Int64Counter("cart.persist.failures",
		metric.WithDescription("Failed writes of the cart to its slot"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create persist failures counter")
	}

	return &telemetry{
		tracer:          tp.Tracer(instrumentationName),
		mutations:       mutations,
		persistFailures: persistFailures,
	}, nil
}

func (t *telemetry) mutated(ctx context.Context, op string) {
	t.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

func (t *telemetry) persistFailed(ctx context.Context) {
	t.persistFailures.Add(ctx, 1)
}
