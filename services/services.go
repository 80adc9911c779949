// Package services holds the tool and neighbor directories and the loan
// lifecycle. Every failure leaving this package is an *apperr.Error.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"toolbank/apperr"
	"toolbank/locker"
	"toolbank/ports"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "toolbank/services"

// shared by services built without WithLocker
var defaultLocker ports.Locker = locker.NewLocalLocker()

type Option func(*options)

type options struct {
	now    func() time.Time
	locker ports.Locker
	tracer trace.Tracer
}

// WithClock overrides time.Now for loan and return dates.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLocker(l ports.Locker) Option {
	return func(o *options) { o.locker = l }
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracer = tp.Tracer(tracerName) }
}

func newOptions(opts []Option) options {
	o := options{
		now:    time.Now,
		locker: defaultLocker,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// end closes span, recording *errp when set.
func end(span trace.Span, errp *error) {
	if err := *errp; err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.kind", string(apperr.KindOf(err))))
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (o options) clock() time.Time { return o.now().UTC() }

// lock acquires every key in a fixed order and returns one release func.
func (o options) lock(ctx context.Context, keys ...string) (func(), error) {
	sort.Strings(keys)
	var releases []func()
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	var prev string
	for i, k := range keys {
		if i > 0 && k == prev {
			continue
		}
		prev = k
		release, err := o.locker.Lock(ctx, k)
		if err != nil {
			releaseAll()
			return nil, apperr.Wrap(err, "acquire "+k)
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}

func toolKey(id int64) string     { return fmt.Sprintf("tool:%d", id) }
func neighborKey(id int64) string { return fmt.Sprintf("neighbor:%d", id) }

// checkID rejects non-positive identifiers before any storage access.
func checkID(id int64, what string) error {
	if id <= 0 {
		return apperr.Invalid(fmt.Sprintf("%s id must be a positive integer", what))
	}
	return nil
}

// lookupErr turns ports.ErrNotFound into the entity's not-found kind and
// wraps anything else as a storage failure.
func lookupErr(err error, kind apperr.Kind, what string, id int64) error {
	if errors.Is(err, ports.ErrNotFound) {
		return apperr.Newf(kind, "%s %d not found", what, id)
	}
	return apperr.Wrap(err, "find "+what)
}
