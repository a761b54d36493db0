package importer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Jakobo/eyeglass/pkg/async"
	"github.com/Jakobo/eyeglass/pkg/observability"
	"github.com/Jakobo/eyeglass/pkg/sass"
)

// DefaultAsyncTimeout bounds one asynchronous resolution
const DefaultAsyncTimeout = 30 * time.Second

// Stage is one link of the resolution chain. TryResolve returns a result,
// a terminal error, or the outcome of trail.Next when the request is not
// its to answer. Returning (nil, nil) also hands the request on.
type Stage interface {
	Name() string
	TryResolve(ctx context.Context, req *sass.Request, trail *Trail) (*sass.Result, error)
}

// Trail carries one request through the chain. It is not safe for
// concurrent use and a stage may call Next at most once.
type Trail struct {
	chain     *Chain
	req       *sass.Request
	pos       int
	notes     []error
	delegated []bool
}

// Note records why the current stage declined. Notes surface in the
// ResolutionError if no later stage resolves the request.
func (t *Trail) Note(err error) {
	if err != nil {
		t.notes = append(t.notes, err)
	}
}

// Notes returns the notes recorded so far
func (t *Trail) Notes() []error {
	notes := make([]error, len(t.notes))
	copy(notes, t.notes)
	return notes
}

// Next hands the request to the following stage. Past the last stage it
// returns a ResolutionError.
func (t *Trail) Next(ctx context.Context) (*sass.Result, error) {
	if t.pos >= 0 {
		t.delegated[t.pos] = true
	}
	t.pos++
	if t.pos >= len(t.chain.stages) {
		return nil, &ResolutionError{URI: t.req.URI, Prev: t.req.Prev, Notes: t.Notes()}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.chain.attempt(ctx, t, t.pos)
}

// Options configures a Chain
type Options struct {
	Metrics        *observability.Metrics
	TracerProvider trace.TracerProvider
	Logger         *logrus.Logger
	// AsyncTimeout bounds ImportAsync; zero means DefaultAsyncTimeout
	AsyncTimeout time.Duration
}

// Chain runs requests through its stages in order. It implements
// sass.Importer and sass.AsyncImporter and is safe for concurrent use.
type Chain struct {
	stages       []Stage
	tracer       trace.Tracer
	metrics      *observability.Metrics
	log          *logrus.Logger
	asyncTimeout time.Duration
}

// NewChain creates a chain over stages. Nil stages are skipped.
func NewChain(opts Options, stages ...Stage) *Chain {
	c := &Chain{
		metrics:      opts.Metrics,
		log:          opts.Logger,
		asyncTimeout: opts.AsyncTimeout,
	}
	for _, s := range stages {
		if s != nil {
			c.stages = append(c.stages, s)
		}
	}
	if c.log == nil {
		c.log = logrus.New()
	}
	if c.asyncTimeout <= 0 {
		c.asyncTimeout = DefaultAsyncTimeout
	}
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	c.tracer = tp.Tracer(observability.InstrumentationName + "/importer")
	return c
}

// Stages lists stage names in resolution order
func (c *Chain) Stages() []string {
	names := make([]string, len(c.stages))
	for i, s := range c.stages {
		names[i] = s.Name()
	}
	return names
}

// Resolve runs req through the chain
func (c *Chain) Resolve(ctx context.Context, req *sass.Request) (*sass.Result, error) {
	if req == nil || req.URI == "" {
		return nil, ErrInvalidRequest
	}
	t := &Trail{chain: c, req: req, pos: -1, delegated: make([]bool, len(c.stages))}
	return t.Next(ctx)
}

// Import implements sass.Importer
func (c *Chain) Import(ctx context.Context, req *sass.Request) (*sass.Result, error) {
	return c.Resolve(ctx, req)
}

// ImportAsync implements sass.AsyncImporter. done is called exactly once,
// also when resolution panics or times out.
func (c *Chain) ImportAsync(ctx context.Context, req *sass.Request, done func(*sass.Result, error)) {
	var once sync.Once
	finish := func(res *sass.Result, err error) {
		once.Do(func() { done(res, err) })
	}

	uri := ""
	if req != nil {
		uri = req.URI
	}
	async.SafeGo(ctx, c.asyncTimeout, "import "+uri, func(ctx context.Context) (err error) {
		defer func() {
			if perr := observability.MustRecover(recover()); perr != nil {
				err = fmt.Errorf("resolving %q: %w", uri, perr)
				finish(nil, err)
			}
		}()
		res, err := c.Resolve(ctx, req)
		finish(res, err)
		return nil
	})
}

func (c *Chain) attempt(ctx context.Context, t *Trail, pos int) (*sass.Result, error) {
	stage := c.stages[pos]
	ctx, span := c.tracer.Start(ctx, "importer."+stage.Name(), trace.WithAttributes(
		attribute.String("import.uri", t.req.URI),
		attribute.String("import.prev", t.req.Prev),
		attribute.String("import.kind", t.req.Kind.String()),
	))
	defer span.End()
	start := time.Now()

	res, err := stage.TryResolve(ctx, t.req, t)
	if res == nil && err == nil && !t.delegated[pos] {
		res, err = t.Next(ctx)
	}

	var status string
	switch {
	case t.delegated[pos]:
		status = observability.StatusDelegated
		span.SetAttributes(attribute.Bool("import.delegated", true))
	case err != nil:
		status = observability.StatusError
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	default:
		status = observability.StatusResolved
		span.SetAttributes(attribute.String("import.path", res.Path))
	}
	c.metrics.ObserveResolution(stage.Name(), status, time.Since(start))

	if status != observability.StatusDelegated {
		c.log.WithFields(logrus.Fields{
			"stage":  stage.Name(),
			"uri":    t.req.URI,
			"prev":   t.req.Prev,
			"status": status,
		}).Debug("Import attempt")
	}
	return res, err
}
