package registry

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/lysyi3m/page-comb/app/catalog"
	"github.com/lysyi3m/page-comb/app/plugin"
)

const DefaultConcurrency = 8

// EntityFactory builds catalog entries from fetched definition files.
type EntityFactory interface {
	MakeParser(file *catalog.File) (*plugin.Parser, error)
	MakeTemplate(file *catalog.File) (*plugin.Template, error)
}

var _ EntityFactory = (*plugin.Factory)(nil)

// Attempt describes one finished refresh.
type Attempt struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Parsers    int
	Templates  int
	Failures   int
	Err        error
}

// Recorder receives every finished refresh attempt.
type Recorder interface {
	RecordRefresh(ctx context.Context, attempt Attempt) error
}

// State is one published snapshot of the registry. It is never mutated
// after it has been stored.
type State struct {
	Parsers          *Catalog[*plugin.Parser]
	Templates        *Catalog[*plugin.Template]
	LastRefreshAt    time.Time
	LastRefreshError error
}

type Options struct {
	ParsersDir   string
	TemplatesDir string
	Concurrency  int
	Recorder     Recorder
	Tracer       trace.Tracer
	Now          func() time.Time
}

type Registry struct {
	source       catalog.Source
	factory      EntityFactory
	parsersDir   string
	templatesDir string
	concurrency  int
	recorder     Recorder
	tracer       trace.Tracer
	now          func() time.Time

	state atomic.Pointer[State]

	mu       sync.Mutex
	inFlight *flight
}

// flight is a refresh in progress; every caller that joins it receives err
// once done is closed.
type flight struct {
	done chan struct{}
	err  error
}

func NewRegistry(source catalog.Source, factory EntityFactory, opts Options) *Registry {
	r := &Registry{
		source:       source,
		factory:      factory,
		parsersDir:   cmp.Or(opts.ParsersDir, "parsers"),
		templatesDir: cmp.Or(opts.TemplatesDir, "templates"),
		concurrency:  opts.Concurrency,
		recorder:     opts.Recorder,
		tracer:       opts.Tracer,
		now:          opts.Now,
	}
	if r.concurrency <= 0 {
		r.concurrency = DefaultConcurrency
	}
	if r.tracer == nil {
		r.tracer = noop.NewTracerProvider().Tracer("registry")
	}
	if r.now == nil {
		r.now = time.Now
	}

	r.state.Store(&State{
		Parsers:   NewCatalog[*plugin.Parser](nil),
		Templates: NewCatalog[*plugin.Template](nil),
	})

	return r
}

func (r *Registry) State() *State {
	return r.state.Load()
}

func (r *Registry) Parsers() *Catalog[*plugin.Parser] {
	return r.state.Load().Parsers
}

func (r *Registry) Templates() *Catalog[*plugin.Template] {
	return r.state.Load().Templates
}

func (r *Registry) Refreshing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight != nil
}

// Refresh starts a refresh, or joins the one already running, and waits for
// its outcome. Cancelling ctx stops the wait, not the refresh.
func (r *Registry) Refresh(ctx context.Context) error {
	f := r.join()
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TriggerRefresh starts or joins a refresh without waiting for it. The
// outcome is logged and stored in the registry state.
func (r *Registry) TriggerRefresh() {
	r.join()
}

func (r *Registry) join() *flight {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.inFlight != nil {
		return r.inFlight
	}

	f := &flight{done: make(chan struct{})}
	r.inFlight = f
	go r.run(f)
	return f
}

func (r *Registry) run(f *flight) {
	attempt := Attempt{ID: uuid.NewString(), StartedAt: r.now()}

	defer func() {
		if p := recover(); p != nil {
			f.err = fmt.Errorf("refresh panicked: %v", p)
			r.publish(nil, nil, f.err)
			slog.Error("Catalog refresh panicked", "id", attempt.ID, "panic", p)
		}

		r.mu.Lock()
		r.inFlight = nil
		r.mu.Unlock()
		close(f.done)
	}()

	f.err = r.refresh(context.Background(), &attempt)
}

func (r *Registry) refresh(ctx context.Context, attempt *Attempt) error {
	ctx, span := r.tracer.Start(ctx, "registry.refresh", trace.WithAttributes(attribute.String("refresh.id", attempt.ID)))
	defer span.End()

	slog.Debug("Catalog refresh started", "id", attempt.ID)

	var parsers batch[*plugin.Parser]
	var templates batch[*plugin.Template]

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		parsers, err = loadDirectory(gctx, r.source, r.parsersDir, "parser", r.concurrency, r.factory.MakeParser)
		return err
	})
	g.Go(func() error {
		var err error
		templates, err = loadDirectory(gctx, r.source, r.templatesDir, "template", r.concurrency, r.factory.MakeTemplate)
		return err
	})

	if err := g.Wait(); err != nil {
		r.publish(nil, nil, err)
		r.record(ctx, attempt, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "listing failed")
		slog.Error("Catalog refresh failed", "id", attempt.ID, "error", err)
		return err
	}

	templateEntries := make([]*plugin.Template, 0, len(templates.entries))
	for _, tmpl := range templates.entries {
		if strings.TrimSpace(tmpl.Name()) == plugin.PassThroughTemplateName {
			slog.Debug("Skipping template with reserved name", "name", tmpl.Name(), "link", tmpl.Link())
			continue
		}
		templateEntries = append(templateEntries, tmpl)
	}

	parserCatalog := NewCatalog(parsers.entries)
	templateCatalog := NewCatalog(templateEntries)

	failures := append(parsers.failures, templates.failures...)

	var err error
	if len(failures) > 0 {
		err = &RefreshError{Failures: failures}
	}

	r.publish(parserCatalog, templateCatalog, err)

	attempt.Parsers = parserCatalog.Len()
	attempt.Templates = templateCatalog.Len()
	attempt.Failures = len(failures)
	r.record(ctx, attempt, err)

	span.SetAttributes(
		attribute.Int("refresh.parsers", attempt.Parsers),
		attribute.Int("refresh.templates", attempt.Templates),
		attribute.Int("refresh.failures", attempt.Failures),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "entries failed")
		slog.Error("Catalog refresh completed with failures",
			"id", attempt.ID,
			"parsers", attempt.Parsers,
			"templates", attempt.Templates,
			"failures", attempt.Failures,
			"error", err)
		return err
	}

	slog.Info("Catalog refreshed",
		"id", attempt.ID,
		"duration", r.now().Sub(attempt.StartedAt),
		"parsers", attempt.Parsers,
		"templates", attempt.Templates)

	return nil
}

// publish swaps in a new state. nil catalogs keep the current ones.
func (r *Registry) publish(parsers *Catalog[*plugin.Parser], templates *Catalog[*plugin.Template], err error) {
	current := r.state.Load()

	next := &State{
		Parsers:          current.Parsers,
		Templates:        current.Templates,
		LastRefreshAt:    r.now(),
		LastRefreshError: err,
	}
	if parsers != nil && templates != nil {
		next.Parsers = parsers
		next.Templates = templates
	}

	r.state.Store(next)
}

func (r *Registry) record(ctx context.Context, attempt *Attempt, err error) {
	if r.recorder == nil {
		return
	}

	attempt.FinishedAt = r.now()
	attempt.Err = err

	if recErr := r.recorder.RecordRefresh(context.WithoutCancel(ctx), *attempt); recErr != nil {
		slog.Warn("Failed to record refresh attempt", "id", attempt.ID, "error", recErr)
	}
}
