package render

import (
	"cmp"
	"context"
	"log/slog"
	"mime"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/lysyi3m/page-comb/app/cache"
	"github.com/lysyi3m/page-comb/app/fetcher"
	"github.com/lysyi3m/page-comb/app/plugin"
)

const DefaultContentType = "text/html; charset=utf-8"

// Lookup resolves parsers and templates against the current catalogs.
type Lookup interface {
	FindParser(url string) (*plugin.Parser, bool)
	FindTemplate(name string) (*plugin.Template, bool)
}

type PageFetcher interface {
	Get(ctx context.Context, url, userAgent string) (*fetcher.Page, error)
}

type Request struct {
	URL       string
	Template  string
	UserAgent string
}

type Result struct {
	Body        string
	ContentType string
	Cached      bool
}

type Options struct {
	ContentType string
	Cache       cache.Store
	CacheTTL    time.Duration
	Tracer      trace.Tracer
}

type Pipeline struct {
	lookup      Lookup
	fetcher     PageFetcher
	contentType string
	cache       cache.Store
	cacheTTL    time.Duration
	tracer      trace.Tracer
}

func NewPipeline(lookup Lookup, fetcher PageFetcher, opts Options) *Pipeline {
	p := &Pipeline{
		lookup:      lookup,
		fetcher:     fetcher,
		contentType: cmp.Or(opts.ContentType, DefaultContentType),
		cache:       opts.Cache,
		cacheTTL:    opts.CacheTTL,
		tracer:      opts.Tracer,
	}
	if p.tracer == nil {
		p.tracer = noop.NewTracerProvider().Tracer("render")
	}
	return p
}

func (p *Pipeline) Render(ctx context.Context, req Request) (*Result, error) {
	ctx, span := p.tracer.Start(ctx, "render.pipeline", trace.WithAttributes(
		attribute.String("render.url", req.URL),
		attribute.String("render.template", req.Template),
	))
	defer span.End()

	result, err := p.render(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		return nil, err
	}

	span.SetAttributes(attribute.Bool("render.cached", result.Cached))
	return result, nil
}

func (p *Pipeline) render(ctx context.Context, req Request) (*Result, error) {
	passThrough := strings.TrimSpace(req.Template) == plugin.PassThroughTemplateName

	var tmpl *plugin.Template
	if !passThrough {
		var ok bool
		tmpl, ok = p.lookup.FindTemplate(req.Template)
		if !ok {
			return nil, &NotFoundError{Kind: KindTemplate, Name: req.Template}
		}
	}

	parser, ok := p.lookup.FindParser(req.URL)
	if !ok {
		return nil, &NotFoundError{Kind: KindParser, Name: req.URL}
	}

	target := req.URL
	if redirected := parser.RedirectURL(req.URL); redirected != "" {
		slog.Debug("Redirecting request", "parser", parser.Name(), "from", req.URL, "to", redirected)
		target = redirected
	}

	if passThrough {
		page, err := p.fetcher.Get(ctx, target, req.UserAgent)
		if err != nil {
			return nil, err
		}
		return &Result{Body: page.Text, ContentType: p.passThroughContentType(page.ContentType)}, nil
	}

	key := cache.RenderKey(tmpl.Name(), target)
	if cached, ok := p.cacheGet(ctx, key); ok {
		return &Result{Body: cached, ContentType: p.contentTypeFor(tmpl), Cached: true}, nil
	}

	page, err := p.fetcher.Get(ctx, target, req.UserAgent)
	if err != nil {
		return nil, err
	}

	pageParser, err := parser.ForPage(target, page.Text)
	if err != nil {
		return nil, err
	}

	tree, err := pageParser.Extract()
	if err != nil {
		return nil, err
	}

	tokens, err := NewTokenContext(Normalize(tree), target)
	if err != nil {
		return nil, err
	}

	body, err := tmpl.Render(tokens)
	if err != nil {
		return nil, err
	}

	p.cacheSet(ctx, key, body)

	slog.Debug("Page rendered", "url", target, "parser", parser.Name(), "template", tmpl.Name(), "length", len(body))

	return &Result{Body: body, ContentType: p.contentTypeFor(tmpl)}, nil
}

func (p *Pipeline) contentTypeFor(tmpl *plugin.Template) string {
	return cmp.Or(tmpl.ContentType(), p.contentType)
}

// passThroughContentType keeps the page's media type but declares UTF-8,
// which is what the fetcher decoded the body to.
func (p *Pipeline) passThroughContentType(pageContentType string) string {
	mediaType, _, err := mime.ParseMediaType(pageContentType)
	if err != nil || mediaType == "" {
		return p.contentType
	}
	return mediaType + "; charset=utf-8"
}

func (p *Pipeline) cacheGet(ctx context.Context, key string) (string, bool) {
	if p.cache == nil || p.cacheTTL <= 0 {
		return "", false
	}
	return p.cache.Get(ctx, key)
}

func (p *Pipeline) cacheSet(ctx context.Context, key, body string) {
	if p.cache == nil || p.cacheTTL <= 0 {
		return
	}
	p.cache.Set(ctx, key, body, p.cacheTTL)
}
