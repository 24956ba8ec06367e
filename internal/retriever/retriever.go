// Package retriever fetches reference pages and condenses them into a
// bounded grounding context for the completion service.
package retriever

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/academia-artes/course-assistant/pkg/logger"
	"github.com/academia-artes/course-assistant/pkg/metrics"
	"github.com/academia-artes/course-assistant/pkg/tracing"
)

const (
	// DefaultSelector is the content region extracted from each page.
	DefaultSelector = "main"
	// DefaultPerLocatorLimit caps each page's text, in runes.
	DefaultPerLocatorLimit = 1500
	// DefaultGlobalLimit caps the whole context, in runes.
	DefaultGlobalLimit = 12000
	// DefaultConcurrency bounds simultaneous fetches.
	DefaultConcurrency = 4

	// FailureText replaces the context when no page could be read.
	FailureText = "No se pudo obtener la información actualizada del sitio."
)

var errEmptyContent = errors.New("no text content")

// Config tunes extraction and truncation.
type Config struct {
	Selector        string
	PerLocatorLimit int // 0 disables the per-page cap
	GlobalLimit     int
	Concurrency     int
}

// Retriever builds grounding context from reference pages. Nothing is
// cached: every call fetches its locators again.
type Retriever struct {
	fetcher Fetcher
	cfg     Config
	logger  *logger.Logger
}

// New creates a Retriever. Zero config fields take their defaults, except
// PerLocatorLimit where zero means unbounded.
func New(fetcher Fetcher, cfg Config, log *logger.Logger) *Retriever {
	if cfg.Selector == "" {
		cfg.Selector = DefaultSelector
	}
	if cfg.GlobalLimit <= 0 {
		cfg.GlobalLimit = DefaultGlobalLimit
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.PerLocatorLimit < 0 {
		cfg.PerLocatorLimit = 0
	}
	return &Retriever{
		fetcher: fetcher,
		cfg:     cfg,
		logger:  log.Component("retriever"),
	}
}

type chunk struct {
	text string
	err  error
}

// Retrieve fetches every locator, skipping the ones that fail, and returns
// the attributed chunks in locator order. The result never exceeds the
// global limit. When no locator yields text it returns FailureText.
func (r *Retriever) Retrieve(ctx context.Context, locators []string) string {
	ctx, span := tracing.Start(ctx, "retriever.Retrieve", attribute.Int("locators", len(locators)))
	defer span.End()

	start := time.Now()
	defer func() { metrics.RetrievalDuration.Observe(time.Since(start).Seconds()) }()

	chunks := make([]chunk, len(locators))

	var g errgroup.Group
	g.SetLimit(r.cfg.Concurrency)
	for i, loc := range locators {
		i, loc := i, loc
		g.Go(func() error {
			text, err := r.fetchOne(ctx, loc)
			chunks[i] = chunk{text: text, err: err}
			return nil
		})
	}
	g.Wait()

	var b strings.Builder
	for i, c := range chunks {
		if c.err != nil {
			metrics.LocatorFetchesTotal.WithLabelValues(outcome(c.err)).Inc()
			r.logger.Warn("skipping locator",
				zap.String("locator", locators[i]),
				zap.Error(c.err),
			)
			continue
		}
		metrics.LocatorFetchesTotal.WithLabelValues("success").Inc()
		b.WriteString("Contenido de ")
		b.WriteString(locators[i])
		b.WriteString(":\n")
		b.WriteString(c.text)
		b.WriteString("\n\n")
	}

	if b.Len() == 0 {
		r.logger.Error("no locator produced content", zap.Strings("locators", locators))
		return FailureText
	}

	return Truncate(strings.TrimRight(b.String(), "\n"), r.cfg.GlobalLimit)
}

func (r *Retriever) fetchOne(ctx context.Context, locator string) (string, error) {
	markup, err := r.fetcher.Fetch(ctx, locator)
	if err != nil {
		return "", err
	}
	text, err := Extract(markup, r.cfg.Selector)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", errEmptyContent
	}
	return Truncate(text, r.cfg.PerLocatorLimit), nil
}

func outcome(err error) string {
	if errors.Is(err, errEmptyContent) {
		return "empty"
	}
	return "error"
}
