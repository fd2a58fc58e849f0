package slides

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"ai-slidegen-be/pkg/cache"
	"ai-slidegen-be/pkg/extractor"
	"ai-slidegen-be/pkg/report"
)

// DefaultBatchSize bounds the number of in-flight provider calls per batch.
const DefaultBatchSize = 5

// ProgressFunc receives one progress update per pipeline stage. Delivery is
// best-effort and must not block: implementations hand the event off (pubsub
// publish, buffered channel) rather than waiting on slow consumers.
type ProgressFunc func(progress int, message string)

// Enricher is the routed LLM call applied per page. *router.Router satisfies
// it; tests substitute fakes.
type Enricher interface {
	ProcessText(ctx context.Context, input string, minQuality, maxCost float64) (string, error)
}

// Config tunes one processor instance.
type Config struct {
	BatchSize         int
	EnrichmentEnabled bool
	MinQuality        float64
	MaxCost           float64
}

// Processor drives the document-to-slide pipeline: cache check, fixed-size
// batches processed with per-page concurrency, ordered reassembly, progress
// reporting and write-through caching.
type Processor struct {
	cache    *cache.Manager
	enricher Enricher
	cfg      Config
}

func NewProcessor(cacheManager *cache.Manager, enricher Enricher, cfg Config) *Processor {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &Processor{
		cache:    cacheManager,
		enricher: enricher,
		cfg:      cfg,
	}
}

// ProcessReport turns a report into an ordered slide list. Output order
// always equals input page order regardless of completion order inside a
// batch. On a cache hit no page is processed and no provider is called.
// An unrecovered page failure aborts the run without writing to the cache.
func (p *Processor) ProcessReport(ctx context.Context, rep *report.Report, onProgress ProgressFunc) ([]report.Slide, error) {
	if onProgress == nil {
		onProgress = func(int, string) {}
	}

	fp, err := cache.Fingerprint(rep)
	if err != nil {
		// content that cannot be fingerprinted is still processed, just not cached
		log.Printf("[WARN] report fingerprint failed, caching disabled for this run: %v", err)
		fp = ""
	}

	if fp != "" {
		if cached, ok := p.cache.Get(ctx, fp); ok {
			onProgress(100, "loaded from cache")
			return cached, nil
		}
	}

	total := len(rep.Pages)
	slides := make([]report.Slide, 0, total)

	for start := 0; start < total; start += p.cfg.BatchSize {
		end := start + p.cfg.BatchSize
		if end > total {
			end = total
		}

		batch, err := p.processBatch(ctx, rep.Pages[start:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", start+1, end, err)
		}
		slides = append(slides, batch...)

		onProgress(end*100/total, fmt.Sprintf("Processing pages %d-%d", start+1, end))
	}

	if total == 0 {
		onProgress(100, "no pages to process")
	}

	if fp != "" {
		p.cache.Put(ctx, fp, slides)
	}
	return slides, nil
}

// processBatch fans one goroutine out per page and gathers results back in
// the batch's original order. Results land in an index-keyed slice, so no
// lock is needed and completion-order jitter cannot reorder output.
func (p *Processor) processBatch(ctx context.Context, pages []report.Page) ([]report.Slide, error) {
	results := make([]report.Slide, len(pages))
	errs := make([]error, len(pages))

	var wg sync.WaitGroup
	for i, page := range pages {
		wg.Add(1)
		go func(i int, page report.Page) {
			defer wg.Done()
			results[i], errs[i] = p.processPage(ctx, page)
		}(i, page)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// processPage extracts one page and, when enrichment is enabled, routes the
// body through the LLM. Enrichment failure of any kind keeps the unenriched
// body: a page is degraded, never dropped.
func (p *Processor) processPage(ctx context.Context, page report.Page) (report.Slide, error) {
	if err := ctx.Err(); err != nil {
		return report.Slide{}, err
	}

	title, body, tables := extractor.Extract(page.Text)

	content := body
	if p.cfg.EnrichmentEnabled && body != "" {
		if enriched, err := p.enricher.ProcessText(ctx, body, p.cfg.MinQuality, p.cfg.MaxCost); err == nil {
			content = enriched
		}
	}

	return report.Slide{
		Type:    classifySlide(page, title),
		Title:   title,
		Content: content,
		Tables:  tables,
		Images:  page.Images,
	}, nil
}

// classifySlide applies the presentation-type heuristics: the first titled
// page opens the deck, recognizable headings map to their dedicated types,
// everything else is a plain section.
func classifySlide(page report.Page, title string) report.SlideType {
	lower := strings.ToLower(title)

	switch {
	case title != "" && page.Number == 1:
		return report.SlideTypeTitle
	case strings.Contains(lower, "recommend") || strings.Contains(lower, "recomenda"):
		return report.SlideTypeRecommendations
	case strings.Contains(lower, "patient") || strings.Contains(lower, "paciente"):
		return report.SlideTypePatientInfo
	case strings.Contains(lower, "genetic") || strings.Contains(lower, "genétic"):
		return report.SlideTypeGeneticSection
	default:
		return report.SlideTypeSection
	}
}
