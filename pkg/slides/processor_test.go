package slides

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"ai-slidegen-be/pkg/cache"
	"ai-slidegen-be/pkg/report"
)

type fakeEnricher struct {
	calls  int64
	err    error
	jitter bool
}

func (f *fakeEnricher) ProcessText(ctx context.Context, input string, minQuality, maxCost float64) (string, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.jitter {
		time.Sleep(time.Duration(rand.Intn(10)) * time.Millisecond)
	}
	if f.err != nil {
		return "", f.err
	}
	return "enriched: " + input, nil
}

func (f *fakeEnricher) callCount() int64 {
	return atomic.LoadInt64(&f.calls)
}

func makeReport(pages int) *report.Report {
	r := &report.Report{File: "exam.pdf"}
	for i := 1; i <= pages; i++ {
		r.Pages = append(r.Pages, report.Page{
			Number: i,
			Text:   fmt.Sprintf("# Page %d\nBody of page %d.", i, i),
		})
	}
	return r
}

func newTestProcessor(enricher Enricher, batchSize int) *Processor {
	return NewProcessor(
		cache.NewManager(cache.NewMemoryStore()),
		enricher,
		Config{BatchSize: batchSize, EnrichmentEnabled: true, MinQuality: 0.5, MaxCost: 1.0},
	)
}

func TestProcessReportPreservesOrder(t *testing.T) {
	for _, batchSize := range []int{1, 2, 5, 7, 20} {
		t.Run(fmt.Sprintf("batch_%d", batchSize), func(t *testing.T) {
			enricher := &fakeEnricher{jitter: true}
			p := newTestProcessor(enricher, batchSize)

			rep := makeReport(12)
			slides, err := p.ProcessReport(context.Background(), rep, nil)
			if err != nil {
				t.Fatalf("ProcessReport error: %v", err)
			}

			if len(slides) != 12 {
				t.Fatalf("len(slides) = %d, want 12", len(slides))
			}
			for i, s := range slides {
				wantTitle := fmt.Sprintf("Page %d", i+1)
				if s.Title != wantTitle {
					t.Errorf("slides[%d].Title = %q, want %q (order broken)", i, s.Title, wantTitle)
				}
				wantContent := fmt.Sprintf("enriched: Body of page %d.", i+1)
				if s.Content != wantContent {
					t.Errorf("slides[%d].Content = %q, want %q", i, s.Content, wantContent)
				}
			}
		})
	}
}

func TestProcessReportProgressEvents(t *testing.T) {
	enricher := &fakeEnricher{}
	p := newTestProcessor(enricher, 5)

	var progresses []int
	var messages []string
	_, err := p.ProcessReport(context.Background(), makeReport(12), func(progress int, message string) {
		progresses = append(progresses, progress)
		messages = append(messages, message)
	})
	if err != nil {
		t.Fatalf("ProcessReport error: %v", err)
	}

	wantProgress := []int{41, 83, 100}
	wantMessages := []string{"Processing pages 1-5", "Processing pages 6-10", "Processing pages 11-12"}

	if len(progresses) != len(wantProgress) {
		t.Fatalf("got %d progress events %v, want %d", len(progresses), progresses, len(wantProgress))
	}
	for i := range wantProgress {
		if progresses[i] != wantProgress[i] {
			t.Errorf("progress[%d] = %d, want %d", i, progresses[i], wantProgress[i])
		}
		if messages[i] != wantMessages[i] {
			t.Errorf("message[%d] = %q, want %q", i, messages[i], wantMessages[i])
		}
	}

	for i := 1; i < len(progresses); i++ {
		if progresses[i] < progresses[i-1] {
			t.Errorf("progress not monotonic: %v", progresses)
		}
	}
}

func TestProcessReportSecondRunHitsCache(t *testing.T) {
	enricher := &fakeEnricher{}
	p := newTestProcessor(enricher, 5)
	rep := makeReport(4)

	first, err := p.ProcessReport(context.Background(), rep, nil)
	if err != nil {
		t.Fatalf("first run error: %v", err)
	}
	callsAfterFirst := enricher.callCount()

	var lastMessage string
	var events int
	second, err := p.ProcessReport(context.Background(), rep, func(progress int, message string) {
		events++
		lastMessage = message
		if progress != 100 {
			t.Errorf("cache hit progress = %d, want 100", progress)
		}
	})
	if err != nil {
		t.Fatalf("second run error: %v", err)
	}

	if enricher.callCount() != callsAfterFirst {
		t.Errorf("cache hit must not call the provider: %d extra calls", enricher.callCount()-callsAfterFirst)
	}
	if events != 1 || lastMessage != "loaded from cache" {
		t.Errorf("got %d events, last message %q; want single %q event", events, lastMessage, "loaded from cache")
	}
	if len(second) != len(first) {
		t.Errorf("cached result length %d differs from computed %d", len(second), len(first))
	}
	for i := range first {
		if second[i].Title != first[i].Title || second[i].Content != first[i].Content || second[i].Type != first[i].Type {
			t.Errorf("cached slide %d differs: %+v vs %+v", i, second[i], first[i])
		}
	}
}

func TestProcessReportSurvivesTotalProviderOutage(t *testing.T) {
	enricher := &fakeEnricher{err: errors.New("all providers unreachable")}
	p := newTestProcessor(enricher, 5)

	slides, err := p.ProcessReport(context.Background(), makeReport(12), nil)
	if err != nil {
		t.Fatalf("outage must not fail the run: %v", err)
	}
	if len(slides) != 12 {
		t.Fatalf("len(slides) = %d, want 12", len(slides))
	}
	for i, s := range slides {
		want := fmt.Sprintf("Body of page %d.", i+1)
		if s.Content != want {
			t.Errorf("slides[%d].Content = %q, want unenriched body %q", i, s.Content, want)
		}
	}
}

func TestProcessReportEmptyReport(t *testing.T) {
	p := newTestProcessor(&fakeEnricher{}, 5)

	var events int
	slides, err := p.ProcessReport(context.Background(), &report.Report{}, func(progress int, message string) {
		events++
		if progress != 100 {
			t.Errorf("progress = %d, want 100", progress)
		}
	})
	if err != nil {
		t.Fatalf("ProcessReport error: %v", err)
	}
	if len(slides) != 0 {
		t.Errorf("len(slides) = %d, want 0", len(slides))
	}
	if events != 1 {
		t.Errorf("events = %d, want exactly one terminal update", events)
	}
}

func TestProcessReportCancelledContext(t *testing.T) {
	enricher := &fakeEnricher{}
	p := newTestProcessor(enricher, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.ProcessReport(ctx, makeReport(4), nil)
	if err == nil {
		t.Fatal("cancelled context must abort the run")
	}

	// the aborted run must not have cached a partial result
	fresh := &fakeEnricher{}
	p2 := NewProcessor(p.cache, fresh, p.cfg)
	if _, err := p2.ProcessReport(context.Background(), makeReport(4), nil); err != nil {
		t.Fatalf("fresh run error: %v", err)
	}
	if fresh.callCount() == 0 {
		t.Error("fresh run should have processed pages, partial result was cached")
	}
}

func TestProcessReportSlideClassification(t *testing.T) {
	p := newTestProcessor(&fakeEnricher{}, 5)

	rep := &report.Report{Pages: []report.Page{
		{Number: 1, Text: "# Genetic Analysis Report\nCover."},
		{Number: 2, Text: "# Patient Information\nName and age."},
		{Number: 3, Text: "# Genetic Findings\nVariants."},
		{Number: 4, Text: "# Recommendations\nFollow up."},
		{Number: 5, Text: "# Methods\nSequencing."},
	}}

	slides, err := p.ProcessReport(context.Background(), rep, nil)
	if err != nil {
		t.Fatalf("ProcessReport error: %v", err)
	}

	want := []report.SlideType{
		report.SlideTypeTitle,
		report.SlideTypePatientInfo,
		report.SlideTypeGeneticSection,
		report.SlideTypeRecommendations,
		report.SlideTypeSection,
	}
	for i, w := range want {
		if slides[i].Type != w {
			t.Errorf("slides[%d].Type = %q, want %q", i, slides[i].Type, w)
		}
	}
}
