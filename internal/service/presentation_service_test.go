package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"ai-slidegen-be/internal/model"
	"ai-slidegen-be/internal/repository/memory"
	"ai-slidegen-be/pkg/cache"
	"ai-slidegen-be/pkg/events"
	"ai-slidegen-be/pkg/report"
	"ai-slidegen-be/pkg/slides"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingPublisher struct {
	published []events.ProgressEvent
}

func (p *capturingPublisher) Publish(topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		var event events.ProgressEvent
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			return err
		}
		p.published = append(p.published, event)
	}
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

type fakeOCRClient struct {
	rep *report.Report
	err error
}

func (c *fakeOCRClient) ProcessDocument(ctx context.Context, filename string, data []byte) (*report.Report, error) {
	return c.rep, c.err
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func testReport(pages int) *report.Report {
	rep := &report.Report{File: "exam.pdf"}
	for i := 1; i <= pages; i++ {
		rep.Pages = append(rep.Pages, report.Page{
			Number: i,
			Text:   "# Heading\n\nFindings on this page.",
		})
	}
	return rep
}

func newTestService(ocrClient *fakeOCRClient, pub *capturingPublisher) (IPresentationService, *memory.ProcessRepository) {
	processor := slides.NewProcessor(
		cache.NewManager(cache.NewMemoryStore()),
		nil,
		slides.Config{BatchSize: 2, EnrichmentEnabled: false},
	)
	repo := memory.NewProcessRepository()
	return NewPresentationService(ocrClient, processor, repo, pub, nopLogger{}), repo
}

func TestProcessReportPublishesCompleteEvent(t *testing.T) {
	pub := &capturingPublisher{}
	svc, repo := newTestService(&fakeOCRClient{}, pub)

	processID := svc.NewProcessID()
	res, err := svc.ProcessReport(context.Background(), processID, testReport(3))
	require.NoError(t, err)
	require.Len(t, res.Slides, 3)
	assert.Equal(t, processID, res.ProcessID)

	require.NotEmpty(t, pub.published)
	last := pub.published[len(pub.published)-1]
	assert.Equal(t, events.ProgressTypeComplete, last.Type)
	assert.Equal(t, 100, last.Progress)
	assert.Len(t, last.Slides, 3)

	// the run stays readable as done until the registry TTL expires it
	state, found := repo.Get(processID)
	require.True(t, found)
	assert.Equal(t, model.ProcessStatusDone, state.Status)
	assert.Equal(t, 100, state.Progress)
}

func TestProcessDocumentScalesSlideProgress(t *testing.T) {
	pub := &capturingPublisher{}
	svc, _ := newTestService(&fakeOCRClient{rep: testReport(4)}, pub)

	processID := svc.NewProcessID()
	res, err := svc.ProcessDocument(context.Background(), processID, "exam.pdf", []byte("%PDF"))
	require.NoError(t, err)
	require.Len(t, res.Slides, 4)

	var progresses []int
	for _, event := range pub.published {
		if event.Type == events.ProgressTypeProgress {
			progresses = append(progresses, event.Progress)
		}
	}

	// OCR markers come first, then the slide stage inside the 60..100 band
	require.GreaterOrEqual(t, len(progresses), 4)
	assert.Equal(t, 5, progresses[0])
	assert.Equal(t, 30, progresses[1])
	for _, p := range progresses[2:] {
		assert.GreaterOrEqual(t, p, 60)
		assert.LessOrEqual(t, p, 100)
	}
}

func TestProcessDocumentOCRFailure(t *testing.T) {
	pub := &capturingPublisher{}
	svc, repo := newTestService(&fakeOCRClient{err: errors.New("upload rejected")}, pub)

	processID := svc.NewProcessID()
	_, err := svc.ProcessDocument(context.Background(), processID, "exam.pdf", []byte("%PDF"))
	require.Error(t, err)

	last := pub.published[len(pub.published)-1]
	assert.Equal(t, events.ProgressTypeError, last.Type)

	state, found := repo.Get(processID)
	require.True(t, found)
	assert.Equal(t, model.ProcessStatusError, state.Status)
	assert.Contains(t, state.Message, "upload rejected")
}

func TestStatusTracksRun(t *testing.T) {
	pub := &capturingPublisher{}
	svc, _ := newTestService(&fakeOCRClient{}, pub)

	processID := svc.NewProcessID()
	status, found := svc.Status(processID)
	require.True(t, found)
	assert.Equal(t, string(model.ProcessStatusProcessing), status.Status)
	assert.Equal(t, 0, status.Progress)

	_, err := svc.ProcessReport(context.Background(), processID, testReport(1))
	require.NoError(t, err)

	status, found = svc.Status(processID)
	require.True(t, found)
	assert.Equal(t, string(model.ProcessStatusDone), status.Status)
	assert.Equal(t, 100, status.Progress)

	_, found = svc.Status("unknown-id")
	assert.False(t, found)
}
