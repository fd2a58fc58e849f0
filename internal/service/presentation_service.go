package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-slidegen-be/internal/dto"
	"ai-slidegen-be/internal/model"
	"ai-slidegen-be/internal/pkg/logger"
	"ai-slidegen-be/internal/repository/memory"
	"ai-slidegen-be/pkg/events"
	"ai-slidegen-be/pkg/ocr"
	"ai-slidegen-be/pkg/report"
	"ai-slidegen-be/pkg/slides"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

type IPresentationService interface {
	// ProcessDocument runs the full pipeline on an uploaded PDF: OCR,
	// extraction, enrichment, caching. Progress streams to the processId's
	// websocket channel while the call is in flight.
	ProcessDocument(ctx context.Context, processID, filename string, data []byte) (*dto.ProcessResponse, error)

	// ProcessReport runs the pipeline on an already-extracted report.
	ProcessReport(ctx context.Context, processID string, rep *report.Report) (*dto.ProcessResponse, error)

	// NewProcessID registers a fresh run and returns its id.
	NewProcessID() string

	// Status returns the state of an in-flight run.
	Status(processID string) (*dto.ProcessStatusResponse, bool)
}

type presentationService struct {
	ocrClient   ocr.Client
	processor   *slides.Processor
	processRepo *memory.ProcessRepository
	publisher   message.Publisher
	logger      logger.ILogger
}

func NewPresentationService(
	ocrClient ocr.Client,
	processor *slides.Processor,
	processRepo *memory.ProcessRepository,
	publisher message.Publisher,
	sysLogger logger.ILogger,
) IPresentationService {
	return &presentationService{
		ocrClient:   ocrClient,
		processor:   processor,
		processRepo: processRepo,
		publisher:   publisher,
		logger:      sysLogger,
	}
}

func (s *presentationService) NewProcessID() string {
	processID := uuid.NewString()
	s.processRepo.Save(&model.ProcessState{
		ProcessID: processID,
		Status:    model.ProcessStatusProcessing,
		Progress:  0,
		StartedAt: time.Now(),
	})
	return processID
}

func (s *presentationService) Status(processID string) (*dto.ProcessStatusResponse, bool) {
	state, found := s.processRepo.Get(processID)
	if !found {
		return nil, false
	}
	return &dto.ProcessStatusResponse{
		ProcessID: state.ProcessID,
		Status:    string(state.Status),
		Progress:  state.Progress,
		Message:   state.Message,
	}, true
}

func (s *presentationService) ProcessDocument(ctx context.Context, processID, filename string, data []byte) (*dto.ProcessResponse, error) {
	s.logger.Info("Presentation", "Starting document pipeline", map[string]interface{}{
		"process_id": processID,
		"file":       filename,
	})

	s.notifyProgress(processID, 5, "Starting OCR")

	rep, err := s.ocrClient.ProcessDocument(ctx, filename, data)
	if err != nil {
		s.fail(processID, fmt.Errorf("ocr stage: %w", err))
		return nil, err
	}

	s.notifyProgress(processID, 30, "Data extracted, generating slides")

	// the slide stage owns the 60..100 band, mirroring the share of wall
	// time it takes after OCR
	return s.run(ctx, processID, rep, func(p int) int { return 60 + p*40/100 })
}

func (s *presentationService) ProcessReport(ctx context.Context, processID string, rep *report.Report) (*dto.ProcessResponse, error) {
	s.logger.Info("Presentation", "Starting report pipeline", map[string]interface{}{
		"process_id": processID,
		"pages":      len(rep.Pages),
	})
	return s.run(ctx, processID, rep, func(p int) int { return p })
}

func (s *presentationService) run(ctx context.Context, processID string, rep *report.Report, scale func(int) int) (*dto.ProcessResponse, error) {
	result, err := s.processor.ProcessReport(ctx, rep, func(progress int, msg string) {
		s.notifyProgress(processID, scale(progress), msg)
	})
	if err != nil {
		s.fail(processID, err)
		return nil, err
	}

	s.publish(events.ProgressEvent{
		ProcessID:  processID,
		Type:       events.ProgressTypeComplete,
		Progress:   100,
		Message:    "Presentation ready",
		Slides:     result,
		OccurredAt: time.Now(),
	})
	s.finish(processID, model.ProcessStatusDone, "Presentation ready")

	s.logger.Info("Presentation", "Pipeline complete", map[string]interface{}{
		"process_id": processID,
		"slides":     len(result),
	})

	return &dto.ProcessResponse{ProcessID: processID, Slides: result}, nil
}

func (s *presentationService) notifyProgress(processID string, progress int, msg string) {
	if state, found := s.processRepo.Get(processID); found {
		state.Progress = progress
		state.Message = msg
		s.processRepo.Save(state)
	}

	s.publish(events.ProgressEvent{
		ProcessID:  processID,
		Type:       events.ProgressTypeProgress,
		Progress:   progress,
		Message:    msg,
		OccurredAt: time.Now(),
	})
}

func (s *presentationService) fail(processID string, err error) {
	s.logger.Error("Presentation", "Pipeline failed", map[string]interface{}{
		"process_id": processID,
		"error":      err.Error(),
	})

	s.publish(events.ProgressEvent{
		ProcessID:  processID,
		Type:       events.ProgressTypeError,
		Message:    err.Error(),
		OccurredAt: time.Now(),
	})
	s.finish(processID, model.ProcessStatusError, err.Error())
}

// finish records the terminal status. The state stays readable for late
// status polls until the registry TTL expires it.
func (s *presentationService) finish(processID string, status model.ProcessStatus, msg string) {
	if state, found := s.processRepo.Get(processID); found {
		state.Status = status
		state.Message = msg
		if status == model.ProcessStatusDone {
			state.Progress = 100
		}
		s.processRepo.Save(state)
	}
}

// publish hands the event to the in-process bus. Best-effort by contract:
// the pipeline never waits on progress consumers.
func (s *presentationService) publish(event events.ProgressEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.publisher.Publish(events.ProgressTopic, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		s.logger.Warn("Presentation", "Progress publish failed", map[string]interface{}{
			"process_id": event.ProcessID,
			"error":      err.Error(),
		})
	}
}
