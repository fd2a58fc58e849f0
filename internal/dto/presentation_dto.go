package dto

import (
	"ai-slidegen-be/pkg/report"
)

// ProcessReportRequest carries a pre-extracted OCR report, bypassing the OCR
// stage. Page order in Paginas is the output slide order.
type ProcessReportRequest struct {
	File  string        `json:"arquivo"`
	Pages []report.Page `json:"paginas" validate:"required"`
}

func (r *ProcessReportRequest) ToReport() *report.Report {
	return &report.Report{
		File:  r.File,
		Pages: r.Pages,
	}
}

// ProcessResponse is the synchronous result of a pipeline run; progress was
// streamed over the websocket while the request was in flight.
type ProcessResponse struct {
	ProcessID string         `json:"process_id"`
	Slides    []report.Slide `json:"slides"`
}

type ProcessStatusResponse struct {
	ProcessID string `json:"process_id"`
	Status    string `json:"status"`
	Progress  int    `json:"progress"`
	Message   string `json:"message,omitempty"`
}
