package ocr

import (
	"context"

	"ai-slidegen-be/pkg/report"
)

// Client is the OCR collaborator contract consumed by the pipeline: file
// bytes in, per-page markdown plus image descriptors out. The pipeline never
// depends on a concrete OCR vendor.
type Client interface {
	ProcessDocument(ctx context.Context, filename string, data []byte) (*report.Report, error)
}
