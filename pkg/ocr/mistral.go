package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"strings"
	"time"

	"ai-slidegen-be/pkg/report"
	"ai-slidegen-be/pkg/retry"
)

const defaultOCRModel = "mistral-ocr-latest"

// markdown image references are noise once image regions are carried
// separately
var imageMarkdownRe = regexp.MustCompile(`!\[.*?\]\(.*?\)`)

// MistralClient implements Client against the Mistral OCR API:
// upload, signed URL, then document processing.
type MistralClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	policy  retry.Policy
}

var _ Client = &MistralClient{}

func NewMistralClient(apiKey, baseURL, model string) *MistralClient {
	if baseURL == "" {
		baseURL = "https://api.mistral.ai/v1"
	}
	if model == "" {
		model = defaultOCRModel
	}
	return &MistralClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 300 * time.Second},
		policy:  retry.DefaultPolicy,
	}
}

type uploadResponse struct {
	ID string `json:"id"`
}

type signedURLResponse struct {
	URL string `json:"url"`
}

type ocrImage struct {
	ID           string `json:"id"`
	TopLeftX     int    `json:"top_left_x"`
	TopLeftY     int    `json:"top_left_y"`
	BottomRightX int    `json:"bottom_right_x"`
	BottomRightY int    `json:"bottom_right_y"`
	ImageBase64  string `json:"image_base64"`
}

type ocrPage struct {
	Index    int        `json:"index"`
	Markdown string     `json:"markdown"`
	Images   []ocrImage `json:"images"`
}

type ocrResponse struct {
	Pages []ocrPage `json:"pages"`
}

// ProcessDocument runs the three-step OCR flow and maps the result to the
// pipeline's report structure. Failures here are structural, the caller
// decides whether the run dies.
func (c *MistralClient) ProcessDocument(ctx context.Context, filename string, data []byte) (*report.Report, error) {
	fileID, err := retry.Do(ctx, c.policy, func() (string, error) {
		return c.uploadFile(ctx, filename, data)
	})
	if err != nil {
		return nil, fmt.Errorf("ocr upload: %w", err)
	}

	signedURL, err := retry.Do(ctx, c.policy, func() (string, error) {
		return c.signedURL(ctx, fileID)
	})
	if err != nil {
		return nil, fmt.Errorf("ocr signed url: %w", err)
	}

	ocrResult, err := retry.Do(ctx, c.policy, func() (*ocrResponse, error) {
		return c.processOCR(ctx, signedURL)
	})
	if err != nil {
		return nil, fmt.Errorf("ocr process: %w", err)
	}

	return mapToReport(filename, ocrResult), nil
}

func (c *MistralClient) uploadFile(ctx context.Context, filename string, data []byte) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("purpose", "ocr"); err != nil {
		return "", err
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/files", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var uploaded uploadResponse
	if err := c.doJSON(req, &uploaded); err != nil {
		return "", err
	}
	if uploaded.ID == "" {
		return "", fmt.Errorf("upload response missing file id")
	}
	return uploaded.ID, nil
}

func (c *MistralClient) signedURL(ctx context.Context, fileID string) (string, error) {
	url := fmt.Sprintf("%s/files/%s/url?expiry=1", c.baseURL, fileID)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var signed signedURLResponse
	if err := c.doJSON(req, &signed); err != nil {
		return "", err
	}
	return signed.URL, nil
}

func (c *MistralClient) processOCR(ctx context.Context, documentURL string) (*ocrResponse, error) {
	payload := map[string]interface{}{
		"model": c.model,
		"document": map[string]string{
			"type":         "document_url",
			"document_url": documentURL,
		},
		"include_image_base64": true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/ocr", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var result ocrResponse
	if err := c.doJSON(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *MistralClient) doJSON(req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// client errors will not heal on retry
		err := fmt.Errorf("mistral ocr error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return retry.Permanent(err)
		}
		return err
	}

	return json.Unmarshal(bodyBytes, out)
}

func mapToReport(filename string, ocrResult *ocrResponse) *report.Report {
	rep := &report.Report{
		File:        filename,
		ProcessedAt: time.Now().Format("2006-01-02 15:04:05"),
	}

	for pageIdx, page := range ocrResult.Pages {
		text := imageMarkdownRe.ReplaceAllString(page.Markdown, "")

		p := report.Page{
			Number: pageIdx + 1,
			Text:   strings.TrimSpace(text),
			Images: make([]report.ImageRef, 0, len(page.Images)),
		}

		for imgIdx, img := range page.Images {
			p.Images = append(p.Images, report.ImageRef{
				ID: fmt.Sprintf("img_%d_%d", pageIdx+1, imgIdx+1),
				Position: report.ImagePosition{
					TopLeftX:     img.TopLeftX,
					TopLeftY:     img.TopLeftY,
					BottomRightX: img.BottomRightX,
					BottomRightY: img.BottomRightY,
				},
				Base64: img.ImageBase64,
			})
		}

		rep.Pages = append(rep.Pages, p)
	}

	return rep
}
