package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-slidegen-be/pkg/retry"
)

func TestProcessDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == "POST" && r.URL.Path == "/files":
			json.NewEncoder(w).Encode(map[string]string{"id": "file-123"})
		case r.Method == "GET" && r.URL.Path == "/files/file-123/url":
			json.NewEncoder(w).Encode(map[string]string{"url": "https://signed.example/doc"})
		case r.Method == "POST" && r.URL.Path == "/ocr":
			json.NewEncoder(w).Encode(ocrResponse{Pages: []ocrPage{
				{
					Index:    0,
					Markdown: "# Exam Results\n![img-0](img-0.png)\nFindings here.",
					Images:   []ocrImage{{ID: "img-0", TopLeftX: 10, TopLeftY: 20, BottomRightX: 110, BottomRightY: 220}},
				},
				{Index: 1, Markdown: "Second page text."},
			}})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewMistralClient("test-key", srv.URL, "")

	rep, err := c.ProcessDocument(context.Background(), "exam.pdf", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("ProcessDocument error: %v", err)
	}

	if rep.File != "exam.pdf" {
		t.Errorf("File = %q, want exam.pdf", rep.File)
	}
	if len(rep.Pages) != 2 {
		t.Fatalf("len(Pages) = %d, want 2", len(rep.Pages))
	}

	p1 := rep.Pages[0]
	if p1.Number != 1 {
		t.Errorf("Pages[0].Number = %d, want 1", p1.Number)
	}
	if p1.Text != "# Exam Results\n\nFindings here." {
		t.Errorf("Pages[0].Text = %q, image markdown should be stripped", p1.Text)
	}
	if len(p1.Images) != 1 || p1.Images[0].ID != "img_1_1" || p1.Images[0].Position.TopLeftX != 10 {
		t.Errorf("Pages[0].Images = %+v, want mapped descriptor", p1.Images)
	}

	if rep.Pages[1].Number != 2 || rep.Pages[1].Text != "Second page text." {
		t.Errorf("Pages[1] = %+v", rep.Pages[1])
	}
}

func TestProcessDocumentClientErrorIsNotRetried(t *testing.T) {
	var uploads int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uploads++
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"invalid api key"}`))
	}))
	defer srv.Close()

	c := NewMistralClient("bad-key", srv.URL, "")
	c.policy = retry.Policy{MaxTries: 3, InitialInterval: time.Millisecond}

	_, err := c.ProcessDocument(context.Background(), "exam.pdf", []byte("%PDF-1.4"))
	if err == nil {
		t.Fatal("expected error on 401")
	}
	if uploads != 1 {
		t.Errorf("uploads = %d, want 1 (4xx must not be retried)", uploads)
	}
}
