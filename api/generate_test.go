package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/edgecity/opsmail/internal/log"
	"github.com/edgecity/opsmail/internal/store"
)

func postGenerate(t *testing.T, h *GenerateHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestGenerateHappyPath(t *testing.T) {
	q := &stubQueries{}
	h := NewGenerateHandler(&stubPipeline{result: okResult()}, q, log.NewNop())

	rec := postGenerate(t, h, `{"raw_email":"When is check-in?","subject":"Check-in","from_address":"guest@example.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp generateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.SuggestedReply != "Check-in opens at 2 PM." {
		t.Errorf("suggested reply = %q", resp.SuggestedReply)
	}
	if resp.Confidence != "medium" {
		t.Errorf("confidence = %q, want medium", resp.Confidence)
	}

	if len(q.inserted) != 1 {
		t.Fatalf("inserted %d queries, want 1", len(q.inserted))
	}
	record := q.inserted[0]
	if record.Source != store.SourceManual {
		t.Errorf("source = %q, want %q", record.Source, store.SourceManual)
	}
	if record.Subject == nil || *record.Subject != "Check-in" {
		t.Errorf("subject = %v, want Check-in", record.Subject)
	}
}

func TestGenerateMissingEmail(t *testing.T) {
	h := NewGenerateHandler(&stubPipeline{result: okResult()}, &stubQueries{}, log.NewNop())

	rec := postGenerate(t, h, `{"raw_email":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestGeneratePipelineFailure(t *testing.T) {
	h := NewGenerateHandler(&stubPipeline{err: errors.New("backend down")}, &stubQueries{}, log.NewNop())

	rec := postGenerate(t, h, `{"raw_email":"When is check-in?"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestGenerateInvalidJSON(t *testing.T) {
	h := NewGenerateHandler(&stubPipeline{result: okResult()}, &stubQueries{}, log.NewNop())

	rec := postGenerate(t, h, `not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
