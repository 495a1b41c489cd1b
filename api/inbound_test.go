package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/edgecity/opsmail/internal/log"
	"github.com/edgecity/opsmail/internal/pipeline"
	"github.com/edgecity/opsmail/internal/store"
)

type stubPipeline struct {
	result   *pipeline.Result
	err      error
	received []string
}

func (s *stubPipeline) Run(_ context.Context, rawEmail string) (*pipeline.Result, error) {
	s.received = append(s.received, rawEmail)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubQueries struct {
	inserted  []store.EmailQuery
	insertErr error
	reviewErr error
	query     *store.EmailQuery
	queries   []store.EmailQuery
}

func (s *stubQueries) Insert(_ context.Context, q store.EmailQuery) (uuid.UUID, error) {
	if s.insertErr != nil {
		return uuid.Nil, s.insertErr
	}
	s.inserted = append(s.inserted, q)
	return uuid.New(), nil
}

func (s *stubQueries) Review(_ context.Context, _ uuid.UUID, _ string, _, _ *string) error {
	return s.reviewErr
}

func (s *stubQueries) Get(_ context.Context, _ uuid.UUID) (*store.EmailQuery, error) {
	if s.query == nil {
		return nil, store.ErrNotFound
	}
	return s.query, nil
}

func (s *stubQueries) List(_ context.Context, _ string) ([]store.EmailQuery, error) {
	return s.queries, nil
}

func okResult() *pipeline.Result {
	return &pipeline.Result{
		Reply: &pipeline.Reply{
			SubjectLine:    "Re: Check-in time",
			SuggestedReply: "Check-in opens at 2 PM.",
			Confidence:     pipeline.ConfidenceMedium,
			Conflicts:      []string{},
		},
		SourcesUsed: []store.SourceUsed{},
	}
}

func TestStripQuotedReply(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "no quote chain",
			body: "When is check-in?",
			want: "When is check-in?",
		},
		{
			name: "quote chain removed",
			body: "Thanks!\n\nOn Mon, Aug 24, 2026 at 9:15 AM Ops Team <ops@example.com> wrote:\n> Check-in opens at 2 PM.",
			want: "Thanks!",
		},
		{
			name: "marker mid-line is kept",
			body: "She said On time arrival wrote: nothing",
			want: "She said On time arrival wrote: nothing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripQuotedReply(tt.body); got != tt.want {
				t.Errorf("StripQuotedReply(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}

func postInbound(t *testing.T, h *InboundHandler, secret, body string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodPost, "/api/inbound", strings.NewReader(body))
	if secret != "" {
		req.Header.Set("X-Webhook-Secret", secret)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestInboundRejectsBadSecret(t *testing.T) {
	h := NewInboundHandler(&stubPipeline{result: okResult()}, &stubQueries{}, "s3cret", log.NewNop())

	rec := postInbound(t, h, "wrong", `{"from":"a@b.c","subject":"hi","body":"When is check-in?"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestInboundStripsQuotesBeforePipeline(t *testing.T) {
	p := &stubPipeline{result: okResult()}
	q := &stubQueries{}
	h := NewInboundHandler(p, q, "s3cret", log.NewNop())

	body := `{"from":"guest@example.com","subject":"Re: Check-in","body":"What about parking?\nOn Mon, Aug 24 someone wrote:\n> old thread"}`
	rec := postInbound(t, h, "s3cret", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	if len(p.received) != 1 || p.received[0] != "What about parking?" {
		t.Errorf("pipeline received %v, want the stripped body", p.received)
	}
	if len(q.inserted) != 1 {
		t.Fatalf("inserted %d queries, want 1", len(q.inserted))
	}
	if q.inserted[0].Source != store.SourceForwarded {
		t.Errorf("source = %q, want %q", q.inserted[0].Source, store.SourceForwarded)
	}
}

func TestInboundPersistenceFailureIsNonSuccess(t *testing.T) {
	q := &stubQueries{insertErr: context.DeadlineExceeded}
	h := NewInboundHandler(&stubPipeline{result: okResult()}, q, "s3cret", log.NewNop())

	rec := postInbound(t, h, "s3cret", `{"from":"a@b.c","subject":"hi","body":"When is check-in?"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestInboundEmptyBodyAfterStripping(t *testing.T) {
	h := NewInboundHandler(&stubPipeline{result: okResult()}, &stubQueries{}, "s3cret", log.NewNop())

	rec := postInbound(t, h, "s3cret", `{"from":"a@b.c","subject":"hi","body":"\nOn Monday someone wrote:\n> old"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
