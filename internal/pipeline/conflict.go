package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/edgecity/opsmail/internal/llm"
	"github.com/edgecity/opsmail/internal/log"
	"github.com/edgecity/opsmail/internal/store"
)

// Confidence levels attached to a draft reply.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Verdict is the outcome of conflict detection over retrieved evidence.
type Verdict struct {
	HasConflict bool
	Conflicts   []string
	Confidence  string
}

// Detector checks retrieved evidence for contradictions.
type Detector struct {
	generator llm.Generator
	logger    log.Logger
}

// NewDetector creates a Detector.
func NewDetector(generator llm.Generator, logger log.Logger) *Detector {
	return &Detector{generator: generator, logger: logger}
}

const conflictSystemPrompt = `You are a fact-checking assistant. You compare pieces of reference material and report contradictions.
Respond with JSON only, in this exact shape:
{"conflicts": ["description of each contradiction"], "hasConflict": true}
If nothing contradicts, respond: {"conflicts": [], "hasConflict": false}`

// Detect compares the retrieved facts and chunks and reports any
// contradictions. Unparseable model output is logged and treated as
// "no conflicts found"; a failed generation call is fatal and
// propagates to the caller.
//
// The confidence level follows from the evidence: conflicting evidence
// is low, verified facts without conflicts are high, chunk-only
// evidence is medium. No evidence at all is low.
func (d *Detector) Detect(ctx context.Context, evidence *Evidence) (Verdict, error) {
	if evidence.Empty() {
		return Verdict{HasConflict: false, Conflicts: []string{}, Confidence: ConfidenceLow}, nil
	}

	raw, err := d.generator.Generate(ctx, conflictSystemPrompt, buildConflictPrompt(evidence))
	if err != nil {
		return Verdict{}, fmt.Errorf("conflict detection: %w", err)
	}

	var parsed struct {
		Conflicts   []string `json:"conflicts"`
		HasConflict bool     `json:"hasConflict"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &parsed); err != nil {
		d.logger.Warn("conflict detection returned unparseable output, assuming no conflicts", "error", err)
		return d.verdict(false, nil, evidence), nil
	}

	return d.verdict(parsed.HasConflict, parsed.Conflicts, evidence), nil
}

func (d *Detector) verdict(hasConflict bool, conflicts []string, evidence *Evidence) Verdict {
	if conflicts == nil {
		conflicts = []string{}
	}

	confidence := ConfidenceMedium
	switch {
	case hasConflict:
		confidence = ConfidenceLow
	case len(evidence.Facts) > 0:
		confidence = ConfidenceHigh
	}

	return Verdict{HasConflict: hasConflict, Conflicts: conflicts, Confidence: confidence}
}

func buildConflictPrompt(evidence *Evidence) string {
	var b strings.Builder

	b.WriteString("VERIFIED FACTS:\n")
	if len(evidence.Facts) == 0 {
		b.WriteString("(none)\n")
	}
	for _, f := range evidence.Facts {
		fmt.Fprintf(&b, "- [%s] %s: %s (confidence: %s%s)\n",
			f.Category, f.Key, f.Value, f.Confidence, factProvenance(f))
	}

	b.WriteString("\nDOCUMENT EXCERPTS:\n")
	if len(evidence.Chunks) == 0 {
		b.WriteString("(none)\n")
	}
	for i, c := range evidence.Chunks {
		fmt.Fprintf(&b, "--- Excerpt %d (%s", i+1, c.SourceType)
		if c.PageNumber != nil {
			fmt.Fprintf(&b, ", page %d", *c.PageNumber)
		}
		b.WriteString(") ---\n")
		b.WriteString(c.Text)
		b.WriteString("\n")
	}

	b.WriteString("\nCompare the verified facts against the document excerpts, and the excerpts against each other. List every direct contradiction.")
	return b.String()
}

func factProvenance(f store.StructuredFact) string {
	var b strings.Builder
	if f.SourceDocument != nil {
		fmt.Fprintf(&b, ", source: %s", *f.SourceDocument)
	}
	if f.PageNumber != nil {
		fmt.Fprintf(&b, ", page %d", *f.PageNumber)
	}
	return b.String()
}

// stripCodeFences removes a surrounding Markdown code fence from model
// output, if present.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
