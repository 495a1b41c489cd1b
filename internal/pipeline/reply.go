package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/edgecity/opsmail/internal/llm"
	"github.com/edgecity/opsmail/internal/log"
)

// Reply is a drafted answer ready for human review.
type Reply struct {
	SubjectLine    string
	SuggestedReply string
	Confidence     string
	Conflicts      []string
}

// Composer drafts replies from retrieved evidence.
type Composer struct {
	generator llm.Generator
	logger    log.Logger
}

// NewComposer creates a Composer.
func NewComposer(generator llm.Generator, logger log.Logger) *Composer {
	return &Composer{generator: generator, logger: logger}
}

const replySystemPrompt = `You draft email replies to event participants on behalf of the operations team.

Rules:
- Answer only from the reference material provided. If it does not cover the question, say so plainly and suggest contacting the team directly.
- VERIFIED FACTS take precedence over DOCUMENT EXCERPTS whenever they disagree.
- The reply body must not mention sources, citations, document names, or page numbers. Those belong only in the analysis section.
- Write plain prose. No markdown, no bullet lists in the reply body.

Respond in exactly this format:

--- ANALYSIS ---
Confidence: <High|Medium|Low>
Conflicts: <each contradiction on its own line, or None>

--- SUBJECT LINE ---
<subject line for the reply email>

--- SUGGESTED REPLY ---
<the full reply body>

--- IF UNSURE ---
<what a human reviewer should double-check before sending, or None>`

// Compose asks the generation service for a draft reply and parses its
// sectioned output. A failed generation call is fatal; missing sections
// in the output fall back to safe defaults.
func (c *Composer) Compose(ctx context.Context, rawEmail string, evidence *Evidence, verdict Verdict) (*Reply, error) {
	raw, err := c.generator.Generate(ctx, replySystemPrompt, buildReplyPrompt(rawEmail, evidence, verdict))
	if err != nil {
		return nil, fmt.Errorf("reply generation: %w", err)
	}

	reply := parseReply(raw, verdict.Conflicts)
	if reply.SuggestedReply == "" {
		c.logger.Warn("reply output missing suggested reply section")
	}
	return reply, nil
}

func buildReplyPrompt(rawEmail string, evidence *Evidence, verdict Verdict) string {
	var b strings.Builder

	b.WriteString("PARTICIPANT EMAIL:\n")
	b.WriteString(rawEmail)
	b.WriteString("\n\nVERIFIED FACTS:\n")
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
	for i, ch := range evidence.Chunks {
		fmt.Fprintf(&b, "[%d] (%s", i+1, ch.SourceType)
		if ch.PageNumber != nil {
			fmt.Fprintf(&b, ", page %d", *ch.PageNumber)
		}
		if ch.SectionHeading != nil && *ch.SectionHeading != "" {
			fmt.Fprintf(&b, ", section: %s", *ch.SectionHeading)
		}
		b.WriteString(")\n")
		b.WriteString(ch.Text)
		b.WriteString("\n\n")
	}

	if verdict.HasConflict {
		b.WriteString("CONFLICT ALERT - the reference material contradicts itself:\n")
		for _, conflict := range verdict.Conflicts {
			fmt.Fprintf(&b, "- %s\n", conflict)
		}
		b.WriteString("Acknowledge the uncertainty in the reply rather than picking a side.\n")
	}

	return b.String()
}
