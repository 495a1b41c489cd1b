package pipeline

import (
	"strings"
)

// Section delimiters in the generation service's reply output.
const (
	sectionAnalysis = "--- ANALYSIS ---"
	sectionSubject  = "--- SUBJECT LINE ---"
	sectionReply    = "--- SUGGESTED REPLY ---"
	sectionUnsure   = "--- IF UNSURE ---"
)

// fallbackSubject is used when the model output has no subject section.
const fallbackSubject = "Re: Your question"

// parseReply extracts the structured reply from the model's sectioned
// output. Missing sections fall back to defaults: medium confidence, a
// generic subject, an empty body. If the analysis section reports no
// conflicts, the conflicts found during detection are carried through.
func parseReply(raw string, inputConflicts []string) *Reply {
	reply := &Reply{
		SubjectLine: fallbackSubject,
		Confidence:  ConfidenceMedium,
		Conflicts:   inputConflicts,
	}
	if reply.Conflicts == nil {
		reply.Conflicts = []string{}
	}

	if analysis, ok := extractSection(raw, sectionAnalysis); ok {
		if conf, ok := extractField(analysis, "Confidence:"); ok {
			switch strings.ToLower(conf) {
			case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
				reply.Confidence = strings.ToLower(conf)
			}
		}
		if conflicts := parseConflictLines(analysis); conflicts != nil {
			reply.Conflicts = conflicts
		}
	}

	if subject, ok := extractSection(raw, sectionSubject); ok && subject != "" {
		reply.SubjectLine = firstLine(subject)
	}
	if body, ok := extractSection(raw, sectionReply); ok {
		reply.SuggestedReply = body
	}

	return reply
}

// extractSection returns the text between a delimiter and the next
// delimiter (or end of input), trimmed.
func extractSection(raw, delimiter string) (string, bool) {
	start := strings.Index(raw, delimiter)
	if start < 0 {
		return "", false
	}
	body := raw[start+len(delimiter):]

	end := len(body)
	for _, next := range []string{sectionAnalysis, sectionSubject, sectionReply, sectionUnsure} {
		if idx := strings.Index(body, next); idx >= 0 && idx < end {
			end = idx
		}
	}
	return strings.TrimSpace(body[:end]), true
}

// extractField finds a "Label: value" line and returns the value.
func extractField(section, label string) (string, bool) {
	for line := range strings.Lines(section) {
		trimmed := strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(trimmed, label); ok {
			return strings.TrimSpace(rest), true
		}
	}
	return "", false
}

// parseConflictLines parses the "Conflicts:" value from the analysis
// section. It returns nil when the value is absent, empty or "none",
// meaning the caller should keep the conflicts it already has.
func parseConflictLines(analysis string) []string {
	idx := strings.Index(analysis, "Conflicts:")
	if idx < 0 {
		return nil
	}
	value := strings.TrimSpace(analysis[idx+len("Conflicts:"):])
	if value == "" || strings.EqualFold(firstLine(value), "none") {
		return nil
	}

	var conflicts []string
	for line := range strings.Lines(value) {
		trimmed := strings.TrimSpace(line)
		trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "-"))
		trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "•"))
		if trimmed != "" {
			conflicts = append(conflicts, trimmed)
		}
	}
	return conflicts
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
