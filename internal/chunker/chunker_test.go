package chunker

import (
	"reflect"
	"strings"
	"testing"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abc", 1},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 400), 100},
	}

	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%d chars) = %d, want %d", len(tt.text), got, tt.want)
		}
	}
}

func TestIsHeading(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"CHECK-IN PROCEDURES", true},
		{"  WIFI ACCESS  ", true},
		{"WI", false},                       // too short
		{strings.Repeat("A", 101), false},   // too long
		{"Check-in procedures", false},      // not upper-case
		{"2024-01-01 09:00", false},         // no letters
		{"SECTION 4: MEALS", true},
	}

	for _, tt := range tests {
		if got := isHeading(tt.line); got != tt.want {
			t.Errorf("isHeading(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("First one. Second one!  Third?\nFourth without terminator")
	want := []string{"First one.", "Second one!", "Third?", "Fourth without terminator"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitSentences() = %q, want %q", got, want)
	}
}

// sentenceBlock returns text consisting of n copies of a fixed sentence,
// one per line. Each sentence is 40 characters (10 estimated tokens).
func sentenceBlock(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("The venue gate opens at eight am daily.")
	}
	return b.String()
}

func TestChunkPages_SizeInvariant(t *testing.T) {
	pages := []PageText{{PageNumber: 1, Text: sentenceBlock(200)}}

	chunks := ChunkPages(pages)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i, c := range chunks {
		est := EstimateTokens(c.Text)
		if est > MaxChunkTokens {
			t.Errorf("chunk %d exceeds max: %d tokens", i, est)
		}
		// All chunks except the final one must meet the minimum.
		if i < len(chunks)-1 && est < MinChunkTokens {
			t.Errorf("chunk %d below min: %d tokens", i, est)
		}
	}
}

func TestChunkPages_PageLocality(t *testing.T) {
	pages := []PageText{
		{PageNumber: 1, Text: "Page one marker alpha. " + sentenceBlock(50)},
		{PageNumber: 2, Text: "Page two marker beta. " + sentenceBlock(50)},
	}

	for _, c := range ChunkPages(pages) {
		hasAlpha := strings.Contains(c.Text, "alpha")
		hasBeta := strings.Contains(c.Text, "beta")
		if hasAlpha && hasBeta {
			t.Errorf("chunk spans pages: %q", c.Text[:60])
		}
		if hasAlpha && c.PageNumber != 1 {
			t.Errorf("alpha chunk tagged page %d", c.PageNumber)
		}
		if hasBeta && c.PageNumber != 2 {
			t.Errorf("beta chunk tagged page %d", c.PageNumber)
		}
	}
}

func TestChunkPages_Deterministic(t *testing.T) {
	pages := []PageText{
		{PageNumber: 1, Text: "ARRIVAL\n" + sentenceBlock(120)},
		{PageNumber: 2, Text: sentenceBlock(30)},
	}

	first := ChunkPages(pages)
	second := ChunkPages(pages)
	if !reflect.DeepEqual(first, second) {
		t.Error("ChunkPages is not deterministic for identical input")
	}
}

func TestChunkPages_HeadingTagging(t *testing.T) {
	// Body below MaxChunkTokens so it flushes once at end of page with the
	// heading that preceded it.
	pages := []PageText{{PageNumber: 4, Text: "MEAL SCHEDULE\n" + sentenceBlock(45)}}

	chunks := ChunkPages(pages)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].SectionHeading != "MEAL SCHEDULE" {
		t.Errorf("heading = %q, want MEAL SCHEDULE", chunks[0].SectionHeading)
	}
	if chunks[0].PageNumber != 4 {
		t.Errorf("page = %d, want 4", chunks[0].PageNumber)
	}
}

func TestChunkPages_ShortPreambleBeforeHeadingDropped(t *testing.T) {
	// A short preamble (well under MinChunkTokens) followed by a heading is
	// discarded rather than emitted as an undersized chunk.
	pages := []PageText{{
		PageNumber: 1,
		Text:       "Short intro line.\nSECOND SECTION\n" + sentenceBlock(45),
	}}

	chunks := ChunkPages(pages)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if strings.Contains(chunks[0].Text, "Short intro") {
		t.Error("expected preamble before heading to be dropped")
	}
	if chunks[0].SectionHeading != "SECOND SECTION" {
		t.Errorf("heading = %q, want SECOND SECTION", chunks[0].SectionHeading)
	}
}

func TestChunkPages_MergeUndersizedTrailingText(t *testing.T) {
	// ~700-token body flushed by a heading, then a ~50-token trailer on the
	// same page. The trailer must merge into the previous chunk instead of
	// becoming its own undersized chunk.
	body := strings.Repeat("Late checkout requests go to the front desk. ", 62) // ~2790 chars, ~698 tokens
	trailer := strings.Repeat("Quiet hours start at ten pm. ", 7)               // ~203 chars, ~51 tokens

	pages := []PageText{{
		PageNumber: 2,
		Text:       body + "\nQUIET HOURS\n" + trailer,
	}}

	chunks := ChunkPages(pages)
	if len(chunks) != 1 {
		t.Fatalf("expected merged single chunk, got %d", len(chunks))
	}

	merged := chunks[0]
	if !strings.Contains(merged.Text, "Late checkout") || !strings.Contains(merged.Text, "Quiet hours") {
		t.Error("expected merged chunk to contain both body and trailer")
	}
	if est := EstimateTokens(merged.Text); est > MaxChunkTokens {
		t.Errorf("merged chunk exceeds max: %d tokens", est)
	}
}

func TestChunkPages_UndersizedFinalChunkOnFreshPage(t *testing.T) {
	// A page with only a little text still produces a chunk; there is no
	// previous same-page chunk to merge into.
	pages := []PageText{{PageNumber: 9, Text: "Lost keys incur a fee."}}

	chunks := ChunkPages(pages)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "Lost keys incur a fee." {
		t.Errorf("text = %q", chunks[0].Text)
	}
}

func TestChunkPages_EmptyInput(t *testing.T) {
	if got := ChunkPages(nil); len(got) != 0 {
		t.Errorf("ChunkPages(nil) = %d chunks, want 0", len(got))
	}
	if got := ChunkPages([]PageText{{PageNumber: 1, Text: "   \n  "}}); len(got) != 0 {
		t.Errorf("blank page produced %d chunks, want 0", len(got))
	}
}
