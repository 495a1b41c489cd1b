package pdf

import (
	"testing"

	pdflib "github.com/ledongthuc/pdf"
)

func TestAssembleLines(t *testing.T) {
	tests := []struct {
		name      string
		fragments []pdflib.Text
		want      string
	}{
		{
			name:      "empty",
			fragments: nil,
			want:      "",
		},
		{
			name: "single line from adjacent fragments",
			fragments: []pdflib.Text{
				{S: "Check-in ", Y: 700},
				{S: "time is ", Y: 700},
				{S: "3 PM", Y: 700.5},
			},
			want: "Check-in time is 3 PM",
		},
		{
			name: "vertical gap starts a new line",
			fragments: []pdflib.Text{
				{S: "HOUSE RULES", Y: 720},
				{S: "No smoking indoors.", Y: 700},
				{S: "Quiet hours after 10 PM.", Y: 685},
			},
			want: "HOUSE RULES\nNo smoking indoors.\nQuiet hours after 10 PM.",
		},
		{
			name: "whitespace-only fragments dropped",
			fragments: []pdflib.Text{
				{S: "   ", Y: 720},
				{S: "Parking is on level 2.", Y: 700},
				{S: " ", Y: 680},
			},
			want: "Parking is on level 2.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := assembleLines(tt.fragments)
			if got != tt.want {
				t.Errorf("assembleLines() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractInvalidData(t *testing.T) {
	if _, err := Extract([]byte("not a pdf")); err == nil {
		t.Fatal("expected error for invalid PDF data")
	}
}
