package summarizer

import (
	"strings"
	"testing"
)

func TestSummarizeKeepsOriginalOrder(t *testing.T) {
	text := "Jerry meets Newman in the hallway. The weather is mild. " +
		"Newman steals the mail from Jerry. Jerry confronts Newman about the mail. A bird sings."
	got, err := NewFrequencySummarizer().Summarize(text, 2)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	first := strings.Index(got, "Newman steals")
	second := strings.Index(got, "Jerry confronts")
	if first < 0 || second < 0 || first > second {
		t.Errorf("unexpected summary: %q", got)
	}
	if strings.Contains(got, "bird") {
		t.Errorf("low-signal sentence selected: %q", got)
	}
}

func TestSummarizeSplitsOnLines(t *testing.T) {
	text := "JERRY: Hello\nGEORGE: Hi Jerry\nKRAMER: Hey buddy"
	got, err := NewFrequencySummarizer().Summarize(text, 10)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if got != "JERRY: Hello GEORGE: Hi Jerry KRAMER: Hey buddy" {
		t.Errorf("got %q", got)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	got, err := NewFrequencySummarizer().Summarize("   ", 3)
	if err != nil || got != "" {
		t.Errorf("got %q, %v", got, err)
	}
}
