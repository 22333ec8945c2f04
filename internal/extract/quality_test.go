package extract

import (
	"strings"
	"testing"
)

func TestQualityScoreDeterministic(t *testing.T) {
	title := "Supreme Court rules on electoral bonds"
	text := strings.Repeat("The bench delivered a unanimous verdict. ", 20)
	body := "<p>" + text + "</p><p>" + text + "</p><p>" + text + "</p>"

	first := QualityScore(title, body, text)
	for i := 0; i < 5; i++ {
		if got := QualityScore(title, body, text); got != first {
			t.Fatalf("quality score not deterministic: %v vs %v", first, got)
		}
	}
}

func TestQualityScoreRichArticleBeatsStub(t *testing.T) {
	richText := strings.Repeat("A detailed sentence about the new policy framework. ", 20)
	richBody := "<p>" + richText + "</p><p>" + richText + "</p><p>" + richText + "</p>"
	rich := QualityScore("Government notifies the new policy framework rules", richBody, richText)

	stub := QualityScore("Brief", "<p>Short.</p>", "Short.")

	if rich <= stub {
		t.Errorf("expected rich article (%v) to outscore stub (%v)", rich, stub)
	}
}

func TestQualityScoreBounds(t *testing.T) {
	cases := []struct {
		name  string
		title string
		text  string
	}{
		{"empty", "", ""},
		{"minimal", "t", "x"},
		{"full", strings.Repeat("t", 40), strings.Repeat("A full sentence here. ", 50)},
	}

	for _, tc := range cases {
		body := "<p>" + tc.text + "</p><p>" + tc.text + "</p><p>" + tc.text + "</p>"
		got := QualityScore(tc.title, body, tc.text)
		if got < 0 || got > 1 {
			t.Errorf("%s: score %v out of [0,1]", tc.name, got)
		}
	}
}

func TestQualityScoreParagraphFallbackForPlainText(t *testing.T) {
	text := strings.Repeat("One sentence. ", 40)
	plain := text + "\n\n" + text + "\n\n" + text

	single := QualityScore("A reasonable headline here", plain, plain)
	flat := QualityScore("A reasonable headline here", text, text)

	if single <= flat {
		t.Errorf("expected multi-paragraph text (%v) to outscore flat text (%v)", single, flat)
	}
}
