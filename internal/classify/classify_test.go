package classify

import (
	"testing"

	"coursecast/internal/config"
	"coursecast/internal/models"
)

func classifier(t *testing.T, yaml string) *Classifier {
	t.Helper()
	cfg, err := config.Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	return New(cfg)
}

func pdf(name string, folder ...string) models.FileRecord {
	return models.FileRecord{ID: name, Name: name, FolderPath: folder, MIMEType: "application/pdf"}
}

func TestKindPriorityOrder(t *testing.T) {
	c := classifier(t, "{}")

	cases := []struct {
		name     string
		mimeType string
		folder   string
		want     models.Kind
	}{
		{"W4 Alle kilder.mp3", "audio/mpeg", "W4", models.KindWeeklyOverview},
		{"W4 All sources [Brief].mp3", "audio/mpeg", "W4", models.KindWeeklyOverview},
		{"W4 [Brief] Ugens overblik.mp3", "audio/mpeg", "W4", models.KindBrief},
		{"W4 Raggatt [Quiz-Mellem].html", "text/html", "W4", models.KindQuiz},
		{"W4 Raggatt (oplæst).mp3", "audio/mpeg", "W4", models.KindTTSReading},
		{"W4 Raggatt.mp3", "audio/mpeg", "W4 TTS output", models.KindTTSReading},
		{"W4 Raggatt (2006).pdf", "application/pdf", "W4", models.KindReading},
		{"W4 Raggatt.mp3", "audio/mpeg", "W4", models.KindReading},
		{"notes.txt", "text/plain", "W4", models.KindOther},
	}
	for _, tc := range cases {
		r := models.FileRecord{ID: tc.name, Name: tc.name, FolderPath: []string{tc.folder}, MIMEType: tc.mimeType}
		got := c.Classify(r, nil)
		if got.Kind != tc.want {
			t.Fatalf("%s: kind = %s, want %s", tc.name, got.Kind, tc.want)
		}
	}
}

func TestGroupKeyExtraction(t *testing.T) {
	cases := []struct {
		name   string
		folder []string
		want   string
	}{
		{"W4 Raggatt.pdf", nil, "W04"},
		{"W04L2 slides.pdf", nil, "W04L2"},
		{"w7 l1 intro.pdf", nil, "W07L1"},
		{"W7L1 X Raggatt (2006).pdf", nil, "W07L1"},
		{"Raggatt.pdf", []string{"Semester", "W12 Identity"}, "W12"},
		{"Raggatt.pdf", []string{"W3entity"}, ""},
		{"Raggatt.pdf", []string{"Diverse"}, ""},
	}
	for _, tc := range cases {
		r := models.FileRecord{Name: tc.name, FolderPath: tc.folder}
		if got := GroupKey(r); got != tc.want {
			t.Fatalf("%s (%v): group key = %q, want %q", tc.name, tc.folder, got, tc.want)
		}
	}
}

func TestGroupKeyPrefersNearestAncestor(t *testing.T) {
	r := models.FileRecord{
		Name:       "Raggatt.pdf",
		FolderPath: []string{"W1 Intro", "W4 The Self"},
	}
	if got := GroupKey(r); got != "W04" {
		t.Fatalf("nearest ancestor should win, got %q", got)
	}
}

func TestParseGroupKey(t *testing.T) {
	week, lecture, ok := ParseGroupKey("W04L2")
	if !ok || week != 4 || lecture != 2 {
		t.Fatalf("ParseGroupKey(W04L2) = %d %d %t", week, lecture, ok)
	}
	if _, _, ok := ParseGroupKey(""); ok {
		t.Fatalf("empty key should not parse")
	}
}

func TestStrictImportance(t *testing.T) {
	c := classifier(t, "important_text_mode: strict")

	important := c.Classify(pdf("W7L1 X Raggatt (2006).pdf", "W7"), nil)
	if !important.Important {
		t.Fatalf("marker after leading group token should flag importance")
	}

	starred := pdf("Raggatt (2006) important.pdf", "W7L1 Personality")
	starred.Starred = true
	if got := c.Classify(starred, nil); got.Important {
		t.Fatalf("strict mode must ignore the starred flag")
	}

	midName := c.Classify(pdf("Raggatt W7L1 X (2006).pdf", "W7"), nil)
	if midName.Important {
		t.Fatalf("marker must follow a token at the start of the name")
	}
}

func TestStrictImportanceDemotesOnRename(t *testing.T) {
	c := classifier(t, "important_text_mode: strict")

	// Renamed to drop the rendered prefix and without an X marker: the
	// flag must not be reconstructed from anywhere else.
	renamed := c.Classify(pdf("W7L1 Raggatt (2006).pdf", "W7"), nil)
	if renamed.Important {
		t.Fatalf("rename without marker must demote importance")
	}
}

func TestBroadImportance(t *testing.T) {
	c := classifier(t, `
important_text_mode: broad
important_keywords: [pensum]
`)

	starred := pdf("Raggatt (2006).pdf", "W7")
	starred.Starred = true
	if got := c.Classify(starred, nil); !got.Important {
		t.Fatalf("broad mode should honor the starred flag")
	}

	keyword := c.Classify(pdf("Raggatt (2006).pdf", "Pensum uge 7"), nil)
	if !keyword.Important {
		t.Fatalf("broad mode should honor ancestor keyword match")
	}

	no := false
	overridden := pdf("Raggatt (2006).pdf", "W7")
	overridden.Starred = true
	if got := c.Classify(overridden, &no); got.Important {
		t.Fatalf("explicit override should win in broad mode")
	}
}

func TestRenderedPrefixAlwaysImportant(t *testing.T) {
	for _, mode := range []string{"strict", "broad"} {
		c := classifier(t, "important_text_mode: "+mode)
		got := c.Classify(pdf("★ Raggatt (2006).pdf", "W7"), nil)
		if !got.Important {
			t.Fatalf("%s: rendered prefix must always win", mode)
		}
	}
}

func TestQuizDifficultyFromTag(t *testing.T) {
	c := classifier(t, "{}")
	cases := []struct {
		name string
		want models.QuizDifficulty
	}{
		{"W4 [Quiz-Let].html", models.QuizEasy},
		{"W4 [Quiz-Mellem].html", models.QuizMedium},
		{"W4 [Quiz-Svær].html", models.QuizHard},
		{"W4 [Quiz hard].html", models.QuizHard},
		{"W4 [Quiz].html", models.QuizMedium},
	}
	for _, tc := range cases {
		r := models.FileRecord{Name: tc.name, MIMEType: "text/html"}
		got := c.Classify(r, nil)
		if got.Kind != models.KindQuiz {
			t.Fatalf("%s: expected quiz kind, got %s", tc.name, got.Kind)
		}
		if got.QuizDifficulty != tc.want {
			t.Fatalf("%s: difficulty = %s, want %s", tc.name, got.QuizDifficulty, tc.want)
		}
	}
}

func TestUnclassifiableFileKeepsEmptyGroup(t *testing.T) {
	c := classifier(t, "{}")
	got := c.Classify(models.FileRecord{Name: "notes.txt", MIMEType: "text/plain"}, nil)
	if got.Kind != models.KindOther || got.GroupKey != "" || got.Important {
		t.Fatalf("unexpected classification %+v", got)
	}
}
