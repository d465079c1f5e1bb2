package filter

import (
	"testing"

	"coursecast/internal/config"
	"coursecast/internal/models"
)

func record(name, folder, mimeType string) models.FileRecord {
	return models.FileRecord{
		ID:         folder + "/" + name,
		Name:       name,
		FolderPath: []string{folder},
		MIMEType:   mimeType,
	}
}

func engine(t *testing.T, yaml string) *Engine {
	t.Helper()
	cfg, err := config.Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	return New(cfg)
}

func TestMIMEPrefixSemantics(t *testing.T) {
	e := engine(t, "allowed_mime_types: [\"audio/\", \"video/mp4\"]")

	cases := []struct {
		mimeType string
		want     bool
	}{
		{"audio/mpeg", true},
		{"audio/wav", true},
		{"video/mp4", true},
		{"video/webm", false},
		{"text/html", false},
	}
	for _, tc := range cases {
		if got := e.Keep(record("a.bin", "W1", tc.mimeType)); got != tc.want {
			t.Fatalf("mime %s: keep = %t, want %t", tc.mimeType, got, tc.want)
		}
	}
}

func TestEmptyAllowlistDisablesMIMEFiltering(t *testing.T) {
	e := engine(t, "{}")
	if !e.Keep(record("a.bin", "W1", "application/zip")) {
		t.Fatalf("empty allow-list should keep every MIME type")
	}
}

func TestExcludeDominance(t *testing.T) {
	e := engine(t, `
filters:
  include:
    - name_contains: raggatt
  exclude:
    - name_contains: draft
`)

	if !e.Keep(record("Raggatt (2006).pdf", "W7", "application/pdf")) {
		t.Fatalf("include match should survive")
	}
	if e.Keep(record("Raggatt draft.pdf", "W7", "application/pdf")) {
		t.Fatalf("exclude must win over include")
	}
	if e.Keep(record("Other.pdf", "W7", "application/pdf")) {
		t.Fatalf("non-empty include group requires at least one include match")
	}
}

func TestEmptyIncludeGroupPassesEverything(t *testing.T) {
	e := engine(t, `
filters:
  exclude:
    - name_contains: skip
`)
	if !e.Keep(record("Anything.pdf", "W1", "application/pdf")) {
		t.Fatalf("record with no exclude match should pass an empty include group")
	}
	if e.Keep(record("skip me.pdf", "W1", "application/pdf")) {
		t.Fatalf("exclude rule should drop the record")
	}
}

func TestFolderMatchersUseJoinedSegments(t *testing.T) {
	e := engine(t, `
filters:
  exclude:
    - folder_contains: arkiv/old
`)
	r := models.FileRecord{
		Name:       "a.mp3",
		FolderPath: []string{"Arkiv", "old"},
		MIMEType:   "audio/mpeg",
	}
	if e.Keep(r) {
		t.Fatalf("folder_contains should match across joined segments, case-insensitively")
	}
}

func TestRegexMatchers(t *testing.T) {
	e := engine(t, `
filters:
  include:
    - name_regex: "^W\\d+"
  exclude:
    - folder_regex: "(?i)privat"
`)
	if !e.Keep(record("W4 notes.pdf", "W4 The Self", "application/pdf")) {
		t.Fatalf("name_regex include should match")
	}
	if e.Keep(record("notes.pdf", "W4 The Self", "application/pdf")) {
		t.Fatalf("name_regex include should reject non-matching names")
	}
	if e.Keep(record("W4 notes.pdf", "Privat", "application/pdf")) {
		t.Fatalf("folder_regex exclude should drop the record")
	}
}

func TestApplyPreservesOrderAndInput(t *testing.T) {
	e := engine(t, "allowed_mime_types: [\"audio/\"]")
	in := []models.FileRecord{
		record("b.mp3", "W1", "audio/mpeg"),
		record("a.pdf", "W1", "application/pdf"),
		record("a.mp3", "W1", "audio/mpeg"),
	}
	out := e.Apply(in)
	if len(out) != 2 || out[0].Name != "b.mp3" || out[1].Name != "a.mp3" {
		t.Fatalf("unexpected filter output: %+v", out)
	}
	if len(in) != 3 {
		t.Fatalf("input slice must not be modified")
	}
}
