package schedule

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"coursecast/internal/models"
	"coursecast/internal/overrides"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time %s: %v", value, err)
	}
	return ts
}

func inFolder(id, name, folder string, modified time.Time) models.FileRecord {
	return models.FileRecord{
		ID:         id,
		Name:       name,
		FolderPath: []string{folder},
		ModifiedAt: modified,
	}
}

func TestAutoSpecSpacing(t *testing.T) {
	base := mustTime(t, "2025-02-03T10:00:00+01:00")
	s := New([]Rule{{Alias: "w4", Base: base, IncrementMinutes: 120}}, nil)

	mod := mustTime(t, "2025-01-01T00:00:00Z")
	records := []models.FileRecord{
		inFolder("c", "Carver (2012).mp3", "W4 The Self", mod),
		inFolder("a", "Abel (2019).mp3", "W4 The Self", mod),
		inFolder("b", "Brown (2001).mp3", "W4 The Self", mod),
	}

	got := s.Assign(records)
	if !got["a"].Equal(base) {
		t.Fatalf("first by name should publish at base, got %v", got["a"])
	}
	if !got["b"].Equal(base.Add(2 * time.Hour)) {
		t.Fatalf("second by name should publish at base+2h, got %v", got["b"])
	}
	if !got["c"].Equal(base.Add(4 * time.Hour)) {
		t.Fatalf("third by name should publish at base+4h, got %v", got["c"])
	}
}

func TestZeroIncrementCollisionsAllowed(t *testing.T) {
	base := mustTime(t, "2025-02-03T10:00:00+01:00")
	s := New([]Rule{{Alias: "w4", Base: base}}, nil)

	mod := mustTime(t, "2025-01-01T00:00:00Z")
	got := s.Assign([]models.FileRecord{
		inFolder("a", "Abel.mp3", "W4", mod),
		inFolder("b", "Brown.mp3", "W4", mod),
	})
	if !got["a"].Equal(base) || !got["b"].Equal(base) {
		t.Fatalf("zero increment should assign identical timestamps: %v %v", got["a"], got["b"])
	}
}

func TestLongestAliasWins(t *testing.T) {
	base1 := mustTime(t, "2025-02-03T10:00:00+01:00")
	base10 := mustTime(t, "2025-04-07T10:00:00+02:00")
	s := New([]Rule{
		{Alias: "w1", Base: base1},
		{Alias: "w10", Base: base10},
	}, nil)

	idx, ok := s.MatchRule("W10 Memory")
	if !ok || idx != 1 {
		t.Fatalf("w10 must not be shadowed by w1, got idx=%d ok=%t", idx, ok)
	}
	idx, ok = s.MatchRule("W1 Intro")
	if !ok || idx != 0 {
		t.Fatalf("expected w1 for W1 Intro, got idx=%d ok=%t", idx, ok)
	}
}

func TestEqualAliasLengthDeclarationOrderWins(t *testing.T) {
	base := mustTime(t, "2025-02-03T10:00:00+01:00")
	s := New([]Rule{
		{Alias: "w4", Base: base},
		{Alias: "lf", Base: base.Add(time.Hour)},
	}, nil)

	idx, ok := s.MatchRule("w4 lf mixed")
	if !ok || idx != 0 {
		t.Fatalf("declaration order should break equal-length ties, got idx=%d", idx)
	}
}

func TestExplicitOverrideWinsOverAutoSpec(t *testing.T) {
	base := mustTime(t, "2025-02-03T10:00:00+01:00")
	want := mustTime(t, "2025-06-01T08:00:00+02:00")
	ovr := &overrides.Document{
		ByID: map[string]overrides.Entry{"a": {PublishedAt: &want}},
	}
	s := New([]Rule{{Alias: "w4", Base: base, IncrementMinutes: 60}}, ovr)

	mod := mustTime(t, "2025-01-01T00:00:00Z")
	got := s.Assign([]models.FileRecord{
		inFolder("a", "Abel.mp3", "W4", mod),
		inFolder("b", "Brown.mp3", "W4", mod),
	})
	if !got["a"].Equal(want) {
		t.Fatalf("override should win, got %v", got["a"])
	}
	// The overridden file does not consume a rank: b is first in the rule.
	if !got["b"].Equal(base) {
		t.Fatalf("remaining file should take rank zero, got %v", got["b"])
	}
}

func TestNativeModifiedTimeFallback(t *testing.T) {
	mod := mustTime(t, "2024-11-05T12:30:00Z")
	s := New(nil, nil)
	got := s.Assign([]models.FileRecord{inFolder("a", "Abel.mp3", "Diverse", mod)})
	if !got["a"].Equal(mod) {
		t.Fatalf("expected native modified time, got %v", got["a"])
	}
}

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "autospec.yaml")
	doc := `
- alias: w4
  base: 2025-02-03T10:00:00+01:00
  increment_minutes: 120
- alias: w5
  base: 2025-02-10T10:00:00+01:00
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if len(rules) != 2 || rules[0].Alias != "w4" || rules[0].IncrementMinutes != 120 {
		t.Fatalf("unexpected rules %+v", rules)
	}
	if rules[1].IncrementMinutes != 0 {
		t.Fatalf("missing increment should default to zero")
	}
}

func TestLoadRulesValidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "autospec.yaml")

	cases := []string{
		"- alias: \"\"\n  base: 2025-02-03T10:00:00+01:00\n",
		"- alias: w4\n",
		"- alias: w4\n  base: 2025-02-03T10:00:00+01:00\n  increment_minutes: -5\n",
	}
	for i, doc := range cases {
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := LoadRules(path); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}
