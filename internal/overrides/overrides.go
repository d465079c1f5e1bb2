// Package overrides loads the episode metadata override document. Entries
// are keyed by file id or by file name and take precedence over computed
// values at the scheduler and composer boundaries.
package overrides

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"coursecast/internal/models"
)

// Entry holds the explicit per-file overrides. Nil/empty fields leave the
// computed value in place.
type Entry struct {
	Title           string            `yaml:"title,omitempty"`
	Description     string            `yaml:"description,omitempty"`
	PublishedAt     *time.Time        `yaml:"published_at,omitempty"`
	DurationSeconds *float64          `yaml:"duration_seconds,omitempty"`
	ArtworkURL      string            `yaml:"artwork_url,omitempty"`
	Important       *bool             `yaml:"important,omitempty"`
	QuizLinks       map[string]string `yaml:"quiz_links,omitempty"`
}

// Document is the full override mapping.
type Document struct {
	ByID   map[string]Entry `yaml:"by_id,omitempty"`
	ByName map[string]Entry `yaml:"by_name,omitempty"`
}

// Load reads the override document at path. An empty path yields an empty
// document.
func Load(path string) (*Document, error) {
	if path == "" {
		return &Document{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overrides: %w", err)
	}
	doc := &Document{}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parse overrides: %w", err)
	}
	return doc, nil
}

// For returns the entry for a record. An id-keyed entry wins over a
// name-keyed one.
func (d *Document) For(r models.FileRecord) (Entry, bool) {
	if e, ok := d.ByID[r.ID]; ok {
		return e, true
	}
	if e, ok := d.ByName[r.Name]; ok {
		return e, true
	}
	return Entry{}, false
}

// QuizLinkFor returns the override quiz link for a difficulty, if present.
func (e Entry) QuizLinkFor(d models.QuizDifficulty) (string, bool) {
	url, ok := e.QuizLinks[string(d)]
	return url, ok && url != ""
}
