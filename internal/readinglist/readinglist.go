// Package readinglist provides summary lines and key points for composed
// episode descriptions. The file-backed store memoizes its parse keyed by
// file modification time and is passed into the pipeline as a read-only
// collaborator.
package readinglist

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Entry carries the description source texts for one reading.
type Entry struct {
	Match     string   `yaml:"match"`
	Summary   []string `yaml:"summary,omitempty"`
	KeyPoints []string `yaml:"key_points,omitempty"`
}

// Store resolves the reading-list entry for a file name.
type Store interface {
	Lookup(fileName string) (Entry, bool)
}

// Empty is a Store with no entries.
type Empty struct{}

// Lookup always reports no match.
func (Empty) Lookup(string) (Entry, bool) { return Entry{}, false }

type document struct {
	Entries []Entry `yaml:"entries"`
}

// FileStore loads entries from a YAML document and reparses only when the
// file's modification time changes.
type FileStore struct {
	path    string
	mtime   time.Time
	entries []Entry
}

// Open creates a FileStore and performs the initial parse so malformed
// documents surface as configuration errors before processing begins.
func Open(path string) (*FileStore, error) {
	s := &FileStore{path: path}
	if err := s.refresh(); err != nil {
		return nil, err
	}
	return s, nil
}

// Lookup returns the first entry whose match string is a case-insensitive
// substring of the file name.
func (s *FileStore) Lookup(fileName string) (Entry, bool) {
	// Keep serving the memoized entries when the refresh fails mid-run;
	// the initial Open already validated the document.
	_ = s.refresh()
	return s.lookup(fileName)
}

func (s *FileStore) lookup(fileName string) (Entry, bool) {
	lower := strings.ToLower(fileName)
	for _, e := range s.entries {
		if e.Match != "" && strings.Contains(lower, strings.ToLower(e.Match)) {
			return e, true
		}
	}
	return Entry{}, false
}

func (s *FileStore) refresh() error {
	info, err := os.Stat(s.path)
	if err != nil {
		return err
	}
	if !s.mtime.IsZero() && info.ModTime().Equal(s.mtime) {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse reading list: %w", err)
	}
	s.entries = doc.Entries
	s.mtime = info.ModTime()
	return nil
}
