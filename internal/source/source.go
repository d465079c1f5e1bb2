// Package source provides the metadata source: a flat listing of file
// records for a configured root and its descendants. DirSource walks a
// local directory tree; remote stores satisfy the same interface.
package source

import (
	"errors"
	"io"
	"log"
	"math"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/tcolgate/mp3"

	"coursecast/internal/models"
)

// Source yields the file records for a root. The pipeline receives either
// a complete list or an error before it begins.
type Source interface {
	ListFiles(includeSubfolders bool) ([]models.FileRecord, error)
}

// Details carries per-file enclosure metadata probed alongside the record.
type Details struct {
	SizeBytes       int64
	DurationSeconds *float64
	TagTitle        string
	TagArtist       string
}

// DirSource lists files under a local directory. Records are ordered by
// relative path so repeated listings of an unchanged tree are identical.
type DirSource struct {
	root    string
	logger  *log.Logger
	details map[string]Details
}

// NewDir creates a DirSource for root.
func NewDir(root string, logger *log.Logger) *DirSource {
	if logger == nil {
		logger = log.Default()
	}
	return &DirSource{root: root, logger: logger, details: make(map[string]Details)}
}

// ListFiles walks the root and returns one record per regular file. The
// record ID is the slash-joined path relative to the root.
func (s *DirSource) ListFiles(includeSubfolders bool) ([]models.FileRecord, error) {
	var records []models.FileRecord

	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			s.logger.Printf("walk error for %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			if !includeSubfolders && path != s.root {
				return filepath.SkipDir
			}
			return nil
		}

		record, details, err := s.buildRecord(path)
		if err != nil {
			s.logger.Printf("metadata error for %s: %v", path, err)
			return nil
		}
		records = append(records, record)
		s.details[record.ID] = details
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ID < records[j].ID
	})
	return records, nil
}

// Details returns the probed enclosure metadata for a record ID from the
// most recent listing.
func (s *DirSource) Details(id string) (Details, bool) {
	d, ok := s.details[id]
	return d, ok
}

func (s *DirSource) buildRecord(path string) (models.FileRecord, Details, error) {
	info, err := os.Stat(path)
	if err != nil {
		return models.FileRecord{}, Details{}, err
	}

	relative, err := filepath.Rel(s.root, path)
	if err != nil {
		relative = filepath.Base(path)
	}
	relative = filepath.ToSlash(relative)

	var folder []string
	if dir := filepath.ToSlash(filepath.Dir(relative)); dir != "." {
		folder = strings.Split(dir, "/")
	}

	details := Details{SizeBytes: info.Size()}
	details.TagTitle, details.TagArtist = readTags(path)

	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		if dur, err := mp3Duration(path); err == nil && dur > 0 {
			d := math.Round(dur)
			details.DurationSeconds = &d
		}
	}

	record := models.FileRecord{
		ID:         relative,
		Name:       filepath.Base(path),
		FolderPath: folder,
		MIMEType:   mimeTypeForFilename(path),
		ModifiedAt: info.ModTime().UTC().Round(time.Second),
	}
	return record, details, nil
}

func readTags(path string) (title, artist string) {
	f, err := os.Open(path)
	if err != nil {
		return "", ""
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		return "", ""
	}
	return strings.TrimSpace(meta.Title()), strings.TrimSpace(meta.Artist())
}

func mp3Duration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	decoder := mp3.NewDecoder(f)
	var frame mp3.Frame
	var skipped int
	var total float64

	for {
		if err := decoder.Decode(&frame, &skipped); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, err
		}
		total += frame.Duration().Seconds()
	}
	return total, nil
}

func mimeTypeForFilename(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext != "" {
		if value := mime.TypeByExtension(ext); value != "" {
			// TypeByExtension may append a charset parameter.
			if idx := strings.Index(value, ";"); idx >= 0 {
				value = strings.TrimSpace(value[:idx])
			}
			return value
		}
		if fallback, ok := fallbackMIMETypes[ext]; ok {
			return fallback
		}
	}
	return "application/octet-stream"
}

var fallbackMIMETypes = map[string]string{
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".mp3":  "audio/mpeg",
}
