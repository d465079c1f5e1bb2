package models

import (
	"strings"
	"time"
)

// Kind classifies an episode by the role its source file plays in the course
// material: plain readings, weekly briefs, the week's combined overview,
// text-to-speech renderings, quizzes, and everything else.
type Kind int

const (
	KindReading Kind = iota
	KindBrief
	KindWeeklyOverview
	KindTTSReading
	KindQuiz
	KindOther
)

// String returns the canonical lowercase name used in logs and summaries.
func (k Kind) String() string {
	switch k {
	case KindReading:
		return "reading"
	case KindBrief:
		return "brief"
	case KindWeeklyOverview:
		return "weekly-overview"
	case KindTTSReading:
		return "tts-reading"
	case KindQuiz:
		return "quiz"
	default:
		return "other"
	}
}

// Kinds lists every kind in canonical order.
func Kinds() []Kind {
	return []Kind{KindReading, KindBrief, KindWeeklyOverview, KindTTSReading, KindQuiz, KindOther}
}

// FileRecord is an immutable snapshot of one remote file at ingestion time.
// FolderPath holds the path segments from the configured root, in order,
// excluding the file name itself.
type FileRecord struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	FolderPath []string  `json:"folder_path"`
	MIMEType   string    `json:"mime_type"`
	ModifiedAt time.Time `json:"modified_at"`
	Starred    bool      `json:"starred,omitempty"`
}

// FolderJoined returns the folder segments joined by "/". Folder matchers
// and auto-spec alias matching operate on this form.
func (r FileRecord) FolderJoined() string {
	return strings.Join(r.FolderPath, "/")
}

// QuizDifficulty identifies one of the alternate quiz variants attached to
// an episode.
type QuizDifficulty string

const (
	QuizEasy   QuizDifficulty = "easy"
	QuizMedium QuizDifficulty = "medium"
	QuizHard   QuizDifficulty = "hard"
)

// QuizDifficulties lists the difficulties in ascending order.
func QuizDifficulties() []QuizDifficulty {
	return []QuizDifficulty{QuizEasy, QuizMedium, QuizHard}
}

// Link is a labelled URL rendered into an episode description.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Episode is derived from exactly one FileRecord. It is created once per
// pipeline run, final after composition, and discarded at the end of the
// run; cross-run identity comes only from File.ID.
type Episode struct {
	File        FileRecord
	Kind        Kind
	GroupKey    string
	Important   bool
	PublishedAt time.Time
	Title       string
	Description string
	PrimaryLink string
	ExtraLinks  []Link

	// Optional enclosure metadata, filled by the source or by overrides.
	DurationSeconds *float64
	SizeBytes       int64
	ArtworkURL      string

	// Author is the per-episode author probed from the audio tags; the
	// feed falls back to the channel author when empty.
	Author string
}

// ChannelMetadata is the static channel-level feed information. It is
// supplied by configuration and read-only for the pipeline.
type ChannelMetadata struct {
	Title       string
	Description string
	Language    string
	Author      string
	Contact     string
	ArtworkURL  string
	Link        string
}
