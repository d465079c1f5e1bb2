// Package classify assigns each file a kind, extracts its week/lecture
// group key, and decides the importance flag.
package classify

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"coursecast/internal/config"
	"coursecast/internal/models"
)

// Classification is the partial episode produced for one file record.
type Classification struct {
	Kind           models.Kind
	GroupKey       string
	Important      bool
	QuizDifficulty models.QuizDifficulty
}

// kindRule pairs a predicate with the kind it assigns. Rules are evaluated
// top to bottom; the first match wins.
type kindRule struct {
	name  string
	match func(lowerName, mimeType, lowerFolder string) bool
	kind  models.Kind
}

// kindRules encodes the fixed priority order:
// WeeklyOverview > Brief > Quiz > TTSReading > Reading > Other.
var kindRules = []kindRule{
	{
		name: "weekly-overview marker",
		match: func(lowerName, _, _ string) bool {
			return strings.Contains(lowerName, "alle kilder") || strings.Contains(lowerName, "all sources")
		},
		kind: models.KindWeeklyOverview,
	},
	{
		name: "brief tag",
		match: func(lowerName, _, _ string) bool {
			return strings.Contains(lowerName, "[brief]")
		},
		kind: models.KindBrief,
	},
	{
		name: "quiz tag",
		match: func(lowerName, _, _ string) bool {
			return quizTagRe.MatchString(lowerName)
		},
		kind: models.KindQuiz,
	},
	{
		name: "tts marker",
		match: func(lowerName, mimeType, lowerFolder string) bool {
			if hasTTSMarker(lowerName) {
				return true
			}
			// Audio files that live under a TTS output folder carry no
			// name marker of their own.
			return strings.HasPrefix(mimeType, "audio/") && hasTTSMarker(lowerFolder)
		},
		kind: models.KindTTSReading,
	},
	{
		name: "reading conventions",
		match: func(_, mimeType, _ string) bool {
			return strings.HasPrefix(mimeType, "audio/") ||
				mimeType == "text/html" ||
				mimeType == "application/pdf"
		},
		kind: models.KindReading,
	},
}

var (
	// groupTokenRe matches a week token with an optional lecture component,
	// tolerating ".", "_", "-" or a space between the parts.
	groupTokenRe = regexp.MustCompile(`(?i)\bW(\d{1,2})(?:[ ._-]?L(\d{1,2}))?\b`)

	// quizTagRe matches a bracketed quiz tag with an optional difficulty,
	// Danish or English.
	quizTagRe = regexp.MustCompile(`(?i)\[quiz(?:[ _-]?(let|mellem|sv(?:æ|ae)r|easy|medium|hard))?\]`)

	ttsWordRe = regexp.MustCompile(`\btts\b`)
)

func hasTTSMarker(s string) bool {
	return strings.Contains(s, "oplæst") || strings.Contains(s, "oplaest") || ttsWordRe.MatchString(s)
}

// Classifier performs kind, group-key, and importance classification.
type Classifier struct {
	mode     config.ImportantMode
	prefix   string
	keywords []string
}

// New builds a Classifier from a validated configuration.
func New(cfg *config.Config) *Classifier {
	keywords := make([]string, 0, len(cfg.ImportantKeywords))
	for _, kw := range cfg.ImportantKeywords {
		keywords = append(keywords, strings.ToLower(kw))
	}
	return &Classifier{
		mode:     cfg.ImportantTextMode,
		prefix:   cfg.ImportantPrefix,
		keywords: keywords,
	}
}

// Classify derives kind, group key, importance, and quiz difficulty for a
// record. importantOverride carries an explicit metadata override for the
// importance flag, or nil when none is configured. A file that matches no
// grouping pattern keeps an empty group key; that is not an error.
func (c *Classifier) Classify(r models.FileRecord, importantOverride *bool) Classification {
	lowerName := strings.ToLower(r.Name)
	lowerFolder := strings.ToLower(r.FolderJoined())

	out := Classification{Kind: models.KindOther}
	for _, rule := range kindRules {
		if rule.match(lowerName, r.MIMEType, lowerFolder) {
			out.Kind = rule.kind
			break
		}
	}

	out.GroupKey = GroupKey(r)
	if out.Kind == models.KindQuiz {
		out.QuizDifficulty = quizDifficulty(lowerName)
	}
	out.Important = c.important(r, out.GroupKey, importantOverride)
	return out
}

// GroupKey extracts the normalized week/lecture token for a record: the
// first token in the file name, else the nearest ancestor folder segment
// carrying one, else empty.
func GroupKey(r models.FileRecord) string {
	if key := groupKeyFromText(r.Name); key != "" {
		return key
	}
	for i := len(r.FolderPath) - 1; i >= 0; i-- {
		if key := groupKeyFromText(r.FolderPath[i]); key != "" {
			return key
		}
	}
	return ""
}

func groupKeyFromText(s string) string {
	m := groupTokenRe.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return normalizeGroupKey(m)
}

func normalizeGroupKey(m []string) string {
	week, err := strconv.Atoi(m[1])
	if err != nil {
		return ""
	}
	key := fmt.Sprintf("W%02d", week)
	if m[2] != "" {
		lecture, err := strconv.Atoi(m[2])
		if err != nil {
			return key
		}
		key += fmt.Sprintf("L%d", lecture)
	}
	return key
}

// ParseGroupKey splits a canonical group key into week and lecture numbers.
// Lecture is zero when the key has no lecture component. ok is false for an
// empty or malformed key.
func ParseGroupKey(key string) (week, lecture int, ok bool) {
	m := groupTokenRe.FindStringSubmatch(key)
	if m == nil {
		return 0, 0, false
	}
	week, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	if m[2] != "" {
		lecture, err = strconv.Atoi(m[2])
		if err != nil {
			return 0, 0, false
		}
	}
	return week, lecture, true
}

func quizDifficulty(lowerName string) models.QuizDifficulty {
	m := quizTagRe.FindStringSubmatch(lowerName)
	if m == nil || m[1] == "" {
		return models.QuizMedium
	}
	switch m[1] {
	case "let", "easy":
		return models.QuizEasy
	case "mellem", "medium":
		return models.QuizMedium
	default:
		return models.QuizHard
	}
}

// important resolves the importance flag. A name already carrying the
// rendered prefix is always important: the manual override wins over any
// heuristic.
func (c *Classifier) important(r models.FileRecord, groupKey string, override *bool) bool {
	if strings.HasPrefix(r.Name, c.prefix) {
		return true
	}
	switch c.mode {
	case config.ImportantBroad:
		if override != nil {
			return *override
		}
		if r.Starred {
			return true
		}
		return c.folderKeywordMatch(r)
	default:
		return strictImportant(r.Name, groupKey)
	}
}

// strictImportant requires the file name to begin with its own group token
// followed by the literal X marker. The marker must sit directly after the
// token that produced the group key.
func strictImportant(name, groupKey string) bool {
	if groupKey == "" {
		return false
	}
	loc := groupTokenRe.FindStringIndex(name)
	if loc == nil || loc[0] != 0 {
		return false
	}
	if groupKeyFromText(name[loc[0]:loc[1]]) != groupKey {
		return false
	}
	return strings.HasPrefix(name[loc[1]:], " X ")
}

func (c *Classifier) folderKeywordMatch(r models.FileRecord) bool {
	for _, seg := range r.FolderPath {
		lower := strings.ToLower(seg)
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}
