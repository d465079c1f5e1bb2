// Package compose builds episode titles and descriptions from ordered,
// independently renderable blocks.
package compose

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"coursecast/internal/classify"
	"coursecast/internal/config"
	"coursecast/internal/models"
	"coursecast/internal/overrides"
	"coursecast/internal/readinglist"
)

// Input is one classified, scheduled episode awaiting its text.
type Input struct {
	Record         models.FileRecord
	Kind           models.Kind
	GroupKey       string
	Important      bool
	QuizDifficulty models.QuizDifficulty
	Override       overrides.Entry
	HasOverride    bool

	// TagTitle is the title probed from the file's audio tags; when set it
	// takes precedence over the file name in the cleantitle block.
	TagTitle string
}

// Output carries the composed text and link selection.
type Output struct {
	Title       string
	Description string
	PrimaryLink string
	ExtraLinks  []models.Link
}

const (
	titleSeparator       = " "
	descriptionSeparator = "\n\n"
)

// Composer renders titles and descriptions. The active block lists come
// from configuration, with per-kind description overrides.
type Composer struct {
	cfg      *config.Config
	readings readinglist.Store
}

// New builds a Composer. A nil store disables the summary and key-points
// blocks.
func New(cfg *config.Config, readings readinglist.Store) *Composer {
	if readings == nil {
		readings = readinglist.Empty{}
	}
	return &Composer{cfg: cfg, readings: readings}
}

// Compose renders the title, description, and link selection for one
// episode. Explicit title/description overrides replace the composed text
// entirely; hygiene substitutions run after composition so stripped
// patterns cannot be re-introduced.
func (c *Composer) Compose(in Input) Output {
	var out Output

	title := in.Override.Title
	if title == "" {
		title = c.render(c.cfg.Feed.TitleBlocks, in, titleSeparator)
	}
	title = applyHygiene(title)
	if in.Important && !strings.HasPrefix(title, c.cfg.ImportantPrefix) {
		title = c.cfg.ImportantPrefix + title
	}
	out.Title = title

	description := in.Override.Description
	if description == "" {
		blocks := c.cfg.DescriptionBlocksFor(in.Kind.String())
		description = c.render(blocks, in, descriptionSeparator)
	}
	out.Description = applyHygiene(description)

	out.PrimaryLink, out.ExtraLinks = c.selectLinks(in)
	return out
}

// render evaluates the named blocks in order and joins the non-empty
// results. An absent block contributes nothing, never a stray separator.
func (c *Composer) render(blocks []string, in Input, sep string) string {
	var parts []string
	for _, name := range blocks {
		text := c.renderBlock(name, in)
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, sep)
}

func (c *Composer) renderBlock(name string, in Input) string {
	switch name {
	case "label":
		return CompactLabel(in.GroupKey)
	case "daterange":
		return c.dateRange(in.GroupKey)
	case "cleantitle":
		if in.TagTitle != "" {
			return CleanTitle(in.TagTitle)
		}
		// The rendered important prefix is re-applied canonically after
		// composition, so a manually prefixed name is not doubled.
		return CleanTitle(strings.TrimPrefix(in.Record.Name, c.cfg.ImportantPrefix))
	case "quizlinks":
		return c.quizLinks(in)
	case "summary":
		return c.summary(in)
	case "keypoints":
		return c.keyPoints(in)
	}
	return ""
}

// CompactLabel renders a canonical group key in the compact Danish form,
// e.g. "U4F2" for W04L2 (uge 4, forelæsning 2).
func CompactLabel(groupKey string) string {
	week, lecture, ok := classify.ParseGroupKey(groupKey)
	if !ok {
		return ""
	}
	if lecture == 0 {
		return fmt.Sprintf("U%d", week)
	}
	return fmt.Sprintf("U%dF%d", week, lecture)
}

var danishMonths = [...]string{
	"jan.", "feb.", "mar.", "apr.", "maj", "jun.",
	"jul.", "aug.", "sep.", "okt.", "nov.", "dec.",
}

// dateRange renders the calendar window for the group's teaching week,
// anchored on semester_week_start_date. Empty when either the group key or
// the semester start is absent.
func (c *Composer) dateRange(groupKey string) string {
	start, ok := c.cfg.SemesterStart()
	if !ok {
		return ""
	}
	week, _, ok := classify.ParseGroupKey(groupKey)
	if !ok || week < 1 {
		return ""
	}
	from := start.AddDate(0, 0, (week-1)*7)
	to := from.AddDate(0, 0, 6)
	return formatRange(from, to)
}

func formatRange(from, to time.Time) string {
	if from.Month() == to.Month() {
		return fmt.Sprintf("%d.–%d. %s", from.Day(), to.Day(), danishMonths[from.Month()-1])
	}
	return fmt.Sprintf("%d. %s – %d. %s",
		from.Day(), danishMonths[from.Month()-1],
		to.Day(), danishMonths[to.Month()-1])
}

var (
	extensionRe   = regexp.MustCompile(`\.[A-Za-z0-9]{1,5}$`)
	typeTagRe     = regexp.MustCompile(`(?i)\s*\[(brief|quiz[^\]]*|tts|opl(?:æ|ae)st)\]\s*`)
	hashFragRe    = regexp.MustCompile(`[ _-]#?[0-9a-f]{8,}\b`)
	ttsParenRe    = regexp.MustCompile(`(?i)\s*\(opl(?:æ|ae)st\)\s*`)
	leadingWeekRe = regexp.MustCompile(`(?i)^W\d{1,2}(?:[ ._-]?L\d{1,2})?(?: X)?[ ._-]+`)
)

// CleanTitle strips the raw technical artifacts from a source file name:
// the extension, bracketed type tags, hash fragments, the spoken-version
// marker, and the leading week token (the label block renders that).
func CleanTitle(name string) string {
	s := extensionRe.ReplaceAllString(name, "")
	s = typeTagRe.ReplaceAllString(s, " ")
	s = ttsParenRe.ReplaceAllString(s, " ")
	s = hashFragRe.ReplaceAllString(s, "")
	s = leadingWeekRe.ReplaceAllString(s, "")
	return strings.TrimSpace(collapseSpaces(s))
}

var quizLabels = map[models.QuizDifficulty]string{
	models.QuizEasy:   "Let",
	models.QuizMedium: "Mellem",
	models.QuizHard:   "Svær",
}

func (c *Composer) quizLinks(in Input) string {
	links := c.availableQuizLinks(in)
	if len(links) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Quiz:")
	for _, l := range links {
		b.WriteString("\n• ")
		b.WriteString(l.Label)
		b.WriteString(": ")
		b.WriteString(l.URL)
	}
	return b.String()
}

// availableQuizLinks lists the override-provided quiz links in ascending
// difficulty order.
func (c *Composer) availableQuizLinks(in Input) []models.Link {
	var links []models.Link
	for _, d := range models.QuizDifficulties() {
		if url, ok := in.Override.QuizLinkFor(d); ok {
			links = append(links, models.Link{Label: quizLabels[d], URL: url})
		}
	}
	return links
}

// selectLinks picks the primary link and the extra difficulty links. The
// canonical medium difficulty is preferred as primary when present,
// otherwise the first available; the rest render as extra entries.
func (c *Composer) selectLinks(in Input) (string, []models.Link) {
	links := c.availableQuizLinks(in)
	if len(links) == 0 {
		return "", nil
	}
	primaryIdx := 0
	if url, ok := in.Override.QuizLinkFor(models.QuizMedium); ok {
		for i, l := range links {
			if l.URL == url {
				primaryIdx = i
				break
			}
		}
	}
	var extra []models.Link
	for i, l := range links {
		if i != primaryIdx {
			extra = append(extra, l)
		}
	}
	return links[primaryIdx].URL, extra
}

func (c *Composer) summary(in Input) string {
	entry, ok := c.readings.Lookup(in.Record.Name)
	if !ok || len(entry.Summary) == 0 {
		return ""
	}
	return "Resumé:\n" + strings.Join(entry.Summary, "\n")
}

func (c *Composer) keyPoints(in Input) string {
	entry, ok := c.readings.Lookup(in.Record.Name)
	if !ok || len(entry.KeyPoints) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Nøglepunkter:")
	for _, p := range entry.KeyPoints {
		b.WriteString("\n• ")
		b.WriteString(p)
	}
	return b.String()
}

// hygieneRules strip lecture/semester boilerplate and leftover filename
// artifacts. They run once, after composition.
var hygieneRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)\b(forår|efterår|spring|fall)\s*20\d\d\b`), ""},
	{regexp.MustCompile(`(?i)\blecture\s+notes?\b`), ""},
	{regexp.MustCompile(`#[0-9a-fA-F]{6,}\b`), ""},
	{regexp.MustCompile(`[ \t]+([,.;:])`), "$1"},
}

func applyHygiene(s string) string {
	for _, rule := range hygieneRules {
		s = rule.re.ReplaceAllString(s, rule.repl)
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(collapseSpaces(line), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

var multiSpaceRe = regexp.MustCompile(`[ \t]{2,}`)

func collapseSpaces(s string) string {
	return multiSpaceRe.ReplaceAllString(s, " ")
}
