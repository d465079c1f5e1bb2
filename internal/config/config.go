package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const (
	defaultFeedTitle       = "Course Podcast"
	defaultFeedDescription = "Podcast feed generated from the course material library."
	defaultFeedLanguage    = "da"
	defaultImportantPrefix = "★ "
	defaultImportantMode   = ImportantStrict
	defaultSortMode        = SortByGroup
)

// Block orders used when the configuration does not override them.
var (
	defaultTitleBlocks       = []string{"label", "cleantitle"}
	defaultDescriptionBlocks = []string{"label", "daterange", "quizlinks", "summary", "keypoints"}
)

// ImportantMode selects the heuristic used to flag highlighted readings.
type ImportantMode string

const (
	// ImportantStrict flags a file only when its name starts with the
	// canonical group key followed by the literal X marker.
	ImportantStrict ImportantMode = "strict"
	// ImportantBroad ORs the explicit override, the source-store starred
	// flag, and an ancestor-folder keyword match.
	ImportantBroad ImportantMode = "broad"
)

// SortMode selects the feed ordering policy.
type SortMode string

const (
	// SortByGroup orders by group key, then kind priority, then recency.
	SortByGroup SortMode = "group"
	// SortByRecency orders purely by publish time, most recent first.
	SortByRecency SortMode = "recency"
)

// Rule is a single include or exclude filter rule. Exactly one matcher
// field must be set.
type Rule struct {
	NameContains   string `yaml:"name_contains,omitempty"`
	NameRegex      string `yaml:"name_regex,omitempty"`
	FolderContains string `yaml:"folder_contains,omitempty"`
	FolderRegex    string `yaml:"folder_regex,omitempty"`

	compiled *regexp.Regexp
}

// Compiled returns the compiled pattern for regex matchers, nil for
// substring matchers. Validate must have run first.
func (r *Rule) Compiled() *regexp.Regexp { return r.compiled }

// Filters holds the ordered include and exclude rule groups.
type Filters struct {
	Include []Rule `yaml:"include,omitempty"`
	Exclude []Rule `yaml:"exclude,omitempty"`
}

// YearRewrite substitutes one literal year for another in rendered publish
// dates. It is a display-only transform applied by the feed emitter.
type YearRewrite struct {
	From int `yaml:"from"`
	To   int `yaml:"to"`
}

// Feed groups the channel metadata and emitter options.
type Feed struct {
	Title       string `yaml:"title,omitempty"`
	Description string `yaml:"description,omitempty"`
	Language    string `yaml:"language,omitempty"`
	Author      string `yaml:"author,omitempty"`
	Contact     string `yaml:"contact,omitempty"`
	ArtworkURL  string `yaml:"artwork_url,omitempty"`
	Link        string `yaml:"link,omitempty"`
	LinkBaseURL string `yaml:"link_base_url,omitempty"`

	SortMode                SortMode            `yaml:"sort_mode,omitempty"`
	TitleBlocks             []string            `yaml:"title_blocks,omitempty"`
	DescriptionBlocks       []string            `yaml:"description_blocks,omitempty"`
	DescriptionBlocksByKind map[string][]string `yaml:"description_blocks_by_kind,omitempty"`
	PubdateYearRewrite      *YearRewrite        `yaml:"pubdate_year_rewrite,omitempty"`
}

// Config is the root configuration document. Unknown keys in the YAML are
// ignored for forward compatibility.
type Config struct {
	Root              string   `yaml:"root,omitempty"`
	IncludeSubfolders *bool    `yaml:"include_subfolders,omitempty"`
	AllowedMIMETypes  []string `yaml:"allowed_mime_types,omitempty"`
	Filters           Filters  `yaml:"filters,omitempty"`

	AutoSpecPath    string `yaml:"auto_spec_path,omitempty"`
	OverridesPath   string `yaml:"overrides_path,omitempty"`
	ReadingListPath string `yaml:"reading_list_path,omitempty"`

	SemesterWeekStartDate string `yaml:"semester_week_start_date,omitempty"`

	ImportantTextMode ImportantMode `yaml:"important_text_mode,omitempty"`
	ImportantPrefix   string        `yaml:"important_prefix,omitempty"`
	ImportantKeywords []string      `yaml:"important_keywords,omitempty"`

	// WeeklyOverviewRequired maps a group key to source-name substrings
	// that must all be present among the group's surviving files before
	// its weekly-overview episode is emitted.
	WeeklyOverviewRequired map[string][]string `yaml:"weekly_overview_required,omitempty"`

	Feed Feed `yaml:"feed,omitempty"`
}

// DefaultPath returns the config file location used when --config is not
// supplied.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "coursecast", "config.yaml")
}

// Load reads, parses, and validates the configuration document at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates a configuration document.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ImportantTextMode == "" {
		c.ImportantTextMode = defaultImportantMode
	}
	if c.ImportantPrefix == "" {
		c.ImportantPrefix = defaultImportantPrefix
	}
	if c.Feed.SortMode == "" {
		c.Feed.SortMode = defaultSortMode
	}
	if c.Feed.Title == "" {
		c.Feed.Title = defaultFeedTitle
	}
	if c.Feed.Description == "" {
		c.Feed.Description = defaultFeedDescription
	}
	if c.Feed.Language == "" {
		c.Feed.Language = defaultFeedLanguage
	}
	if len(c.Feed.TitleBlocks) == 0 {
		c.Feed.TitleBlocks = append([]string(nil), defaultTitleBlocks...)
	}
	if len(c.Feed.DescriptionBlocks) == 0 {
		c.Feed.DescriptionBlocks = append([]string(nil), defaultDescriptionBlocks...)
	}
	if c.IncludeSubfolders == nil {
		v := true
		c.IncludeSubfolders = &v
	}
}

// Validate ensures the configuration is usable. It compiles every regex
// matcher so malformed patterns surface before any file is processed.
func (c *Config) Validate() error {
	if err := c.validateFilters(); err != nil {
		return err
	}
	if err := c.validateModes(); err != nil {
		return err
	}
	if err := c.validateBlocks(); err != nil {
		return err
	}
	return c.validateSemesterStart()
}

func (c *Config) validateFilters() error {
	for i := range c.Filters.Include {
		if err := c.Filters.Include[i].compile(); err != nil {
			return fmt.Errorf("filters.include[%d]: %w", i, err)
		}
	}
	for i := range c.Filters.Exclude {
		if err := c.Filters.Exclude[i].compile(); err != nil {
			return fmt.Errorf("filters.exclude[%d]: %w", i, err)
		}
	}
	return nil
}

func (r *Rule) compile() error {
	set := 0
	for _, v := range []string{r.NameContains, r.NameRegex, r.FolderContains, r.FolderRegex} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("exactly one matcher must be set, got %d", set)
	}
	pattern := r.NameRegex
	if pattern == "" {
		pattern = r.FolderRegex
	}
	if pattern == "" {
		return nil
	}
	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid regex %q: %w", pattern, err)
	}
	r.compiled = compiled
	return nil
}

func (c *Config) validateModes() error {
	switch c.ImportantTextMode {
	case ImportantStrict, ImportantBroad:
	default:
		return fmt.Errorf("important_text_mode: unsupported value %q", c.ImportantTextMode)
	}
	switch c.Feed.SortMode {
	case SortByGroup, SortByRecency:
	default:
		return fmt.Errorf("feed.sort_mode: unsupported value %q", c.Feed.SortMode)
	}
	if rw := c.Feed.PubdateYearRewrite; rw != nil {
		if rw.From < 1000 || rw.From > 9999 || rw.To < 1000 || rw.To > 9999 {
			return fmt.Errorf("feed.pubdate_year_rewrite: years must be four digits, got %d -> %d", rw.From, rw.To)
		}
	}
	return nil
}

var knownBlocks = map[string]struct{}{
	"label":      {},
	"daterange":  {},
	"cleantitle": {},
	"quizlinks":  {},
	"summary":    {},
	"keypoints":  {},
}

func (c *Config) validateBlocks() error {
	check := func(field string, blocks []string) error {
		for _, b := range blocks {
			if _, ok := knownBlocks[b]; !ok {
				return fmt.Errorf("%s: unknown block %q", field, b)
			}
		}
		return nil
	}
	if err := check("feed.title_blocks", c.Feed.TitleBlocks); err != nil {
		return err
	}
	if err := check("feed.description_blocks", c.Feed.DescriptionBlocks); err != nil {
		return err
	}
	for kind, blocks := range c.Feed.DescriptionBlocksByKind {
		if err := check("feed.description_blocks_by_kind."+kind, blocks); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateSemesterStart() error {
	if c.SemesterWeekStartDate == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", c.SemesterWeekStartDate); err != nil {
		return fmt.Errorf("semester_week_start_date: %w", err)
	}
	return nil
}

// SemesterStart returns the parsed week-1 start date when configured.
func (c *Config) SemesterStart() (time.Time, bool) {
	if c.SemesterWeekStartDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", c.SemesterWeekStartDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DescriptionBlocksFor returns the description block order for a kind name,
// honoring per-kind overrides.
func (c *Config) DescriptionBlocksFor(kind string) []string {
	if blocks, ok := c.Feed.DescriptionBlocksByKind[kind]; ok {
		return blocks
	}
	return c.Feed.DescriptionBlocks
}

// ResolvePath expands a leading tilde and makes the path absolute, relative
// to the directory of the config file when base is non-empty.
func ResolvePath(base, path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	if !filepath.IsAbs(path) && base != "" {
		path = filepath.Join(filepath.Dir(base), path)
	}
	return filepath.Abs(path)
}
