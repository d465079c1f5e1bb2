// Package schedule resolves publish timestamps: explicit override, then
// auto-spec rule, then the file's native modification time.
package schedule

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"coursecast/internal/models"
	"coursecast/internal/overrides"
)

// Rule is one auto-spec entry: files whose folder path contains Alias
// (case-insensitively) publish at Base plus their rank times the increment.
type Rule struct {
	Alias            string    `yaml:"alias"`
	Base             time.Time `yaml:"base"`
	IncrementMinutes int       `yaml:"increment_minutes"`
}

// LoadRules reads the auto-spec document at path, preserving declaration
// order. An empty path yields no rules.
func LoadRules(path string) ([]Rule, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read auto-spec: %w", err)
	}
	var rules []Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse auto-spec: %w", err)
	}
	for i, r := range rules {
		if strings.TrimSpace(r.Alias) == "" {
			return nil, fmt.Errorf("auto-spec[%d]: alias must not be empty", i)
		}
		if r.Base.IsZero() {
			return nil, fmt.Errorf("auto-spec[%d] (%s): base timestamp is required", i, r.Alias)
		}
		if r.IncrementMinutes < 0 {
			return nil, fmt.Errorf("auto-spec[%d] (%s): increment_minutes must be >= 0", i, r.Alias)
		}
	}
	return rules, nil
}

// Scheduler assigns publish timestamps for one pipeline invocation. All
// rank state is local to a single Assign call.
type Scheduler struct {
	rules []Rule
	ovr   *overrides.Document
}

// New builds a Scheduler from the ordered rule list and the override
// document.
func New(rules []Rule, ovr *overrides.Document) *Scheduler {
	if ovr == nil {
		ovr = &overrides.Document{}
	}
	return &Scheduler{rules: rules, ovr: ovr}
}

// Assign resolves a publish timestamp for every record, keyed by record ID.
// Resolution order per record: explicit override, auto-spec rule, native
// modification time. Ranks within a rule are zero-based, ordered by file
// name then native modified time, so regenerating against an unchanged
// snapshot yields identical timestamps.
func (s *Scheduler) Assign(records []models.FileRecord) map[string]time.Time {
	out := make(map[string]time.Time, len(records))
	byRule := make(map[int][]models.FileRecord)

	for _, r := range records {
		if e, ok := s.ovr.For(r); ok && e.PublishedAt != nil {
			out[r.ID] = *e.PublishedAt
			continue
		}
		if idx, ok := s.MatchRule(r.FolderJoined()); ok {
			byRule[idx] = append(byRule[idx], r)
			continue
		}
		out[r.ID] = r.ModifiedAt
	}

	for idx, group := range byRule {
		rule := s.rules[idx]
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].Name != group[j].Name {
				return group[i].Name < group[j].Name
			}
			return group[i].ModifiedAt.Before(group[j].ModifiedAt)
		})
		for k, r := range group {
			out[r.ID] = rule.Base.Add(time.Duration(k*rule.IncrementMinutes) * time.Minute)
		}
	}

	return out
}

// MatchRule finds the rule whose alias is a case-insensitive substring of
// the joined folder path. The longest alias wins, so "w1" cannot shadow
// "w10".."w19"; equal lengths fall back to declaration order, first wins.
func (s *Scheduler) MatchRule(folder string) (int, bool) {
	lower := strings.ToLower(folder)
	best := -1
	bestLen := 0
	for i, r := range s.rules {
		alias := strings.ToLower(r.Alias)
		if !strings.Contains(lower, alias) {
			continue
		}
		if len(alias) > bestLen {
			best = i
			bestLen = len(alias)
		}
	}
	return best, best >= 0
}
