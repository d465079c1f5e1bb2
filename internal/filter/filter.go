// Package filter prunes file records by MIME allow-list and by the
// configured include/exclude rule sets before classification.
package filter

import (
	"strings"

	"coursecast/internal/config"
	"coursecast/internal/models"
)

// Engine applies the MIME allow-list and the rule sets. Construct it from a
// validated configuration; all regex matchers are compiled by then.
type Engine struct {
	mimeAllow []string
	include   []config.Rule
	exclude   []config.Rule
}

// New builds an Engine from a validated configuration.
func New(cfg *config.Config) *Engine {
	return &Engine{
		mimeAllow: cfg.AllowedMIMETypes,
		include:   cfg.Filters.Include,
		exclude:   cfg.Filters.Exclude,
	}
}

// Apply returns the records that survive MIME and rule filtering, preserving
// input order. Pure: the input slice is not modified.
func (e *Engine) Apply(records []models.FileRecord) []models.FileRecord {
	var out []models.FileRecord
	for _, r := range records {
		if e.Keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Keep reports whether a single record survives filtering. A record must
// match the MIME allow-list, match at least one include rule when the
// include group is non-empty, and match no exclude rule. Exclude always
// wins over include.
func (e *Engine) Keep(r models.FileRecord) bool {
	if !e.mimeAllowed(r.MIMEType) {
		return false
	}
	if len(e.include) > 0 && !matchesAny(e.include, r) {
		return false
	}
	return !matchesAny(e.exclude, r)
}

// mimeAllowed implements the allow-list semantics: entries ending in "/"
// match by prefix, all others match exactly. An empty allow-list disables
// MIME filtering.
func (e *Engine) mimeAllowed(mimeType string) bool {
	if len(e.mimeAllow) == 0 {
		return true
	}
	for _, entry := range e.mimeAllow {
		if strings.HasSuffix(entry, "/") {
			if strings.HasPrefix(mimeType, entry) {
				return true
			}
		} else if mimeType == entry {
			return true
		}
	}
	return false
}

func matchesAny(rules []config.Rule, r models.FileRecord) bool {
	for i := range rules {
		if matches(&rules[i], r) {
			return true
		}
	}
	return false
}

func matches(rule *config.Rule, r models.FileRecord) bool {
	switch {
	case rule.NameContains != "":
		return strings.Contains(strings.ToLower(r.Name), strings.ToLower(rule.NameContains))
	case rule.FolderContains != "":
		return strings.Contains(strings.ToLower(r.FolderJoined()), strings.ToLower(rule.FolderContains))
	case rule.NameRegex != "":
		return rule.Compiled().MatchString(r.Name)
	case rule.FolderRegex != "":
		return rule.Compiled().MatchString(r.FolderJoined())
	}
	return false
}
