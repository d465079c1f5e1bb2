// Package pipeline runs the full transform: filter, classify, schedule,
// compose, sort. It is a single-threaded batch computation; all state is
// local to one invocation, so re-running against an unchanged snapshot
// produces an identical episode list.
package pipeline

import (
	"log"
	"strings"

	"coursecast/internal/classify"
	"coursecast/internal/compose"
	"coursecast/internal/config"
	"coursecast/internal/filter"
	"coursecast/internal/models"
	"coursecast/internal/overrides"
	"coursecast/internal/readinglist"
	"coursecast/internal/schedule"
	"coursecast/internal/sorter"
	"coursecast/internal/source"
)

// Deps collects the collaborators for one pipeline run.
type Deps struct {
	Config    *config.Config
	AutoSpec  []schedule.Rule
	Overrides *overrides.Document
	Readings  readinglist.Store
	// Details resolves probed enclosure metadata per record ID; nil when
	// the source provides none.
	Details func(id string) (source.Details, bool)
	Logger  *log.Logger
}

// Summary is the per-run accounting printed by the CLI.
type Summary struct {
	Listed             int
	Kept               int
	FilteredOut        int
	ByKind             map[string]int
	SkippedOverviews   int
	ImportantConflicts int
}

// Result is the ordered episode list plus the run summary.
type Result struct {
	Episodes []models.Episode
	Summary  Summary
}

// Run executes the pipeline over an already-fetched record list.
func Run(records []models.FileRecord, deps Deps) (Result, error) {
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	if deps.Overrides == nil {
		deps.Overrides = &overrides.Document{}
	}
	if deps.Readings == nil {
		deps.Readings = readinglist.Empty{}
	}

	summary := Summary{Listed: len(records), ByKind: make(map[string]int)}

	kept := filter.New(deps.Config).Apply(records)
	summary.Kept = len(kept)
	summary.FilteredOut = summary.Listed - summary.Kept

	classifier := classify.New(deps.Config)
	stagedFiles := make([]staged, 0, len(kept))
	for _, r := range kept {
		entry, hasEntry := deps.Overrides.For(r)
		cls := classifier.Classify(r, importantOverride(entry, hasEntry))
		if hasEntry && entry.Important != nil {
			if !*entry.Important && strings.HasPrefix(r.Name, deps.Config.ImportantPrefix) {
				// Explicit override conflicts with a manually rendered
				// prefix; override wins, flagged for manual review.
				summary.ImportantConflicts++
				deps.Logger.Printf("importance conflict for %s: override=false but name carries prefix", r.Name)
			}
			cls.Important = *entry.Important
		}
		stagedFiles = append(stagedFiles, staged{record: r, class: cls, ovr: entry, hasOvr: hasEntry})
	}

	stagedFiles = dropIncompleteOverviews(stagedFiles, deps.Config, &summary)

	scheduleIn := make([]models.FileRecord, len(stagedFiles))
	for i, s := range stagedFiles {
		scheduleIn[i] = s.record
	}
	published := schedule.New(deps.AutoSpec, deps.Overrides).Assign(scheduleIn)

	composer := compose.New(deps.Config, deps.Readings)
	episodes := make([]models.Episode, 0, len(stagedFiles))
	for _, s := range stagedFiles {
		summary.ByKind[s.class.Kind.String()]++

		var det source.Details
		if deps.Details != nil {
			det, _ = deps.Details(s.record.ID)
		}

		composed := composer.Compose(compose.Input{
			Record:         s.record,
			Kind:           s.class.Kind,
			GroupKey:       s.class.GroupKey,
			Important:      s.class.Important,
			QuizDifficulty: s.class.QuizDifficulty,
			Override:       s.ovr,
			HasOverride:    s.hasOvr,
			TagTitle:       det.TagTitle,
		})

		ep := models.Episode{
			File:        s.record,
			Kind:        s.class.Kind,
			GroupKey:    s.class.GroupKey,
			Important:   s.class.Important,
			PublishedAt: published[s.record.ID],
			Title:       composed.Title,
			Description: composed.Description,
			PrimaryLink: composed.PrimaryLink,
			ExtraLinks:  composed.ExtraLinks,
			ArtworkURL:  s.ovr.ArtworkURL,
			Author:      det.TagArtist,
			SizeBytes:   det.SizeBytes,
		}
		if s.ovr.DurationSeconds != nil {
			ep.DurationSeconds = s.ovr.DurationSeconds
		} else {
			ep.DurationSeconds = det.DurationSeconds
		}
		episodes = append(episodes, ep)
	}

	sorter.Sort(episodes, deps.Config.Feed.SortMode)
	return Result{Episodes: episodes, Summary: summary}, nil
}

// staged is one file between classification and composition.
type staged struct {
	record models.FileRecord
	class  classify.Classification
	ovr    overrides.Entry
	hasOvr bool
}

func importantOverride(entry overrides.Entry, ok bool) *bool {
	if !ok {
		return nil
	}
	return entry.Important
}

// dropIncompleteOverviews omits a group's weekly-overview episodes when a
// configured required source is missing among the group's surviving files.
// Independently resolvable episodes in the group still proceed; this is an
// expected condition, not an error.
func dropIncompleteOverviews(in []staged, cfg *config.Config, summary *Summary) []staged {
	if len(cfg.WeeklyOverviewRequired) == 0 {
		return in
	}

	complete := make(map[string]bool)
	for group, required := range cfg.WeeklyOverviewRequired {
		complete[group] = groupComplete(in, group, required)
	}

	out := in[:0]
	for _, s := range in {
		if s.class.Kind == models.KindWeeklyOverview {
			if ok, checked := complete[s.class.GroupKey]; checked && !ok {
				summary.SkippedOverviews++
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

// groupComplete checks the required sources at week level: a W04 overview
// draws on files grouped under W04L1, W04L2, and so on.
func groupComplete(in []staged, group string, required []string) bool {
	week, _, ok := classify.ParseGroupKey(group)
	if !ok {
		return true
	}
	for _, req := range required {
		found := false
		for _, s := range in {
			w, _, ok := classify.ParseGroupKey(s.class.GroupKey)
			if !ok || w != week {
				continue
			}
			if strings.Contains(strings.ToLower(s.record.Name), strings.ToLower(req)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
