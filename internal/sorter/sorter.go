// Package sorter orders the final episode list. The order is total and
// stable: regenerating against an unchanged snapshot yields byte-identical
// ordering.
package sorter

import (
	"sort"

	"coursecast/internal/classify"
	"coursecast/internal/config"
	"coursecast/internal/models"
)

// kindPriority ranks kinds within a group: briefs lead, then the group
// overview, then spoken variants, then remaining readings, quizzes last.
var kindPriority = map[models.Kind]int{
	models.KindBrief:          0,
	models.KindWeeklyOverview: 1,
	models.KindTTSReading:     2,
	models.KindReading:        3,
	models.KindOther:          3,
	models.KindQuiz:           4,
}

// Sort orders episodes in place according to the configured mode and
// returns the slice. In group mode the keys are: group ascending (numeric
// week, then lecture), kind priority within the group, publish time
// descending, then file ID so no two episodes ever compare equal.
// Ungrouped episodes follow all grouped ones and order purely by publish
// time descending. Recency mode drops the group and kind keys.
func Sort(episodes []models.Episode, mode config.SortMode) []models.Episode {
	sort.SliceStable(episodes, func(i, j int) bool {
		return less(&episodes[i], &episodes[j], mode)
	})
	return episodes
}

func less(a, b *models.Episode, mode config.SortMode) bool {
	if mode == config.SortByGroup {
		aw, al, aok := classify.ParseGroupKey(a.GroupKey)
		bw, bl, bok := classify.ParseGroupKey(b.GroupKey)
		if aok != bok {
			// Ungrouped episodes are an appendix: they sort after every
			// grouped episode, by recency.
			return aok
		}
		if aok && bok {
			if aw != bw {
				return aw < bw
			}
			if al != bl {
				return al < bl
			}
			// Kind priority only ranks episodes inside a real group.
			ap, bp := kindPriority[a.Kind], kindPriority[b.Kind]
			if ap != bp {
				return ap < bp
			}
		}
	}
	if !a.PublishedAt.Equal(b.PublishedAt) {
		return a.PublishedAt.After(b.PublishedAt)
	}
	return a.File.ID < b.File.ID
}
