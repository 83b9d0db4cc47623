package selector

import (
	"sort"

	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/config"
	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/model"
)

// Result is the outcome of selection for one entity. ChosenKeys is the
// set of canonical URLs handed back to the ledger; the drop counters
// feed the per-entity observability.
type Result struct {
	Top          []model.ScoredCandidate
	Glance       []model.ScoredCandidate
	ChosenKeys   []string
	DroppedSeen  int
	DroppedScore int
	DroppedCap   int
}

// Select applies, in strict order: the freshness filter, the
// must-include override, top-tier thresholding with the entity cap,
// glance-tier selection requiring topical novelty, and the same-URL
// collapse. An empty result is a normal outcome.
//
// seen holds canonical URLs already shown within the dedupe window;
// nothing in it can be selected, regardless of score — the must-include
// override never bypasses freshness.
func Select(candidates []model.ScoredCandidate, seen map[string]bool, th config.Thresholds, topCap int) Result {
	if topCap <= 0 {
		topCap = th.MaxTop
	}

	var res Result

	fresh := make([]model.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		if seen[c.CanonicalURL] {
			res.DroppedSeen++
			continue
		}
		fresh = append(fresh, c)
	}

	sortCandidates(fresh)

	chosen := make(map[string]bool)
	topTags := make(map[string]bool)

	for _, c := range fresh {
		if chosen[c.CanonicalURL] {
			// Same-URL collapse: already selected in the higher tier.
			continue
		}
		switch {
		case c.Score >= th.MustIncludeScore:
			res.Top = append(res.Top, c)
		case c.Score >= th.TopMinScore && len(res.Top) < topCap:
			res.Top = append(res.Top, c)
		default:
			continue
		}
		chosen[c.CanonicalURL] = true
		coverTags(topTags, c)
	}

	for _, c := range fresh {
		if chosen[c.CanonicalURL] || len(res.Glance) >= th.MaxGlance {
			continue
		}
		if c.Score < th.GlanceRange[0] || c.Score >= th.GlanceRange[1] {
			continue
		}
		// Glance items must introduce a tag the top tier does not cover.
		if !addsNewTag(topTags, c) {
			continue
		}
		res.Glance = append(res.Glance, c)
		chosen[c.CanonicalURL] = true
		coverTags(topTags, c)
	}

	for _, c := range fresh {
		if chosen[c.CanonicalURL] {
			continue
		}
		// A candidate above the top threshold was dropped by the cap,
		// not by its score.
		if c.Score >= th.TopMinScore {
			res.DroppedCap++
		} else {
			res.DroppedScore++
		}
	}

	res.ChosenKeys = make([]string, 0, len(res.Top)+len(res.Glance))
	for _, c := range res.Top {
		res.ChosenKeys = append(res.ChosenKeys, c.CanonicalURL)
	}
	for _, c := range res.Glance {
		res.ChosenKeys = append(res.ChosenKeys, c.CanonicalURL)
	}

	return res
}

// coverTags marks every tag on a selected candidate as covered. A
// candidate with no tags covers the default tag.
func coverTags(covered map[string]bool, c model.ScoredCandidate) {
	if len(c.Tags) == 0 {
		covered[model.TagOther] = true
		return
	}
	for _, tag := range c.Tags {
		covered[tag.Name] = true
	}
}

// addsNewTag reports whether any of the candidate's tags is absent from
// the covered set.
func addsNewTag(covered map[string]bool, c model.ScoredCandidate) bool {
	if len(c.Tags) == 0 {
		return !covered[model.TagOther]
	}
	for _, tag := range c.Tags {
		if !covered[tag.Name] {
			return true
		}
	}
	return false
}

// sortCandidates orders by descending score, breaking ties by earlier
// publish time and then canonical URL so runs are byte-identical given
// identical input.
func sortCandidates(cands []model.ScoredCandidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		ti, tj := cands[i].EarliestPub, cands[j].EarliestPub
		if !ti.Equal(tj) {
			// Zero publish times sort after known ones.
			if ti.IsZero() {
				return false
			}
			if tj.IsZero() {
				return true
			}
			return ti.Before(tj)
		}
		return cands[i].CanonicalURL < cands[j].CanonicalURL
	})
}
