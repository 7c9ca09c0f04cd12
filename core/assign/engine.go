package assign

import (
	"sort"

	"github.com/pkg/errors"
)

// ErrNoReviewers is returned when no approved, active reviewer exists;
// no project is processed in that case.
var ErrNoReviewers = errors.New("no approved reviewers available")

// ComputePlan matches reviewers to projects by tag affinity, balancing load
// across reviewers. It is pure: the same snapshot and options always produce
// the same plan, and nothing is mutated.
//
// Projects are processed in input order. For each project, every reviewer not
// already assigned to it is scored as
//
//	tag_score - 0.5*load
//
// where tag_score is the size of the intersection of the project's tags and
// the reviewer's interest tags, and load is the reviewer's running assignment
// count (session-scoped when Options.SessionID is set, total otherwise). The
// count includes assignments proposed earlier in the same run, so later
// projects see reviewers' updated load. A reviewer holding MaxPerSession
// assignments in a project's session is excluded outright, not just
// penalized. Ties sort by tag_score, then by reviewer input order.
func ComputePlan(projects []Project, reviewers []Reviewer, opts Options) (Plan, error) {
	if len(reviewers) == 0 {
		return Plan{}, ErrNoReviewers
	}

	target := opts.ReviewersPerProject
	if target <= 0 {
		target = DefaultReviewersPerProject
	}

	// running per-reviewer assignment counts for this run
	counts := make(map[string]int, len(reviewers))
	for _, r := range reviewers {
		if opts.SessionID != "" {
			counts[r.ID] = r.SessionCount
		} else {
			counts[r.ID] = r.TotalCount
		}
	}

	type candidate struct {
		reviewer   *Reviewer
		finalScore float64
		tagScore   int
	}

	var plan Plan
	proposed := make(map[string][]string) // project id -> reviewer ids proposed this run

	for i := range projects {
		prj := &projects[i]

		prjTags := toSet(prj.TagIDs)
		assigned := toSet(prj.ReviewerIDs)
		for _, id := range proposed[prj.ID] {
			assigned[id] = struct{}{}
		}

		candidates := make([]candidate, 0, len(reviewers))
		for j := range reviewers {
			rev := &reviewers[j]
			if _, ok := assigned[rev.ID]; ok {
				continue
			}
			// hard per-session cap
			if prj.SessionID != "" && counts[rev.ID] >= MaxPerSession {
				continue
			}
			tagScore := intersectionSize(prjTags, rev.TagIDs)
			finalScore := float64(tagScore) - loadPenaltyWeight*float64(counts[rev.ID])
			candidates = append(candidates, candidate{rev, finalScore, tagScore})
		}

		// highest score first; stable so equal scores keep reviewer input order
		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].finalScore != candidates[j].finalScore {
				return candidates[i].finalScore > candidates[j].finalScore
			}
			return candidates[i].tagScore > candidates[j].tagScore
		})

		needed := target - len(assigned)
		if needed <= 0 {
			continue // already fully staffed
		}
		if needed > len(candidates) {
			needed = len(candidates)
		}
		for _, c := range candidates[:needed] {
			plan.Proposed = append(plan.Proposed, Pair{ProjectID: prj.ID, ReviewerID: c.reviewer.ID})
			proposed[prj.ID] = append(proposed[prj.ID], c.reviewer.ID)
			counts[c.reviewer.ID]++
		}
	}
	return plan, nil
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func intersectionSize(set map[string]struct{}, ids []string) int {
	var n int
	for _, id := range ids {
		if _, ok := set[id]; ok {
			n++
		}
	}
	return n
}
