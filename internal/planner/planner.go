// Package planner implements the round-arrangement engine. Given the
// checked-in players, the court inventory and the pairing history of the
// session so far, it produces a deterministic assignment of players to
// court slots for one round. It is pure: no I/O, no clock, no store.
package planner

import (
	"math"
	"sort"

	"github.com/mauv0809/crispy-shuttle/internal/club"
)

// BuildRound arranges one round. Courts are consumed in ascending index
// order. The result is deterministic for equal inputs: all collections
// are sorted by stable keys before iteration.
func BuildRound(entrants []Entrant, courtIdxs []int, round int, hist *History) Plan {
	plan := Plan{Round: round, Matches: []PlannedMatch{}, Benched: []string{}}

	unassigned := make([]Entrant, len(entrants))
	copy(unassigned, entrants)
	sort.Slice(unassigned, func(i, j int) bool { return unassigned[i].ID < unassigned[j].ID })

	courts := make([]int, len(courtIdxs))
	copy(courts, courtIdxs)
	sort.Ints(courts)

	// Penalties only apply from round 2 on; round 1 has no history.
	penalizedHist := hist
	if round <= 1 {
		penalizedHist = nil
	}

	for len(unassigned) >= 2 && len(courts) > 0 {
		sortByFairness(unassigned)

		pool := doublesPool(unassigned)
		if len(pool) < 4 && hasDoublesOnly(pool) && len(unassigned) >= 4 {
			// Not enough willing players for a full court. Benching a
			// doubles-only player is worse than co-opting singles-only
			// fillers, so the whole field becomes eligible.
			pool = unassigned
		}

		if len(pool) >= 4 {
			match := buildDoubles(pool, courts[0], penalizedHist)
			plan.Matches = append(plan.Matches, match)
			unassigned = removeSeated(unassigned, match)
			courts = courts[1:]
			continue
		}

		// No doubles can be formed. Doubles-only players cannot be served
		// any more this round; bench them and pair the rest as 1v1.
		unassigned = benchDoublesOnly(unassigned, &plan)

		if len(unassigned) < 2 {
			break
		}
		match, rest := buildSingles(unassigned, courts[0], penalizedHist)
		plan.Matches = append(plan.Matches, match)
		unassigned = rest
		courts = courts[1:]
	}

	for _, e := range unassigned {
		plan.Benched = append(plan.Benched, e.ID)
	}
	sort.Strings(plan.Benched)
	return plan
}

// sortByFairness prefers players who played fewer matches so far, then
// lower skill, then id.
func sortByFairness(entrants []Entrant) {
	sort.Slice(entrants, func(i, j int) bool {
		a, b := entrants[i], entrants[j]
		if a.Played != b.Played {
			return a.Played < b.Played
		}
		la, lb := tieBreakLevel(a), tieBreakLevel(b)
		if la != lb {
			return la < lb
		}
		return a.ID < b.ID
	})
}

// tieBreakLevel treats a missing rating as 0. This is only for ordering;
// balance scoring skips unrated players entirely.
func tieBreakLevel(e Entrant) float64 {
	if !e.HasLevel {
		return 0
	}
	return e.Level
}

// doublesPool filters out singles-only players, preserving order. They
// enter a four-player court only via co-option, when a doubles-only
// player would otherwise sit out.
func doublesPool(entrants []Entrant) []Entrant {
	pool := make([]Entrant, 0, len(entrants))
	for _, e := range entrants {
		if e.Category != club.CategorySinglesOnly {
			pool = append(pool, e)
		}
	}
	return pool
}

func hasDoublesOnly(entrants []Entrant) bool {
	for _, e := range entrants {
		if e.Category == club.CategoryDoublesOnly {
			return true
		}
	}
	return false
}

// removeSeated drops the players seated in match from the unassigned
// list.
func removeSeated(entrants []Entrant, match PlannedMatch) []Entrant {
	seated := make(map[string]bool, len(match.Seats))
	for _, s := range match.Seats {
		seated[s.Player] = true
	}
	kept := entrants[:0]
	for _, e := range entrants {
		if !seated[e.ID] {
			kept = append(kept, e)
		}
	}
	return kept
}

// buildDoubles picks four players from the pool and the best of the
// three team splits. Doubles-only players are taken first so none of
// them is left waiting while a court fills with unrestricted players.
func buildDoubles(pool []Entrant, courtIdx int, hist *History) PlannedMatch {
	candidates := make([]Entrant, len(pool))
	copy(candidates, pool)
	sort.SliceStable(candidates, func(i, j int) bool {
		ai := candidates[i].Category == club.CategoryDoublesOnly
		aj := candidates[j].Category == club.CategoryDoublesOnly
		return ai && !aj
	})

	group := candidates[:4]

	// Order the quadruple by skill then id so the split enumeration, and
	// therefore tie-breaking, is anchored at the lowest-skill player.
	sorted := make([]Entrant, 4)
	copy(sorted, group)
	sort.Slice(sorted, func(i, j int) bool {
		li, lj := tieBreakLevel(sorted[i]), tieBreakLevel(sorted[j])
		if li != lj {
			return li < lj
		}
		return sorted[i].ID < sorted[j].ID
	})

	splits := [3][4]int{
		{0, 1, 2, 3}, // {0,1} vs {2,3}
		{0, 2, 1, 3}, // {0,2} vs {1,3}
		{0, 3, 1, 2}, // {0,3} vs {1,2}
	}

	best := splits[0]
	bestScore := math.Inf(1)
	for _, split := range splits {
		score := splitScore(
			sorted[split[0]], sorted[split[1]],
			sorted[split[2]], sorted[split[3]],
			hist,
		)
		if score < bestScore {
			bestScore = score
			best = split
		}
	}

	match := PlannedMatch{
		CourtIdx: courtIdx,
		Type:     club.MatchTypeDoubles,
		Seats: []Seat{
			{Slot: 0, Player: sorted[best[0]].ID},
			{Slot: 1, Player: sorted[best[1]].ID},
			{Slot: 2, Player: sorted[best[2]].ID},
			{Slot: 3, Player: sorted[best[3]].ID},
		},
	}
	return match
}

// splitScore evaluates one team split {a,b} vs {c,d}. Lower is better.
func splitScore(a, b, c, d Entrant, hist *History) float64 {
	partnerGaps := levelGap(a, b) + hist.repeatPenalty(a.ID, b.ID) +
		levelGap(c, d) + hist.repeatPenalty(c.ID, d.ID)

	oppGaps := levelGap(a, c) + hist.repeatPenalty(a.ID, c.ID) +
		levelGap(a, d) + hist.repeatPenalty(a.ID, d.ID) +
		levelGap(b, c) + hist.repeatPenalty(b.ID, c.ID) +
		levelGap(b, d) + hist.repeatPenalty(b.ID, d.ID)

	return partnerGaps + 0.25*oppGaps + teamTotalGap(a, b, c, d)
}

// levelGap is the skill distance between two players, or 0 when either
// has no rating so the unrated player never skews the balance.
func levelGap(x, y Entrant) float64 {
	if !x.HasLevel || !y.HasLevel {
		return 0
	}
	return math.Abs(x.Level - y.Level)
}

func teamTotalGap(a, b, c, d Entrant) float64 {
	if !a.HasLevel || !b.HasLevel || !c.HasLevel || !d.HasLevel {
		return 0
	}
	return math.Abs((a.Level + b.Level) - (c.Level + d.Level))
}

// buildSingles pairs the front of the fairness order with their closest
// singles opponent. Callers must have removed doubles-only players.
func buildSingles(unassigned []Entrant, courtIdx int, hist *History) (PlannedMatch, []Entrant) {
	first := unassigned[0]

	bestIdx := 1
	bestScore := math.Inf(1)
	for i := 1; i < len(unassigned); i++ {
		cand := unassigned[i]
		score := singlesGap(first, cand) + hist.repeatPenalty(first.ID, cand.ID)
		if score < bestScore || (score == bestScore && cand.ID < unassigned[bestIdx].ID) {
			bestScore = score
			bestIdx = i
		}
	}

	opponent := unassigned[bestIdx]
	rest := make([]Entrant, 0, len(unassigned)-2)
	for i, e := range unassigned {
		if i != 0 && i != bestIdx {
			rest = append(rest, e)
		}
	}

	// Slot 0 is unused for singles; players stand at 1 and 2.
	match := PlannedMatch{
		CourtIdx: courtIdx,
		Type:     club.MatchTypeSingles,
		Seats: []Seat{
			{Slot: 1, Player: first.ID},
			{Slot: 2, Player: opponent.ID},
		},
	}
	return match, rest
}

func singlesGap(x, y Entrant) float64 {
	if !x.HasSinglesLevel || !y.HasSinglesLevel {
		return 0
	}
	return math.Abs(x.SinglesLevel - y.SinglesLevel)
}

func benchDoublesOnly(unassigned []Entrant, plan *Plan) []Entrant {
	kept := unassigned[:0]
	for _, e := range unassigned {
		if e.Category == club.CategoryDoublesOnly {
			plan.Benched = append(plan.Benched, e.ID)
			continue
		}
		kept = append(kept, e)
	}
	return kept
}
