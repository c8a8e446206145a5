package club

// EffectiveLevel resolves a player's rating for the given match type.
// When the rating for the intended type is absent it falls back to the
// nearest present rating: doubles and mixed borrow from each other first,
// then from singles; singles borrows doubles then mixed. The boolean is
// false when the player has no rating at all, which disables balance
// weighting against that player.
func (p *PlayerInfo) EffectiveLevel(matchType MatchType) (float64, bool) {
	var order []*float64
	switch matchType {
	case MatchTypeSingles:
		order = []*float64{p.LevelSingle, p.LevelDouble, p.LevelMix}
	case MatchTypeMixed:
		order = []*float64{p.LevelMix, p.LevelDouble, p.LevelSingle}
	default:
		order = []*float64{p.LevelDouble, p.LevelMix, p.LevelSingle}
	}
	for _, l := range order {
		if l != nil {
			return *l, true
		}
	}
	return 0, false
}

// CanPlaySingles reports whether the player's category permits a 1v1 match.
func (p *PlayerInfo) CanPlaySingles() bool {
	return p.Category != CategoryDoublesOnly
}

// DisplayName prefers the alias when one is set.
func (p *PlayerInfo) DisplayName() string {
	if p.Alias != nil && *p.Alias != "" {
		return *p.Alias
	}
	return p.Name
}
