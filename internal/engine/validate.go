package engine

import "github.com/shopspring/decimal"

// ValidateBid decides whether team may bid amount against the current
// state. Checks run in a fixed order and the first failure wins. No side
// effects.
func ValidateBid(s State, teamID uint, amount decimal.Decimal) error {
	if s.Session.Status != SessionInProgress {
		return ErrSessionNotActive
	}
	player, ok := s.CurrentPlayer()
	if !ok {
		return ErrPlayerNotFound
	}
	team, ok := s.Teams[teamID]
	if !ok {
		return ErrTeamNotFound
	}
	if amount.LessThan(player.BasePrice) {
		return ErrBidTooLow
	}
	if s.Session.CurrentTeamID != 0 {
		// Opening bids only need the base price; after that the increment
		// rule applies.
		floor := s.Session.CurrentBid.Add(s.Rules.MinIncrement)
		if amount.LessThan(floor) {
			return ErrInvalidIncrement
		}
	}
	if amount.GreaterThan(MaxBid(team, s.Rules.BasePlayerPrice)) {
		return ErrBudgetExceeded
	}
	return nil
}
