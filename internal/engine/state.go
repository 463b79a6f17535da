package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

type PlayerStatus string

const (
	StatusRegistered PlayerStatus = "registered"
	StatusAvailable  PlayerStatus = "available"
	StatusInAuction  PlayerStatus = "in_auction"
	StatusSold       PlayerStatus = "sold"
	StatusUnsold     PlayerStatus = "unsold"
)

type SessionStatus string

const (
	SessionNotStarted SessionStatus = "not_started"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
)

type Team struct {
	ID           uint            `json:"id"`
	Name         string          `json:"name"`
	ShortName    string          `json:"short_name"`
	TotalBudget  decimal.Decimal `json:"total_budget"`
	Spent        decimal.Decimal `json:"spent"`
	PlayersCount int             `json:"players_count"`
	MinSquadSize int             `json:"min_squad_size"`
	MaxSquadSize int             `json:"max_squad_size"`
}

type Player struct {
	ID           uint            `json:"id"`
	Name         string          `json:"name"`
	Role         string          `json:"role"`
	BasePrice    decimal.Decimal `json:"base_price"`
	Status       PlayerStatus    `json:"status"`
	SoldPrice    decimal.Decimal `json:"sold_price"`
	TeamID       uint            `json:"team_id"`
	AuctionOrder int             `json:"auction_order"`
	FeePaid      bool            `json:"fee_paid"`
}

// Session is the singleton live-auction record. CurrentTeamID == 0 means no
// bid has been placed on the current player yet.
type Session struct {
	Status          SessionStatus   `json:"status"`
	CurrentPlayerID uint            `json:"current_player_id"`
	CurrentBid      decimal.Decimal `json:"current_bid_amount"`
	CurrentTeamID   uint            `json:"current_bidding_team_id"`
	StartedAt       time.Time       `json:"started_at"`
	EndedAt         time.Time       `json:"ended_at"`
}

// Rules are the league constants that parameterize validation.
type Rules struct {
	MinIncrement    decimal.Decimal
	BasePlayerPrice decimal.Decimal
}

// State is the full in-memory auction state. Apply treats it as a value:
// maps are cloned before mutation so a rejected or aborted command leaves
// the caller's copy untouched.
type State struct {
	Session Session
	Teams   map[uint]Team
	Players map[uint]Player
	Rules   Rules
	Seq     uint64
}

func NewState(rules Rules) State {
	return State{
		Session: Session{Status: SessionNotStarted},
		Teams:   map[uint]Team{},
		Players: map[uint]Player{},
		Rules:   rules,
	}
}

func (s State) clone() State {
	next := s
	next.Teams = make(map[uint]Team, len(s.Teams))
	for id, t := range s.Teams {
		next.Teams[id] = t
	}
	next.Players = make(map[uint]Player, len(s.Players))
	for id, p := range s.Players {
		next.Players[id] = p
	}
	return next
}

// CurrentPlayer returns the player under the hammer, if any.
func (s State) CurrentPlayer() (Player, bool) {
	p, ok := s.Players[s.Session.CurrentPlayerID]
	return p, ok && s.Session.CurrentPlayerID != 0
}
