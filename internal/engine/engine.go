package engine

import (
	"errors"
	"math/rand"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var ErrSessionNotActive = errors.New("no active auction session")
var ErrAlreadyStarted = errors.New("auction already started")
var ErrNoPlayersAvailable = errors.New("no players available for auction")
var ErrNoBidder = errors.New("no bids placed for this player")
var ErrBidTooLow = errors.New("bid below base price")
var ErrInvalidIncrement = errors.New("bid below minimum increment")
var ErrBudgetExceeded = errors.New("bid exceeds maximum bid limit")
var ErrTeamNotFound = errors.New("team not found")
var ErrPlayerNotFound = errors.New("player not found")
var ErrPlayerAlreadySold = errors.New("player already sold")
var ErrUnsupportedCommand = errors.New("unsupported command")

type CommandType string

const (
	CmdStart       CommandType = "Start"
	CmdPlaceBid    CommandType = "PlaceBid"
	CmdMarkSold    CommandType = "MarkSold"
	CmdMarkUnsold  CommandType = "MarkUnsold"
	CmdEditLastBid CommandType = "EditLastBid"
	CmdNextRandom  CommandType = "NextRandom"
	CmdReset       CommandType = "Reset"
	CmdSetOrder    CommandType = "SetOrder"
)

type OrderEntry struct {
	PlayerID uint `json:"player_id"`
	Order    int  `json:"order"`
}

type Command struct {
	Type     CommandType
	TeamID   uint
	PlayerID uint // MarkUnsold only: non-zero targets a past sale correction
	Amount   decimal.Decimal
	Order    []OrderEntry
}

type EventType string

const (
	EvtAuctionStarted   EventType = "auction_started"
	EvtNewBid           EventType = "new_bid"
	EvtBidUpdated       EventType = "bid_updated"
	EvtPlayerSold       EventType = "player_sold"
	EvtPlayerUnsold     EventType = "player_unsold"
	EvtNextPlayer       EventType = "next_player"
	EvtAuctionCompleted EventType = "auction_completed"
	EvtAuctionReset     EventType = "auction_reset"
)

// Event carries the ids the broadcast payload and the store need. Seq is
// assigned here so ordering is fixed before anything leaves the engine.
type Event struct {
	Type     EventType
	PlayerID uint
	TeamID   uint
	Amount   decimal.Decimal
	Seq      uint64
}

// pickRandom selects one id; swapped out by tests for determinism.
var pickRandom = func(ids []uint) uint {
	return ids[rand.Intn(len(ids))]
}

// Apply runs one command against the state and returns the emitted events
// and the next state. On error the input state is returned unchanged; the
// caller adopts the next state only after persisting it.
func Apply(s State, cmd Command) ([]Event, State, error) {
	switch cmd.Type {
	case CmdStart:
		return applyStart(s)
	case CmdPlaceBid:
		return applyPlaceBid(s, cmd)
	case CmdMarkSold:
		return applyMarkSold(s)
	case CmdMarkUnsold:
		return applyMarkUnsold(s, cmd)
	case CmdEditLastBid:
		return applyEditLastBid(s, cmd)
	case CmdNextRandom:
		return applyNextRandom(s)
	case CmdReset:
		return applyReset(s)
	case CmdSetOrder:
		return applySetOrder(s, cmd)
	default:
		return nil, s, ErrUnsupportedCommand
	}
}

func applyStart(s State) ([]Event, State, error) {
	if s.Session.Status != SessionNotStarted {
		return nil, s, ErrAlreadyStarted
	}
	pool := orderedPool(s, 0)
	if len(pool) == 0 {
		return nil, s, ErrNoPlayersAvailable
	}
	next := s.clone()
	first := next.Players[pool[0]]
	putOnBlock(&next, first)
	next.Session.Status = SessionInProgress
	next.Session.StartedAt = time.Now().UTC()

	events := []Event{next.emit(EvtAuctionStarted, first.ID, 0, first.BasePrice)}
	return events, next, nil
}

func applyPlaceBid(s State, cmd Command) ([]Event, State, error) {
	if err := ValidateBid(s, cmd.TeamID, cmd.Amount); err != nil {
		return nil, s, err
	}
	next := s.clone()
	next.Session.CurrentBid = cmd.Amount
	next.Session.CurrentTeamID = cmd.TeamID

	events := []Event{next.emit(EvtNewBid, next.Session.CurrentPlayerID, cmd.TeamID, cmd.Amount)}
	return events, next, nil
}

func applyMarkSold(s State) ([]Event, State, error) {
	if s.Session.Status != SessionInProgress {
		return nil, s, ErrSessionNotActive
	}
	if s.Session.CurrentTeamID == 0 {
		return nil, s, ErrNoBidder
	}
	next := s.clone()
	player := next.Players[next.Session.CurrentPlayerID]
	team := next.Teams[next.Session.CurrentTeamID]

	player.Status = StatusSold
	player.SoldPrice = next.Session.CurrentBid
	player.TeamID = team.ID
	commitSale(&team, next.Session.CurrentBid)
	next.Players[player.ID] = player
	next.Teams[team.ID] = team

	events := []Event{next.emit(EvtPlayerSold, player.ID, team.ID, player.SoldPrice)}
	events = append(events, advance(&next, orderedPool(next, player.ID))...)
	return events, next, nil
}

func applyMarkUnsold(s State, cmd Command) ([]Event, State, error) {
	if s.Session.Status != SessionInProgress {
		return nil, s, ErrSessionNotActive
	}

	// Explicit target: post-hoc correction of a past sale. Reverses the
	// ledger commit exactly before reclassifying, and does not advance.
	if cmd.PlayerID != 0 && cmd.PlayerID != s.Session.CurrentPlayerID {
		player, ok := s.Players[cmd.PlayerID]
		if !ok {
			return nil, s, ErrPlayerNotFound
		}
		next := s.clone()
		if player.Status == StatusSold {
			team := next.Teams[player.TeamID]
			reverseSale(&team, player.SoldPrice)
			next.Teams[team.ID] = team
		}
		player.Status = StatusUnsold
		player.TeamID = 0
		player.SoldPrice = decimal.Zero
		next.Players[player.ID] = player

		events := []Event{next.emit(EvtPlayerUnsold, player.ID, 0, decimal.Zero)}
		return events, next, nil
	}

	player, ok := s.CurrentPlayer()
	if !ok {
		return nil, s, ErrPlayerNotFound
	}
	next := s.clone()
	player.Status = StatusUnsold
	next.Players[player.ID] = player

	events := []Event{next.emit(EvtPlayerUnsold, player.ID, 0, decimal.Zero)}
	events = append(events, advance(&next, orderedPool(next, player.ID))...)
	return events, next, nil
}

// applyEditLastBid rewrites the standing bid after a manual entry mistake.
// Base price and budget limits are re-checked so the purse invariant holds;
// the increment rule deliberately is not.
func applyEditLastBid(s State, cmd Command) ([]Event, State, error) {
	if s.Session.Status != SessionInProgress {
		return nil, s, ErrSessionNotActive
	}
	player, ok := s.CurrentPlayer()
	if !ok {
		return nil, s, ErrPlayerNotFound
	}
	if player.Status == StatusSold {
		return nil, s, ErrPlayerAlreadySold
	}
	if s.Session.CurrentTeamID == 0 {
		return nil, s, ErrNoBidder
	}
	team, ok := s.Teams[cmd.TeamID]
	if !ok {
		return nil, s, ErrTeamNotFound
	}
	if cmd.Amount.LessThan(player.BasePrice) {
		return nil, s, ErrBidTooLow
	}
	if cmd.Amount.GreaterThan(MaxBid(team, s.Rules.BasePlayerPrice)) {
		return nil, s, ErrBudgetExceeded
	}
	next := s.clone()
	next.Session.CurrentBid = cmd.Amount
	next.Session.CurrentTeamID = cmd.TeamID

	events := []Event{next.emit(EvtBidUpdated, player.ID, cmd.TeamID, cmd.Amount)}
	return events, next, nil
}

func applyNextRandom(s State) ([]Event, State, error) {
	if s.Session.Status != SessionInProgress {
		return nil, s, ErrSessionNotActive
	}
	next := s.clone()
	var events []Event

	// A still-pending player is skipped, not silently dropped.
	if player, ok := next.CurrentPlayer(); ok && player.Status == StatusInAuction {
		player.Status = StatusUnsold
		next.Players[player.ID] = player
		events = append(events, next.emit(EvtPlayerUnsold, player.ID, 0, decimal.Zero))
	}

	pool := randomPool(next, next.Session.CurrentPlayerID)
	if len(pool) == 0 {
		return nil, s, ErrNoPlayersAvailable
	}
	chosen := next.Players[pickRandom(pool)]
	putOnBlock(&next, chosen)
	events = append(events, next.emit(EvtNextPlayer, chosen.ID, 0, chosen.BasePrice))
	return events, next, nil
}

func applyReset(s State) ([]Event, State, error) {
	next := s.clone()
	for id, p := range next.Players {
		p.Status = StatusAvailable
		p.TeamID = 0
		p.SoldPrice = decimal.Zero
		next.Players[id] = p
	}
	for id, t := range next.Teams {
		t.Spent = decimal.Zero
		t.PlayersCount = 0
		next.Teams[id] = t
	}
	next.Session = Session{Status: SessionNotStarted}

	events := []Event{next.emit(EvtAuctionReset, 0, 0, decimal.Zero)}
	return events, next, nil
}

func applySetOrder(s State, cmd Command) ([]Event, State, error) {
	next := s.clone()
	for _, entry := range cmd.Order {
		p, ok := next.Players[entry.PlayerID]
		if !ok {
			continue
		}
		p.AuctionOrder = entry.Order
		next.Players[entry.PlayerID] = p
	}
	return nil, next, nil
}

// emit stamps the session sequence number onto a new event.
func (s *State) emit(t EventType, playerID, teamID uint, amount decimal.Decimal) Event {
	s.Seq++
	return Event{Type: t, PlayerID: playerID, TeamID: teamID, Amount: amount, Seq: s.Seq}
}

// putOnBlock makes the player the current lot with a clean bid slate.
func putOnBlock(s *State, p Player) {
	p.Status = StatusInAuction
	s.Players[p.ID] = p
	s.Session.CurrentPlayerID = p.ID
	s.Session.CurrentBid = p.BasePrice
	s.Session.CurrentTeamID = 0
}

// advance moves the session to the next lot, or completes it when the pool
// is exhausted.
func advance(s *State, pool []uint) []Event {
	if len(pool) == 0 {
		s.Session.Status = SessionCompleted
		s.Session.CurrentPlayerID = 0
		s.Session.CurrentBid = decimal.Zero
		s.Session.CurrentTeamID = 0
		s.Session.EndedAt = time.Now().UTC()
		return []Event{s.emit(EvtAuctionCompleted, 0, 0, decimal.Zero)}
	}
	next := s.Players[pool[0]]
	putOnBlock(s, next)
	return []Event{s.emit(EvtNextPlayer, next.ID, 0, next.BasePrice)}
}

// orderedPool lists available, fee-paid players by auction order (unset
// orders last), then id.
func orderedPool(s State, exclude uint) []uint {
	var ids []uint
	for id, p := range s.Players {
		if p.Status == StatusAvailable && p.FeePaid && id != exclude {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := s.Players[ids[i]], s.Players[ids[j]]
		ao, bo := a.AuctionOrder, b.AuctionOrder
		if ao == 0 {
			ao = int(^uint(0) >> 1)
		}
		if bo == 0 {
			bo = int(^uint(0) >> 1)
		}
		if ao != bo {
			return ao < bo
		}
		return a.ID < b.ID
	})
	return ids
}

// randomPool also re-offers previously unsold players.
func randomPool(s State, exclude uint) []uint {
	var ids []uint
	for id, p := range s.Players {
		if (p.Status == StatusAvailable || p.Status == StatusUnsold) && p.FeePaid && id != exclude {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
