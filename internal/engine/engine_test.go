package engine

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func mustApply(t *testing.T, s State, cmd Command) ([]Event, State) {
	t.Helper()
	events, next, err := Apply(s, cmd)
	if err != nil {
		t.Fatalf("%s: %v", cmd.Type, err)
	}
	return events, next
}

func TestStart(t *testing.T) {
	t.Run("picks the first player by auction order", func(t *testing.T) {
		s := testState()
		p := s.Players[3]
		p.AuctionOrder = 1
		s.Players[3] = p

		events, next := mustApply(t, s, Command{Type: CmdStart})

		if next.Session.Status != SessionInProgress {
			t.Fatalf("status = %s", next.Session.Status)
		}
		if next.Session.CurrentPlayerID != 3 {
			t.Fatalf("current player = %d, want 3", next.Session.CurrentPlayerID)
		}
		if next.Players[3].Status != StatusInAuction {
			t.Fatalf("player status = %s", next.Players[3].Status)
		}
		if len(events) != 1 || events[0].Type != EvtAuctionStarted {
			t.Fatalf("events = %+v", events)
		}
	})

	t.Run("unordered players fall back to id order", func(t *testing.T) {
		_, next := mustApply(t, testState(), Command{Type: CmdStart})
		if next.Session.CurrentPlayerID != 1 {
			t.Fatalf("current player = %d, want 1", next.Session.CurrentPlayerID)
		}
	})

	t.Run("empty pool", func(t *testing.T) {
		s := NewState(testRules())
		_, _, err := Apply(s, Command{Type: CmdStart})
		if !errors.Is(err, ErrNoPlayersAvailable) {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("double start", func(t *testing.T) {
		s := inProgress(t)
		_, _, err := Apply(s, Command{Type: CmdStart})
		if !errors.Is(err, ErrAlreadyStarted) {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("unpaid players stay out of the pool", func(t *testing.T) {
		s := testState()
		for id, p := range s.Players {
			p.FeePaid = false
			s.Players[id] = p
		}
		_, _, err := Apply(s, Command{Type: CmdStart})
		if !errors.Is(err, ErrNoPlayersAvailable) {
			t.Fatalf("got %v", err)
		}
	})
}

// The walkthrough from the league rules: Team 1 opens at base, a lowball
// counter is rejected, the hammer falls, the ledger moves exactly once.
func TestBidAndSellWalkthrough(t *testing.T) {
	s := inProgress(t)

	_, s = mustApply(t, s, Command{Type: CmdPlaceBid, TeamID: 1, Amount: rupees(10000)})
	if !s.Session.CurrentBid.Equal(rupees(10000)) || s.Session.CurrentTeamID != 1 {
		t.Fatalf("after bid: amount=%s team=%d", s.Session.CurrentBid, s.Session.CurrentTeamID)
	}

	_, _, err := Apply(s, Command{Type: CmdPlaceBid, TeamID: 2, Amount: rupees(8000)})
	if !errors.Is(err, ErrBidTooLow) {
		t.Fatalf("lowball: got %v, want ErrBidTooLow", err)
	}

	events, s := mustApply(t, s, Command{Type: CmdMarkSold})

	player := s.Players[1]
	if player.Status != StatusSold || !player.SoldPrice.Equal(rupees(10000)) || player.TeamID != 1 {
		t.Fatalf("player after sale: %+v", player)
	}
	winner := s.Teams[1]
	if !winner.Spent.Equal(rupees(10000)) || winner.PlayersCount != 1 {
		t.Fatalf("winner ledger: spent=%s count=%d", winner.Spent, winner.PlayersCount)
	}
	other := s.Teams[2]
	if !other.Spent.Equal(decimal.Zero) || other.PlayersCount != 0 {
		t.Fatalf("other team ledger moved: spent=%s count=%d", other.Spent, other.PlayersCount)
	}
	if s.Session.CurrentPlayerID != 2 || s.Session.CurrentTeamID != 0 {
		t.Fatalf("did not advance cleanly: %+v", s.Session)
	}
	if len(events) != 2 || events[0].Type != EvtPlayerSold || events[1].Type != EvtNextPlayer {
		t.Fatalf("events = %+v", events)
	}
}

func TestMarkSoldWithoutBidder(t *testing.T) {
	s := inProgress(t)
	_, _, err := Apply(s, Command{Type: CmdMarkSold})
	if !errors.Is(err, ErrNoBidder) {
		t.Fatalf("got %v, want ErrNoBidder", err)
	}
}

func TestCurrentBidIsNonDecreasingUnderValidBids(t *testing.T) {
	s := inProgress(t)
	last := decimal.Zero
	amounts := []int64{10000, 15000, 25000, 30000, 50000}
	for i, amount := range amounts {
		team := uint(1 + i%2)
		_, next, err := Apply(s, Command{Type: CmdPlaceBid, TeamID: team, Amount: rupees(amount)})
		if err != nil {
			t.Fatalf("bid %d: %v", amount, err)
		}
		if next.Session.CurrentBid.LessThan(last) {
			t.Fatalf("bid decreased: %s after %s", next.Session.CurrentBid, last)
		}
		last = next.Session.CurrentBid
		s = next
	}
}

func TestSellOutCompletesSession(t *testing.T) {
	s := inProgress(t)
	for i := 0; i < 3; i++ {
		_, s = mustApply(t, s, Command{Type: CmdPlaceBid, TeamID: 1, Amount: s.Session.CurrentBid})
		events, next := mustApply(t, s, Command{Type: CmdMarkSold})
		s = next
		if i == 2 {
			if s.Session.Status != SessionCompleted {
				t.Fatalf("status = %s, want completed", s.Session.Status)
			}
			if events[len(events)-1].Type != EvtAuctionCompleted {
				t.Fatalf("events = %+v", events)
			}
		}
	}
	if s.Session.CurrentPlayerID != 0 {
		t.Fatalf("completed session still has a current player")
	}
}

func TestMarkUnsold(t *testing.T) {
	t.Run("pending player returns to pool and session advances", func(t *testing.T) {
		s := inProgress(t)
		events, next := mustApply(t, s, Command{Type: CmdMarkUnsold})
		if next.Players[1].Status != StatusUnsold {
			t.Fatalf("status = %s", next.Players[1].Status)
		}
		if next.Session.CurrentPlayerID != 2 {
			t.Fatalf("current = %d", next.Session.CurrentPlayerID)
		}
		if events[0].Type != EvtPlayerUnsold || events[1].Type != EvtNextPlayer {
			t.Fatalf("events = %+v", events)
		}
	})

	t.Run("correction of a past sale reverses the ledger exactly", func(t *testing.T) {
		s := inProgress(t)
		_, s = mustApply(t, s, Command{Type: CmdPlaceBid, TeamID: 1, Amount: rupees(40000)})
		_, s = mustApply(t, s, Command{Type: CmdMarkSold})

		_, next := mustApply(t, s, Command{Type: CmdMarkUnsold, PlayerID: 1})

		player := next.Players[1]
		if player.Status != StatusUnsold || player.TeamID != 0 || !player.SoldPrice.Equal(decimal.Zero) {
			t.Fatalf("player after correction: %+v", player)
		}
		team := next.Teams[1]
		if !team.Spent.Equal(decimal.Zero) || team.PlayersCount != 0 {
			t.Fatalf("ledger not reversed: spent=%s count=%d", team.Spent, team.PlayersCount)
		}
		// The correction does not disturb the lot on the block.
		if next.Session.CurrentPlayerID != s.Session.CurrentPlayerID {
			t.Fatalf("correction moved the session")
		}
	})
}

func TestEditLastBid(t *testing.T) {
	t.Run("rewrites team and amount without the increment rule", func(t *testing.T) {
		s := inProgress(t)
		_, s = mustApply(t, s, Command{Type: CmdPlaceBid, TeamID: 1, Amount: rupees(150000)})

		// 15000 is far below 150000+increment; the correction takes it anyway.
		events, next := mustApply(t, s, Command{Type: CmdEditLastBid, TeamID: 2, Amount: rupees(15000)})
		if !next.Session.CurrentBid.Equal(rupees(15000)) || next.Session.CurrentTeamID != 2 {
			t.Fatalf("after edit: %+v", next.Session)
		}
		if events[0].Type != EvtBidUpdated {
			t.Fatalf("events = %+v", events)
		}
	})

	t.Run("still enforces base price and budget", func(t *testing.T) {
		s := inProgress(t)
		_, s = mustApply(t, s, Command{Type: CmdPlaceBid, TeamID: 1, Amount: rupees(10000)})

		if _, _, err := Apply(s, Command{Type: CmdEditLastBid, TeamID: 2, Amount: rupees(5000)}); !errors.Is(err, ErrBidTooLow) {
			t.Fatalf("below base: got %v", err)
		}
		if _, _, err := Apply(s, Command{Type: CmdEditLastBid, TeamID: 2, Amount: rupees(950000)}); !errors.Is(err, ErrBudgetExceeded) {
			t.Fatalf("over budget: got %v", err)
		}
	})

	t.Run("nothing to edit without a standing bid", func(t *testing.T) {
		s := inProgress(t)
		_, _, err := Apply(s, Command{Type: CmdEditLastBid, TeamID: 1, Amount: rupees(10000)})
		if !errors.Is(err, ErrNoBidder) {
			t.Fatalf("got %v", err)
		}
	})
}

func TestNextRandom(t *testing.T) {
	restore := pickRandom
	defer func() { pickRandom = restore }()
	pickRandom = func(ids []uint) uint { return ids[0] }

	t.Run("skips the pending player and re-offers unsold ones", func(t *testing.T) {
		s := inProgress(t) // player 1 on the block
		events, next := mustApply(t, s, Command{Type: CmdNextRandom})

		if next.Players[1].Status != StatusUnsold {
			t.Fatalf("pending player not skipped: %s", next.Players[1].Status)
		}
		if next.Session.CurrentPlayerID != 2 {
			t.Fatalf("current = %d", next.Session.CurrentPlayerID)
		}
		if events[0].Type != EvtPlayerUnsold || events[1].Type != EvtNextPlayer {
			t.Fatalf("events = %+v", events)
		}

		// Player 1 is unsold now; a later random pass may draw it again.
		_, after := mustApply(t, next, Command{Type: CmdNextRandom})
		if after.Session.CurrentPlayerID != 1 {
			t.Fatalf("unsold player not re-offered, current = %d", after.Session.CurrentPlayerID)
		}
	})

	t.Run("requires an active session", func(t *testing.T) {
		_, _, err := Apply(testState(), Command{Type: CmdNextRandom})
		if !errors.Is(err, ErrSessionNotActive) {
			t.Fatalf("got %v", err)
		}
	})
}

func TestResetRestoresBaseline(t *testing.T) {
	s := inProgress(t)
	// Sell two players to different teams, skip one.
	_, s = mustApply(t, s, Command{Type: CmdPlaceBid, TeamID: 1, Amount: rupees(20000)})
	_, s = mustApply(t, s, Command{Type: CmdMarkSold})
	_, s = mustApply(t, s, Command{Type: CmdPlaceBid, TeamID: 2, Amount: rupees(35000)})
	_, s = mustApply(t, s, Command{Type: CmdMarkSold})
	_, s = mustApply(t, s, Command{Type: CmdMarkUnsold})

	events, next := mustApply(t, s, Command{Type: CmdReset})

	for id, p := range next.Players {
		if p.Status != StatusAvailable || p.TeamID != 0 || !p.SoldPrice.Equal(decimal.Zero) {
			t.Fatalf("player %d not at baseline: %+v", id, p)
		}
	}
	for id, team := range next.Teams {
		if !team.Spent.Equal(decimal.Zero) || team.PlayersCount != 0 {
			t.Fatalf("team %d not zeroed: %+v", id, team)
		}
	}
	if next.Session.Status != SessionNotStarted || next.Session.CurrentPlayerID != 0 {
		t.Fatalf("session not reset: %+v", next.Session)
	}
	if len(events) != 1 || events[0].Type != EvtAuctionReset {
		t.Fatalf("events = %+v", events)
	}
}

func TestSetOrder(t *testing.T) {
	s := testState()
	_, next, err := Apply(s, Command{Type: CmdSetOrder, Order: []OrderEntry{
		{PlayerID: 2, Order: 1},
		{PlayerID: 1, Order: 2},
		{PlayerID: 99, Order: 3}, // unknown ids are skipped
	}})
	if err != nil {
		t.Fatalf("set order: %v", err)
	}
	if next.Players[2].AuctionOrder != 1 || next.Players[1].AuctionOrder != 2 {
		t.Fatalf("orders = %d, %d", next.Players[2].AuctionOrder, next.Players[1].AuctionOrder)
	}

	_, started, _ := Apply(next, Command{Type: CmdStart})
	if started.Session.CurrentPlayerID != 2 {
		t.Fatalf("order not honored, current = %d", started.Session.CurrentPlayerID)
	}
}

func TestEventSeqIsStrictlyIncreasing(t *testing.T) {
	s := testState()
	cmds := []Command{
		{Type: CmdStart},
		{Type: CmdPlaceBid, TeamID: 1, Amount: rupees(10000)},
		{Type: CmdMarkSold},
		{Type: CmdMarkUnsold},
		{Type: CmdReset},
	}
	var last uint64
	for _, cmd := range cmds {
		events, next, err := Apply(s, cmd)
		if err != nil {
			t.Fatalf("%s: %v", cmd.Type, err)
		}
		for _, evt := range events {
			if evt.Seq <= last {
				t.Fatalf("seq not increasing: %d after %d (%s)", evt.Seq, last, evt.Type)
			}
			last = evt.Seq
		}
		s = next
	}
}

func TestRejectedCommandLeavesStateUntouched(t *testing.T) {
	s := inProgress(t)
	_, s = mustApply(t, s, Command{Type: CmdPlaceBid, TeamID: 1, Amount: rupees(10000)})

	_, after, err := Apply(s, Command{Type: CmdPlaceBid, TeamID: 2, Amount: rupees(11000)})
	if err == nil {
		t.Fatalf("expected rejection")
	}
	if !after.Session.CurrentBid.Equal(rupees(10000)) || after.Session.CurrentTeamID != 1 {
		t.Fatalf("state changed on rejection: %+v", after.Session)
	}
}
