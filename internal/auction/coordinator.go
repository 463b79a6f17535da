package auction

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/skycourt-league/auction-backend/internal/engine"
	"github.com/skycourt-league/auction-backend/internal/hub"
	"github.com/skycourt-league/auction-backend/pkg/types"
)

// ErrInternal is returned when a command was legal but could not be
// persisted. No state change is retained in that case.
var ErrInternal = errors.New("internal error: commit failed")

// Store is the transactional read/write contract the coordinator commits
// through. A Commit failure must leave the durable rows untouched.
type Store interface {
	Load(ctx context.Context, rules engine.Rules) (engine.State, error)
	Commit(ctx context.Context, prev, next engine.State, events []engine.Event) error
}

type Msg interface{ isCoordMsg() }

type Do struct {
	Cmd   engine.Command
	Reply chan Result
}

type GetState struct {
	Reply chan Snapshot
}

type Shutdown struct{}

func (Do) isCoordMsg()       {}
func (GetState) isCoordMsg() {}
func (Shutdown) isCoordMsg() {}

type Result struct {
	Snapshot Snapshot
	Err      error
}

// Snapshot is the complete current view: enough for a reconnecting client
// to resynchronize without replaying events.
type Snapshot struct {
	Seq           uint64          `json:"seq"`
	Session       engine.Session  `json:"session"`
	CurrentPlayer *engine.Player  `json:"current_player,omitempty"`
	CurrentTeam   *engine.Team    `json:"current_bidding_team,omitempty"`
	Teams         []engine.Team   `json:"teams"`
	Players       []engine.Player `json:"players"`
}

// Coordinator is the only writer of auction state. All mutations funnel
// through one inbox goroutine, so no two ever interleave; each one is
// validated, committed to the store, and only then broadcast.
type Coordinator struct {
	inbox  chan Msg
	state  engine.State
	store  Store
	hub    *hub.Hub
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewCoordinator(parent context.Context, initial engine.State, store Store, h *hub.Hub, log *zap.Logger) *Coordinator {
	ctx, cancel := context.WithCancel(parent)
	c := &Coordinator{
		inbox:  make(chan Msg, 64),
		state:  initial,
		store:  store,
		hub:    h,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	go c.loop()
	return c
}

func (c *Coordinator) loop() {
	for {
		select {
		case <-c.ctx.Done():
			return

		case m := <-c.inbox:
			switch msg := m.(type) {
			case Do:
				msg.Reply <- c.execute(msg.Cmd)

			case GetState:
				msg.Reply <- c.snapshot()

			case Shutdown:
				c.cancel()
				return
			}
		}
	}
}

func (c *Coordinator) execute(cmd engine.Command) Result {
	events, next, err := engine.Apply(c.state, cmd)
	if err != nil {
		return Result{Snapshot: c.snapshot(), Err: err}
	}

	commitCtx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
	defer cancel()
	if err := c.store.Commit(commitCtx, c.state, next, events); err != nil {
		c.log.Error("commit failed, state unchanged",
			zap.String("command", string(cmd.Type)), zap.Error(err))
		return Result{Snapshot: c.snapshot(), Err: ErrInternal}
	}

	c.state = next
	if len(events) > 0 {
		c.hub.Inbox() <- hub.Publish{Envelopes: c.envelopes(events)}
	}
	return Result{Snapshot: c.snapshot()}
}

func (c *Coordinator) snapshot() Snapshot {
	snap := Snapshot{
		Seq:     c.state.Seq,
		Session: c.state.Session,
		Teams:   make([]engine.Team, 0, len(c.state.Teams)),
		Players: make([]engine.Player, 0, len(c.state.Players)),
	}
	if p, ok := c.state.CurrentPlayer(); ok {
		player := p
		snap.CurrentPlayer = &player
	}
	if t, ok := c.state.Teams[c.state.Session.CurrentTeamID]; ok && c.state.Session.CurrentTeamID != 0 {
		team := t
		snap.CurrentTeam = &team
	}
	for _, t := range c.state.Teams {
		snap.Teams = append(snap.Teams, t)
	}
	for _, p := range c.state.Players {
		snap.Players = append(snap.Players, p)
	}
	sortTeams(snap.Teams)
	sortPlayers(snap.Players)
	return snap
}

// envelopes enriches engine events with the names viewers render.
func (c *Coordinator) envelopes(events []engine.Event) []types.Envelope {
	out := make([]types.Envelope, 0, len(events))
	for _, evt := range events {
		env := types.Envelope{Type: string(evt.Type), Seq: evt.Seq}
		player := c.state.Players[evt.PlayerID]
		team := c.state.Teams[evt.TeamID]

		switch evt.Type {
		case engine.EvtAuctionStarted:
			env.Data = types.AuctionStartedData{Player: playerData(player)}
		case engine.EvtNewBid, engine.EvtBidUpdated:
			env.Data = types.NewBidData{
				PlayerID: player.ID, PlayerName: player.Name,
				TeamID: team.ID, TeamName: team.Name,
				Amount: evt.Amount,
			}
		case engine.EvtPlayerSold:
			env.Data = types.PlayerSoldData{
				PlayerID: player.ID, PlayerName: player.Name,
				TeamID: team.ID, TeamName: team.Name,
				SoldPrice: evt.Amount,
			}
		case engine.EvtPlayerUnsold:
			env.Data = types.PlayerUnsoldData{PlayerID: player.ID, PlayerName: player.Name}
		case engine.EvtNextPlayer:
			env.Data = types.NextPlayerData{Player: playerData(player)}
		case engine.EvtAuctionReset:
			env.Data = types.ResetData{
				PlayersReset: len(c.state.Players),
				TeamsReset:   len(c.state.Teams),
			}
		}
		out = append(out, env)
	}
	return out
}

func playerData(p engine.Player) types.PlayerData {
	return types.PlayerData{ID: p.ID, Name: p.Name, Role: p.Role, BasePrice: p.BasePrice}
}

// Do submits one mutating command and waits for the serialized outcome.
func (c *Coordinator) Do(ctx context.Context, cmd engine.Command) (Snapshot, error) {
	reply := make(chan Result, 1)
	select {
	case c.inbox <- Do{Cmd: cmd, Reply: reply}:
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case res := <-reply:
		return res.Snapshot, res.Err
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Snapshot returns a consistent read of the current state.
func (c *Coordinator) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	select {
	case c.inbox <- GetState{Reply: reply}:
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Convenience wrappers for the external operations.

func (c *Coordinator) Start(ctx context.Context) (Snapshot, error) {
	return c.Do(ctx, engine.Command{Type: engine.CmdStart})
}

func (c *Coordinator) PlaceBid(ctx context.Context, teamID uint, amount decimal.Decimal) (Snapshot, error) {
	return c.Do(ctx, engine.Command{Type: engine.CmdPlaceBid, TeamID: teamID, Amount: amount})
}

func (c *Coordinator) MarkSold(ctx context.Context) (Snapshot, error) {
	return c.Do(ctx, engine.Command{Type: engine.CmdMarkSold})
}

func (c *Coordinator) MarkUnsold(ctx context.Context, playerID uint) (Snapshot, error) {
	return c.Do(ctx, engine.Command{Type: engine.CmdMarkUnsold, PlayerID: playerID})
}

func (c *Coordinator) EditLastBid(ctx context.Context, teamID uint, amount decimal.Decimal) (Snapshot, error) {
	return c.Do(ctx, engine.Command{Type: engine.CmdEditLastBid, TeamID: teamID, Amount: amount})
}

func (c *Coordinator) NextRandom(ctx context.Context) (Snapshot, error) {
	return c.Do(ctx, engine.Command{Type: engine.CmdNextRandom})
}

func (c *Coordinator) Reset(ctx context.Context) (Snapshot, error) {
	return c.Do(ctx, engine.Command{Type: engine.CmdReset})
}

func (c *Coordinator) SetOrder(ctx context.Context, order []engine.OrderEntry) (Snapshot, error) {
	return c.Do(ctx, engine.Command{Type: engine.CmdSetOrder, Order: order})
}
