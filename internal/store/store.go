package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/skycourt-league/auction-backend/internal/engine"
)

// Team, Player, Session and Bid are the durable rows behind the engine
// state. Columns mirror the engine types; the bid ledger is append-only.

type Team struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"uniqueIndex" json:"name"`
	ShortName    string          `gorm:"size:3" json:"short_name"`
	TotalBudget  decimal.Decimal `gorm:"type:numeric" json:"total_budget"`
	Spent        decimal.Decimal `gorm:"type:numeric" json:"spent"`
	PlayersCount int             `json:"players_count"`
	MinSquadSize int             `json:"min_squad_size"`
	MaxSquadSize int             `json:"max_squad_size"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type Player struct {
	ID           uint                `gorm:"primaryKey" json:"id"`
	Name         string              `json:"name"`
	Role         string              `json:"role"`
	BasePrice    decimal.Decimal     `gorm:"type:numeric" json:"base_price"`
	Status       engine.PlayerStatus `gorm:"index" json:"status"`
	SoldPrice    decimal.Decimal     `gorm:"type:numeric" json:"sold_price"`
	TeamID       uint                `json:"team_id"`
	AuctionOrder int                 `json:"auction_order"`
	FeePaid      bool                `json:"fee_paid"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

type Session struct {
	ID              uint                 `gorm:"primaryKey" json:"id"`
	Status          engine.SessionStatus `json:"status"`
	CurrentPlayerID uint                 `json:"current_player_id"`
	CurrentBid      decimal.Decimal      `gorm:"type:numeric" json:"current_bid_amount"`
	CurrentTeamID   uint                 `json:"current_bidding_team_id"`
	Seq             uint64               `json:"seq"`
	StartedAt       time.Time            `json:"started_at"`
	EndedAt         time.Time            `json:"ended_at"`
}

type Bid struct {
	ID       uint            `gorm:"primaryKey" json:"id"`
	PlayerID uint            `gorm:"index" json:"player_id"`
	TeamID   uint            `json:"team_id"`
	Amount   decimal.Decimal `gorm:"type:numeric" json:"bid_amount"`
	Seq      uint64          `json:"seq"`
	Winning  bool            `json:"is_winning_bid"`
	PlacedAt time.Time       `gorm:"autoCreateTime" json:"placed_at"`
}

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Team{}, &Player{}, &Session{}, &Bid{})
}

// Load rebuilds the engine state from the durable rows.
func (s *Store) Load(ctx context.Context, rules engine.Rules) (engine.State, error) {
	state := engine.NewState(rules)

	var teams []Team
	if err := s.db.WithContext(ctx).Find(&teams).Error; err != nil {
		return state, err
	}
	for _, t := range teams {
		state.Teams[t.ID] = engine.Team{
			ID: t.ID, Name: t.Name, ShortName: t.ShortName,
			TotalBudget: t.TotalBudget, Spent: t.Spent,
			PlayersCount: t.PlayersCount,
			MinSquadSize: t.MinSquadSize, MaxSquadSize: t.MaxSquadSize,
		}
	}

	var players []Player
	if err := s.db.WithContext(ctx).Find(&players).Error; err != nil {
		return state, err
	}
	for _, p := range players {
		state.Players[p.ID] = engine.Player{
			ID: p.ID, Name: p.Name, Role: p.Role,
			BasePrice: p.BasePrice, Status: p.Status, SoldPrice: p.SoldPrice,
			TeamID: p.TeamID, AuctionOrder: p.AuctionOrder, FeePaid: p.FeePaid,
		}
	}

	var session Session
	err := s.db.WithContext(ctx).First(&session, 1).Error
	switch {
	case err == nil:
		state.Session = engine.Session{
			Status:          session.Status,
			CurrentPlayerID: session.CurrentPlayerID,
			CurrentBid:      session.CurrentBid,
			CurrentTeamID:   session.CurrentTeamID,
			StartedAt:       session.StartedAt,
			EndedAt:         session.EndedAt,
		}
		state.Seq = session.Seq
	case errors.Is(err, gorm.ErrRecordNotFound):
		// fresh database, not_started is fine
	default:
		return state, err
	}
	return state, nil
}

// Commit writes one command's outcome in a single transaction: the session
// row, every team/player row that changed, and any new bid ledger entries.
// Any failure rolls the whole thing back.
func (s *Store) Commit(ctx context.Context, prev, next engine.State, events []engine.Event) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session := Session{
			ID:              1,
			Status:          next.Session.Status,
			CurrentPlayerID: next.Session.CurrentPlayerID,
			CurrentBid:      next.Session.CurrentBid,
			CurrentTeamID:   next.Session.CurrentTeamID,
			Seq:             next.Seq,
			StartedAt:       next.Session.StartedAt,
			EndedAt:         next.Session.EndedAt,
		}
		if err := tx.Save(&session).Error; err != nil {
			return err
		}

		for id, t := range next.Teams {
			if p, ok := prev.Teams[id]; ok && teamEqual(p, t) {
				continue
			}
			updates := map[string]any{
				"spent": t.Spent, "players_count": t.PlayersCount,
			}
			if err := tx.Model(&Team{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}

		for id, p := range next.Players {
			if old, ok := prev.Players[id]; ok && playerEqual(old, p) {
				continue
			}
			updates := map[string]any{
				"status": p.Status, "sold_price": p.SoldPrice,
				"team_id": p.TeamID, "auction_order": p.AuctionOrder,
			}
			if err := tx.Model(&Player{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}

		for _, evt := range events {
			switch evt.Type {
			case engine.EvtNewBid:
				bid := Bid{
					PlayerID: evt.PlayerID,
					TeamID:   evt.TeamID,
					Amount:   evt.Amount,
					Seq:      evt.Seq,
				}
				if err := tx.Create(&bid).Error; err != nil {
					return err
				}
			case engine.EvtPlayerSold:
				err := tx.Model(&Bid{}).
					Where("player_id = ? AND team_id = ? AND amount = ?", evt.PlayerID, evt.TeamID, evt.Amount).
					Update("winning", true).Error
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// History returns the append-only bid ledger for one player, oldest first.
func (s *Store) History(ctx context.Context, playerID uint) ([]Bid, error) {
	var bids []Bid
	err := s.db.WithContext(ctx).
		Where("player_id = ?", playerID).
		Order("seq asc").
		Find(&bids).Error
	return bids, err
}

func teamEqual(a, b engine.Team) bool {
	return a.Spent.Equal(b.Spent) && a.PlayersCount == b.PlayersCount
}

func playerEqual(a, b engine.Player) bool {
	return a.Status == b.Status && a.TeamID == b.TeamID &&
		a.AuctionOrder == b.AuctionOrder && a.SoldPrice.Equal(b.SoldPrice)
}
