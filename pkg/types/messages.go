package types

import "github.com/shopspring/decimal"

// Envelope is the unit pushed over the websocket. Seq orders envelopes
// within a session; a client resyncing from a snapshot drops anything with
// Seq at or below the snapshot's.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
	Seq  uint64 `json:"seq"`
}

// Recognized envelope types.
const (
	TypeSnapshot         = "snapshot"
	TypeAuctionStarted   = "auction_started"
	TypeNewBid           = "new_bid"
	TypeBidUpdated       = "bid_updated"
	TypePlayerSold       = "player_sold"
	TypePlayerUnsold     = "player_unsold"
	TypeNextPlayer       = "next_player"
	TypeAuctionCompleted = "auction_completed"
	TypeAuctionReset     = "auction_reset"
)

type PlayerData struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	Role      string          `json:"role"`
	BasePrice decimal.Decimal `json:"base_price"`
}

type AuctionStartedData struct {
	Player PlayerData `json:"player"`
}

type NewBidData struct {
	PlayerID   uint            `json:"player_id"`
	PlayerName string          `json:"player_name"`
	TeamID     uint            `json:"team_id"`
	TeamName   string          `json:"team_name"`
	Amount     decimal.Decimal `json:"bid_amount"`
}

type PlayerSoldData struct {
	PlayerID   uint            `json:"player_id"`
	PlayerName string          `json:"player_name"`
	TeamID     uint            `json:"team_id"`
	TeamName   string          `json:"team_name"`
	SoldPrice  decimal.Decimal `json:"sold_price"`
}

type PlayerUnsoldData struct {
	PlayerID   uint   `json:"player_id"`
	PlayerName string `json:"player_name"`
}

type NextPlayerData struct {
	Player PlayerData `json:"player"`
}

type ResetData struct {
	PlayersReset int `json:"players_reset"`
	TeamsReset   int `json:"teams_reset"`
}
