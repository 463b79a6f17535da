package auction

import (
	"sort"

	"github.com/skycourt-league/auction-backend/internal/engine"
)

func sortTeams(teams []engine.Team) {
	sort.Slice(teams, func(i, j int) bool { return teams[i].ID < teams[j].ID })
}

func sortPlayers(players []engine.Player) {
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
}
