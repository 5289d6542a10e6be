package system

import (
	"time"

	coresys "github.com/massarena/server/internal/core/system"
	"github.com/massarena/server/internal/world"
	"go.uber.org/zap"
)

// BalanceSystem refreshes the leaderboard, applies mass loss and rebalances
// food and viruses. Phase 3 (Balance), once per balance interval.
type BalanceSystem struct {
	world       *world.World
	leaderboard *world.Leaderboard
	loss        world.MassLossFunc
	log         *zap.Logger
}

func NewBalanceSystem(w *world.World, lb *world.Leaderboard, loss world.MassLossFunc, log *zap.Logger) *BalanceSystem {
	return &BalanceSystem{world: w, leaderboard: lb, loss: loss, log: log}
}

func (s *BalanceSystem) Phase() coresys.Phase { return coresys.PhaseBalance }

func (s *BalanceSystem) Update(_ time.Duration) {
	if s.world.Players.Len() > 0 {
		if s.leaderboard.Update(s.world.Players.Top(world.LeaderboardSize)) {
			s.log.Debug("leaderboard changed", zap.Int("entries", len(s.leaderboard.Entries())))
		}
		s.world.ShrinkPlayers(s.loss)
	}

	r := s.world.BalanceMass()
	if r.FoodAdded > 0 || r.FoodRemoved > 0 || r.VirusesAdded > 0 {
		s.log.Debug("mass balanced",
			zap.Int("food_added", r.FoodAdded),
			zap.Int("food_removed", r.FoodRemoved),
			zap.Int("viruses_added", r.VirusesAdded),
			zap.Int("food", s.world.Food.Len()),
		)
	}
}
