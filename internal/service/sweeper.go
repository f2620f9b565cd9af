package service

import (
	"context"
	"log"
	"time"

	"github.com/mvaldes/quadrant-governance/internal/config"
	"github.com/mvaldes/quadrant-governance/internal/repository"
)

// Sweeper drives the time-based maintenance loops: influence decay,
// sector revenue, war duration checks, contested-flip resolution and
// expired-invite cleanup. Each loop logs failures and keeps ticking.
type Sweeper struct {
	territory  *TerritoryService
	war        *WarService
	inviteRepo repository.InviteRepository
	cfg        *config.Config
}

func NewSweeper(territory *TerritoryService, war *WarService, inviteRepo repository.InviteRepository, cfg *config.Config) *Sweeper {
	return &Sweeper{
		territory:  territory,
		war:        war,
		inviteRepo: inviteRepo,
		cfg:        cfg,
	}
}

// Run blocks until ctx is cancelled
func (s *Sweeper) Run(ctx context.Context) {
	go s.loop(ctx, "decay", s.cfg.DecaySweepInterval, s.territory.Decay)
	go s.loop(ctx, "revenue", s.cfg.RevenueTickInterval, s.territory.RevenueTick)
	go s.loop(ctx, "war", s.cfg.WarTickInterval, s.war.Tick)
	go s.loop(ctx, "contest", s.cfg.ContestSweepInterval, s.territory.ResolveContests)
	go s.loop(ctx, "invites", time.Hour, s.cleanupInvites)
	<-ctx.Done()
}

func (s *Sweeper) loop(ctx context.Context, name string, interval time.Duration, fn func(context.Context, time.Time) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if err := fn(ctx, now); err != nil {
				log.Printf("ERROR [sweeper] %s sweep: %v", name, err)
			}
		}
	}
}

func (s *Sweeper) cleanupInvites(ctx context.Context, now time.Time) error {
	removed, err := s.inviteRepo.DeleteExpired(ctx, now)
	if err != nil {
		return err
	}
	if removed > 0 {
		log.Printf("[sweeper] removed %d expired invites", removed)
	}
	return nil
}
