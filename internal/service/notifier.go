package service

import (
	"log"

	"github.com/mvaldes/quadrant-governance/internal/domain"
)

// Notifier receives outbound state deltas for broadcast and persistence
// collaborators. Implementations must not block: services emit after the
// mutation has committed, and delivery failures never roll state back.
type Notifier interface {
	TeamStateChanged(event domain.TeamStateChanged)
	TerritoryControlChanged(event domain.TerritoryControlChanged)
	WarStatusChanged(event domain.WarStatusChanged)
	TreasuryChanged(event domain.TreasuryChanged)
}

// LogNotifier writes every notification to the process log. It backs the
// fan-out as the always-on sink.
type LogNotifier struct{}

func (LogNotifier) TeamStateChanged(e domain.TeamStateChanged) {
	log.Printf("notify [team] team=%s change=%s actor=%s", e.TeamID, e.Change, e.ActorID)
}

func (LogNotifier) TerritoryControlChanged(e domain.TerritoryControlChanged) {
	log.Printf("notify [territory] sector=%s prev=%v new=%v", e.SectorID, e.PreviousController, e.NewController)
}

func (LogNotifier) WarStatusChanged(e domain.WarStatusChanged) {
	log.Printf("notify [war] war=%s status=%s outcome=%v", e.WarID, e.Status, e.Outcome)
}

func (LogNotifier) TreasuryChanged(e domain.TreasuryChanged) {
	log.Printf("notify [treasury] team=%s balance=%d", e.TeamID, e.Balance)
}

// FanoutNotifier forwards each notification to every registered sink
type FanoutNotifier struct {
	sinks []Notifier
}

func NewFanoutNotifier(sinks ...Notifier) *FanoutNotifier {
	return &FanoutNotifier{sinks: sinks}
}

func (f *FanoutNotifier) TeamStateChanged(e domain.TeamStateChanged) {
	for _, s := range f.sinks {
		s.TeamStateChanged(e)
	}
}

func (f *FanoutNotifier) TerritoryControlChanged(e domain.TerritoryControlChanged) {
	for _, s := range f.sinks {
		s.TerritoryControlChanged(e)
	}
}

func (f *FanoutNotifier) WarStatusChanged(e domain.WarStatusChanged) {
	for _, s := range f.sinks {
		s.WarStatusChanged(e)
	}
}

func (f *FanoutNotifier) TreasuryChanged(e domain.TreasuryChanged) {
	for _, s := range f.sinks {
		s.TreasuryChanged(e)
	}
}
