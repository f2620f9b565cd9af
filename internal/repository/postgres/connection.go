package postgres

import (
	"github.com/mvaldes/quadrant-governance/internal/domain"
	"github.com/mvaldes/quadrant-governance/internal/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewConnection(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate runs the schema auto-migration for every governance aggregate
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Team{},
		&domain.TeamMember{},
		&domain.TeamInvite{},
		&domain.Treasury{},
		&domain.TreasuryEntry{},
		&domain.Sector{},
		&domain.SectorInfluence{},
		&domain.War{},
		&domain.WarBattle{},
		&domain.Alliance{},
		&domain.AllianceMember{},
		&domain.PactProposal{},
		&domain.PactVote{},
	)
}

func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		Team:     NewTeamRepository(db),
		Member:   NewMemberRepository(db),
		Invite:   NewInviteRepository(db),
		Treasury: NewTreasuryRepository(db),
		Sector:   NewSectorRepository(db),
		War:      NewWarRepository(db),
		Alliance: NewAllianceRepository(db),
	}
}
