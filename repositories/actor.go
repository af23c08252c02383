//go:generate go run go.uber.org/mock/mockgen -source=actor.go -destination=../mocks/mock_actor_repository.go -package=mocks
package repositories

import (
	"artisan-link/domain"
	"artisan-link/errors"
	stderrors "errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// IActorRepository is the boundary with the profile directory owned by another service.
// This module only reads it, apart from local seeding.
type IActorRepository interface {
	GetActor(id string) (Actor, error)
	UpsertActor(actor Actor) error
}

// Actor is the directory row of an NGO, an artisan or any other account.
type Actor struct {
	ID          string `gorm:"primaryKey;size:64"`
	Role        string `gorm:"size:16;index;not null"`
	DisplayName string `gorm:"size:120"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (a Actor) DomainRole() (domain.Role, error) {
	return domain.ParseRole(a.Role)
}

type ActorRepository struct {
	db *gorm.DB
}

// OpenActorDirectory opens the SQLite directory and migrates the actor table.
func OpenActorDirectory(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open actor directory: %w", err)
	}
	if err = db.AutoMigrate(&Actor{}); err != nil {
		return nil, fmt.Errorf("migrate actor directory: %w", err)
	}
	return db, nil
}

func NewActorRepository(db *gorm.DB) IActorRepository {
	return &ActorRepository{db: db}
}

func (r *ActorRepository) GetActor(id string) (Actor, error) {
	var actor Actor
	err := r.db.First(&actor, "id = ?", id).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return Actor{}, fmt.Errorf("%w: actor %s", errors.ErrNotFound, id)
	}
	return actor, err
}

// UpsertActor inserts the actor or refreshes its role and display name.
func (r *ActorRepository) UpsertActor(actor Actor) error {
	if _, err := actor.DomainRole(); err != nil {
		return err
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "display_name", "updated_at"}),
	}).Create(&actor).Error
}
