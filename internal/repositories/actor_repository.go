package repositories

import (
	"github.com/anonto42/persona-sim/backend/internal/models"
	"gorm.io/gorm"
)

// ActorRepository defines the interface for actor data operations
type ActorRepository interface {
	CreateActor(actor *models.Actor) error
	GetActorByID(id uint) (*models.Actor, error)
	GetActorByHandle(handle string) (*models.Actor, error)
	GetActors() ([]models.Actor, error)
}

// PostgresActorRepository implements ActorRepository for PostgreSQL
type PostgresActorRepository struct {
	db *gorm.DB
}

// NewPostgresActorRepository creates a new PostgresActorRepository
func NewPostgresActorRepository(db *gorm.DB) *PostgresActorRepository {
	return &PostgresActorRepository{db: db}
}

// CreateActor creates a new actor in PostgreSQL
func (r *PostgresActorRepository) CreateActor(actor *models.Actor) error {
	return r.db.Create(actor).Error
}

// GetActorByID retrieves an actor by ID from PostgreSQL
func (r *PostgresActorRepository) GetActorByID(id uint) (*models.Actor, error) {
	var actor models.Actor
	if err := r.db.First(&actor, id).Error; err != nil {
		return nil, err
	}
	return &actor, nil
}

// GetActorByHandle retrieves an actor by its unique handle from PostgreSQL
func (r *PostgresActorRepository) GetActorByHandle(handle string) (*models.Actor, error) {
	var actor models.Actor
	if err := r.db.Where("handle = ?", handle).First(&actor).Error; err != nil {
		return nil, err
	}
	return &actor, nil
}

// GetActors retrieves all actors from PostgreSQL
func (r *PostgresActorRepository) GetActors() ([]models.Actor, error) {
	var actors []models.Actor
	if err := r.db.Find(&actors).Error; err != nil {
		return nil, err
	}
	return actors, nil
}
