package repositories

import (
	"fmt"

	"github.com/anonto42/persona-sim/backend/internal/models"
	"gorm.io/gorm"
)

// ReactionRepository defines the interface for reaction data operations
type ReactionRepository interface {
	HasReaction(kind models.ReactionKind, actorID, postID uint) (bool, error)
	CreateReactionAndIncrement(reaction *models.Reaction) error
	GetReactionsByPostID(postID uint) ([]models.Reaction, error)
}

// PostgresReactionRepository implements ReactionRepository for PostgreSQL
type PostgresReactionRepository struct {
	db *gorm.DB
}

// NewPostgresReactionRepository creates a new PostgresReactionRepository
func NewPostgresReactionRepository(db *gorm.DB) *PostgresReactionRepository {
	return &PostgresReactionRepository{db: db}
}

// HasReaction checks whether a reaction of the given kind already exists for
// the (actor, post) pair
func (r *PostgresReactionRepository) HasReaction(kind models.ReactionKind, actorID, postID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Reaction{}).
		Where("kind = ? AND actor_id = ? AND post_id = ?", kind, actorID, postID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateReactionAndIncrement creates a reaction and increments the matching
// engagement counter on the post in a single transaction, so the counter and
// the reaction record never diverge.
func (r *PostgresReactionRepository) CreateReactionAndIncrement(reaction *models.Reaction) error {
	counter, err := counterColumn(reaction.Kind)
	if err != nil {
		return err
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(reaction).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Post{}).Where("id = ?", reaction.PostID).
			Update(counter, gorm.Expr(counter+" + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("post %d not found", reaction.PostID)
		}
		return nil
	})
}

// GetReactionsByPostID retrieves all reactions for a specific post
func (r *PostgresReactionRepository) GetReactionsByPostID(postID uint) ([]models.Reaction, error) {
	var reactions []models.Reaction
	if err := r.db.Where("post_id = ?", postID).Find(&reactions).Error; err != nil {
		return nil, err
	}
	return reactions, nil
}

func counterColumn(kind models.ReactionKind) (string, error) {
	switch kind {
	case models.ReactionFavorite:
		return "favorite_count", nil
	case models.ReactionRepost:
		return "repost_count", nil
	default:
		return "", fmt.Errorf("unknown reaction kind %q", kind)
	}
}
