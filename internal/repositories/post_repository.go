package repositories

import (
	"fmt"

	"github.com/anonto42/persona-sim/backend/internal/models"
	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(post *models.Post) error
	CreatePostAndIncrementParent(post *models.Post, parentID uint, counter string) error
	GetPostByID(id uint) (*models.Post, error)
	GetPostsByAuthorID(authorID uint, limit int) ([]models.Post, error)
	GetAncestry(id uint, maxDepth int) ([]models.Post, error)
}

// Counter column names accepted by CreatePostAndIncrementParent.
const (
	CounterReplies = "reply_count"
	CounterQuotes  = "quote_count"
)

// PostgresPostRepository implements PostRepository for PostgreSQL
type PostgresPostRepository struct {
	db *gorm.DB
}

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

// CreatePost creates a new post in PostgreSQL
func (r *PostgresPostRepository) CreatePost(post *models.Post) error {
	return r.db.Create(post).Error
}

// CreatePostAndIncrementParent creates a reply or quote post and increments
// the matching counter on the parent post in a single transaction, so the
// counter and the new post never diverge.
func (r *PostgresPostRepository) CreatePostAndIncrementParent(post *models.Post, parentID uint, counter string) error {
	if counter != CounterReplies && counter != CounterQuotes {
		return fmt.Errorf("unknown post counter column %q", counter)
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Post{}).Where("id = ?", parentID).
			Update(counter, gorm.Expr(counter+" + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("parent post %d not found", parentID)
		}
		return nil
	})
}

// GetPostByID retrieves a post by ID from PostgreSQL
func (r *PostgresPostRepository) GetPostByID(id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// GetPostsByAuthorID retrieves the most recent posts by a specific actor
func (r *PostgresPostRepository) GetPostsByAuthorID(authorID uint, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.Where("author_id = ?", authorID).Order("created_at DESC").Limit(limit).Find(&posts).Error
	return posts, err
}

// GetAncestry walks a post's reply/quote parent chain, returning the post
// itself first followed by its ancestors, up to maxDepth hops.
func (r *PostgresPostRepository) GetAncestry(id uint, maxDepth int) ([]models.Post, error) {
	var chain []models.Post
	next := &id
	for depth := 0; next != nil && depth <= maxDepth; depth++ {
		post, err := r.GetPostByID(*next)
		if err != nil {
			return nil, err
		}
		chain = append(chain, *post)
		switch {
		case post.ReplyToID != nil:
			next = post.ReplyToID
		case post.QuoteOfID != nil:
			next = post.QuoteOfID
		default:
			next = nil
		}
	}
	return chain, nil
}
