package repositories

import (
	"context"
	"time"

	"github.com/anonto42/persona-sim/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SentimentRepository defines the interface for sentiment data operations
type SentimentRepository interface {
	CreateSentiment(ctx context.Context, sentiment *models.Sentiment) error
	GetSentimentsByActorID(ctx context.Context, actorID uint, limit int64) ([]models.Sentiment, error)
	CountSentimentsSince(ctx context.Context, actorID uint, since time.Time) (int64, error)
}

// MongoSentimentRepository implements SentimentRepository for MongoDB
type MongoSentimentRepository struct {
	collection *mongo.Collection
}

// NewMongoSentimentRepository creates a new MongoSentimentRepository
func NewMongoSentimentRepository(db *mongo.Database) *MongoSentimentRepository {
	return &MongoSentimentRepository{collection: db.Collection("sentiments")}
}

// CreateSentiment creates a new sentiment record in MongoDB
func (r *MongoSentimentRepository) CreateSentiment(ctx context.Context, sentiment *models.Sentiment) error {
	sentiment.ID = primitive.NewObjectID()
	if sentiment.CreatedAt.IsZero() {
		sentiment.CreatedAt = time.Now().UTC()
	}
	_, err := r.collection.InsertOne(ctx, sentiment)
	return err
}

// GetSentimentsByActorID retrieves the most recent sentiments for an actor from MongoDB
func (r *MongoSentimentRepository) GetSentimentsByActorID(ctx context.Context, actorID uint, limit int64) ([]models.Sentiment, error) {
	var sentiments []models.Sentiment
	findOptions := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"actor_id": actorID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &sentiments); err != nil {
		return nil, err
	}
	return sentiments, nil
}

// CountSentimentsSince counts an actor's sentiments created at or after the
// given instant. The boundary is inclusive, matching the rolling window
// semantics of the rate limiter.
func (r *MongoSentimentRepository) CountSentimentsSince(ctx context.Context, actorID uint, since time.Time) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{
		"actor_id":   actorID,
		"created_at": bson.M{"$gte": since},
	})
}
