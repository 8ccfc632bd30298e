package main

import (
	"context"
	"log"

	"github.com/anonto42/persona-sim/backend/internal/agent"
	"github.com/anonto42/persona-sim/backend/internal/engine"
	"github.com/anonto42/persona-sim/backend/internal/memory"
	"github.com/anonto42/persona-sim/backend/internal/ratelimit"
	"github.com/anonto42/persona-sim/backend/internal/repositories"
	"github.com/anonto42/persona-sim/backend/internal/router"
	"github.com/anonto42/persona-sim/backend/internal/timesource"
	"github.com/anonto42/persona-sim/backend/pkg/config"
	"github.com/anonto42/persona-sim/backend/validators"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Repositories
	actorRepo := repositories.NewPostgresActorRepository(db.Postgres)
	postRepo := repositories.NewPostgresPostRepository(db.Postgres)
	reactionRepo := repositories.NewPostgresReactionRepository(db.Postgres)
	followRepo := repositories.NewPostgresFollowRepository(db.Postgres)
	sentimentRepo := repositories.NewMongoSentimentRepository(db.Mongo.Database("personasim"))

	// External collaborators
	decider := agent.NewOpenAIAgent(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.OpenAIEmbedModel)
	mem, err := memory.NewStore(cfg.MemoryDBPath, decider, cfg.EmbedDimensions, logger)
	if err != nil {
		log.Fatalf("Failed to open memory store: %v", err)
	}
	defer mem.Close()

	timeSrc := timesource.NewClient(cfg.NTPAddr)
	limiter := ratelimit.NewRollingWindowLimiter(
		sentimentRepo, timeSrc, cfg.RateMaxReactions, cfg.RateWindow, cfg.NTPTimeout, logger,
	)

	// Simulation engine
	queue := engine.NewQueue(logger)
	defer queue.Close()

	interactions := engine.NewInteractions(actorRepo, postRepo, reactionRepo, mem, decider, queue, logger)
	interactions.Register(queue)

	embedPipeline := engine.NewEmbedPipeline(mem, queue, logger)
	embedPipeline.Register(queue)

	broadcaster := engine.NewBroadcaster(
		followRepo, sentimentRepo, mem, decider, limiter, queue, cfg.CascadeMaxDepth, logger,
	)
	broadcaster.Register(queue)

	registerObservabilityTap(queue, logger)

	pulse := engine.NewPulse(cfg.PulseCron, actorRepo, queue, logger)
	if err := pulse.Start(); err != nil {
		log.Fatalf("Failed to start simulation pulse: %v", err)
	}
	defer pulse.Stop()

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, db.Postgres, router.Repos{
		Actors:    actorRepo,
		Posts:     postRepo,
		Reactions: reactionRepo,
		Follows:   followRepo,
	}, queue)

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// registerObservabilityTap subscribes a logging-only handler next to each
// functional interaction handler.
func registerObservabilityTap(queue *engine.Queue, logger *zap.Logger) {
	intents := []engine.Intent{
		engine.IntentTweet,
		engine.IntentReply,
		engine.IntentQuote,
		engine.IntentRetweet,
		engine.IntentLike,
		engine.IntentDND,
	}
	for _, intent := range intents {
		queue.On(intent, func(_ context.Context, task engine.Task) {
			logger.Info("interaction dispatched",
				zap.String("task_id", task.ID),
				zap.String("intent", string(task.Intent)),
			)
		})
	}
}
