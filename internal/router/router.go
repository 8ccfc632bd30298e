package router

import (
	"log"

	"github.com/anonto42/persona-sim/backend/internal/engine"
	"github.com/anonto42/persona-sim/backend/internal/handlers"
	"github.com/anonto42/persona-sim/backend/internal/models"
	"github.com/anonto42/persona-sim/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// Repos bundles the repositories shared between the HTTP surface and the
// simulation engine.
type Repos struct {
	Actors    repositories.ActorRepository
	Posts     repositories.PostRepository
	Reactions repositories.ReactionRepository
	Follows   repositories.FollowRepository
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, repos Repos, queue *engine.Queue) {
	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.Actor{},
		&models.Post{},
		&models.Reaction{},
		&models.Follow{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	api := e.Group("/api/v1")

	// Actor routes (operator tooling for personas)
	actorHandler := handlers.NewActorHandler(repos.Actors, repos.Follows)
	actorHandler.RegisterActorRoutes(api)
	log.Println("Actor routes configured.")

	// Post routes (seed posts into the simulation, inspect state)
	postHandler := handlers.NewPostHandler(repos.Posts, repos.Actors, repos.Reactions, queue)
	postHandler.RegisterPostRoutes(api)
	log.Println("Post routes configured.")
}
