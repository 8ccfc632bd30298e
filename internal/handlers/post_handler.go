package handlers

import (
	"net/http"

	"github.com/anonto42/persona-sim/backend/internal/engine"
	"github.com/anonto42/persona-sim/backend/internal/models"
	"github.com/anonto42/persona-sim/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	postRepository     repositories.PostRepository
	actorRepository    repositories.ActorRepository
	reactionRepository repositories.ReactionRepository
	queue              *engine.Queue
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postRepo repositories.PostRepository, actorRepo repositories.ActorRepository, reactionRepo repositories.ReactionRepository, queue *engine.Queue) *PostHandler {
	return &PostHandler{
		postRepository:     postRepo,
		actorRepository:    actorRepo,
		reactionRepository: reactionRepo,
		queue:              queue,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.SeedPost)
	g.GET("/posts/:id", h.GetPost)
	g.GET("/posts/:id/reactions", h.GetPostReactions)
}

// SeedPost enqueues a tweet on behalf of an actor, handing the content to
// the simulation engine. The post itself is created asynchronously by the
// tweet handler, which then cascades through embedding and broadcast.
func (h *PostHandler) SeedPost(c echo.Context) error {
	req := new(models.CreatePostRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	actor, err := h.actorRepository.GetActorByHandle(req.AuthorHandle)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Author not found")
	}

	h.queue.Send(engine.IntentTweet, engine.InteractionArgs{
		ActorID:     actor.ID,
		ActorHandle: actor.Handle,
		Text:        req.Content,
	})

	return c.JSON(http.StatusAccepted, echo.Map{
		"status": "queued",
		"author": actor.Handle,
	})
}

// GetPost retrieves a post and its engagement counters
func (h *PostHandler) GetPost(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid post ID")
	}

	post, err := h.postRepository.GetPostByID(id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	return c.JSON(http.StatusOK, post)
}

// GetPostReactions retrieves all reactions recorded for a post
func (h *PostHandler) GetPostReactions(c echo.Context) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid post ID")
	}

	if _, err := h.postRepository.GetPostByID(id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	reactions, err := h.reactionRepository.GetReactionsByPostID(id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, reactions)
}
