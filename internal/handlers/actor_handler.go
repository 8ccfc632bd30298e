package handlers

import (
	"net/http"

	"github.com/anonto42/persona-sim/backend/internal/models"
	"github.com/anonto42/persona-sim/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// ActorHandler handles HTTP requests related to actors
type ActorHandler struct {
	actorRepository  repositories.ActorRepository
	followRepository repositories.FollowRepository
}

// NewActorHandler creates a new ActorHandler
func NewActorHandler(actorRepo repositories.ActorRepository, followRepo repositories.FollowRepository) *ActorHandler {
	return &ActorHandler{
		actorRepository:  actorRepo,
		followRepository: followRepo,
	}
}

// RegisterActorRoutes registers actor-related routes
func (h *ActorHandler) RegisterActorRoutes(g *echo.Group) {
	g.POST("/actors", h.CreateActor)
	g.GET("/actors", h.GetActors)
	g.GET("/actors/:handle", h.GetActorProfile)
	g.POST("/actors/:handle/follow", h.FollowActor)
	g.DELETE("/actors/:handle/follow", h.UnfollowActor)
}

// CreateActor handles creating a new persona (operator tooling)
func (h *ActorHandler) CreateActor(c echo.Context) error {
	req := new(models.CreateActorRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	actor := &models.Actor{
		Handle:      req.Handle,
		DisplayName: req.DisplayName,
		Persona:     req.Persona,
		Tone:        req.Tone,
		Bio:         req.Bio,
	}
	if err := h.actorRepository.CreateActor(actor); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, actor)
}

// GetActors retrieves all actors
func (h *ActorHandler) GetActors(c echo.Context) error {
	actors, err := h.actorRepository.GetActors()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, actors)
}

// GetActorProfile retrieves an actor with its derived social counts
func (h *ActorHandler) GetActorProfile(c echo.Context) error {
	handle := c.Param("handle")

	actor, err := h.actorRepository.GetActorByHandle(handle)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Actor not found")
	}

	followersCount, err := h.followRepository.GetFollowersCount(actor.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	followingCount, err := h.followRepository.GetFollowingCount(actor.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, models.ActorProfile{
		Actor:          *actor,
		FollowersCount: followersCount,
		FollowingCount: followingCount,
	})
}

// FollowActor creates a follow edge: the actor named in the body starts
// following the actor named in the path.
func (h *ActorHandler) FollowActor(c echo.Context) error {
	handle := c.Param("handle")

	req := new(models.CreateFollowRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	followed, err := h.actorRepository.GetActorByHandle(handle)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Actor not found")
	}
	follower, err := h.actorRepository.GetActorByHandle(req.FollowerHandle)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Follower actor not found")
	}
	if follower.ID == followed.ID {
		return echo.NewHTTPError(http.StatusBadRequest, "An actor cannot follow itself")
	}

	isFollowing, err := h.followRepository.IsFollowing(follower.ID, followed.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if isFollowing {
		return echo.NewHTTPError(http.StatusConflict, "Already following this actor")
	}

	follow := &models.Follow{FollowerID: follower.ID, FollowingID: followed.ID}
	if err := h.followRepository.CreateFollow(follow); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, follow)
}

// UnfollowActor removes a follow edge
func (h *ActorHandler) UnfollowActor(c echo.Context) error {
	handle := c.Param("handle")

	req := new(models.CreateFollowRequest)
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	followed, err := h.actorRepository.GetActorByHandle(handle)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Actor not found")
	}
	follower, err := h.actorRepository.GetActorByHandle(req.FollowerHandle)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Follower actor not found")
	}

	if err := h.followRepository.DeleteFollow(follower.ID, followed.ID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Follow relationship not found")
	}
	return c.NoContent(http.StatusNoContent)
}
