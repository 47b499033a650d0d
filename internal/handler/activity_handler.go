package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/withmates/activity-service/internal/dto"
	"github.com/withmates/activity-service/internal/middleware"
	"github.com/withmates/activity-service/internal/models"
	"github.com/withmates/activity-service/internal/repository"
	"github.com/withmates/activity-service/internal/service"
)

type ActivityHandler struct {
	svc             service.ActivityService
	participantRepo repository.ParticipantRepository
}

func NewActivityHandler(svc service.ActivityService, participantRepo repository.ParticipantRepository) *ActivityHandler {
	return &ActivityHandler{svc: svc, participantRepo: participantRepo}
}

func (h *ActivityHandler) RegisterRoutes(g *echo.Group) {
	activities := g.Group("/activities")
	activities.POST("", h.CreateActivity)
	activities.GET("", h.ListActivities)
	activities.GET("/:id", h.GetActivity)
	activities.DELETE("/:id", h.DeleteActivity)
	activities.POST("/:id/cancel", h.CancelActivity)
	activities.POST("/:id/complete", h.CompleteActivity)

	g.GET("/me/activities", h.ListMyActivities)
}

func (h *ActivityHandler) CreateActivity(c echo.Context) error {
	var req dto.CreateActivityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}

	activity, err := h.svc.CreateActivity(c.Request().Context(), req.ToModel(middleware.CallerID(c)))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, dto.ToActivityResponse(activity))
}

// GetActivity returns the activity along with its derived capacity: spots held
// come from a live ledger count, never a stored fullness flag.
func (h *ActivityHandler) GetActivity(c echo.Context) error {
	activityID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	activity, err := h.svc.GetActivity(c.Request().Context(), activityID)
	if err != nil {
		return httpError(err)
	}

	held, err := h.participantRepo.CountHoldingSpot(c.Request().Context(), nil, activity.ID)
	if err != nil {
		return httpError(err)
	}

	available := activity.TotalSpots - int(held)
	return c.JSON(http.StatusOK, dto.ActivityStatusResponse{
		ActivityResponse: dto.ToActivityResponse(activity),
		SpotsHeld:        held,
		AvailableSpots:   available,
		Full:             available <= 0,
	})
}

func (h *ActivityHandler) ListActivities(c echo.Context) error {
	activities, err := h.svc.ListActivities(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toActivityResponses(activities))
}

func (h *ActivityHandler) ListMyActivities(c echo.Context) error {
	var status *models.ActivityStatus
	if s := c.QueryParam("status"); s != "" {
		as := models.ActivityStatus(s)
		status = &as
	}

	activities, err := h.svc.ListByCreator(c.Request().Context(), middleware.CallerID(c), status)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toActivityResponses(activities))
}

func (h *ActivityHandler) CancelActivity(c echo.Context) error {
	activityID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	activity, err := h.svc.CancelActivity(c.Request().Context(), activityID, middleware.CallerID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.ToActivityResponse(activity))
}

func (h *ActivityHandler) CompleteActivity(c echo.Context) error {
	activityID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	activity, err := h.svc.CompleteActivity(c.Request().Context(), activityID, middleware.CallerID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.ToActivityResponse(activity))
}

func (h *ActivityHandler) DeleteActivity(c echo.Context) error {
	activityID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.svc.DeleteActivity(c.Request().Context(), activityID, middleware.CallerID(c)); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func toActivityResponses(activities []models.Activity) []dto.ActivityResponse {
	resp := make([]dto.ActivityResponse, len(activities))
	for i := range activities {
		resp[i] = dto.ToActivityResponse(&activities[i])
	}
	return resp
}
