package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/withmates/activity-service/internal/dto"
	"github.com/withmates/activity-service/internal/middleware"
	"github.com/withmates/activity-service/internal/models"
	"github.com/withmates/activity-service/internal/service"
)

type ParticipantHandler struct {
	svc service.ParticipationService
}

func NewParticipantHandler(svc service.ParticipationService) *ParticipantHandler {
	return &ParticipantHandler{svc: svc}
}

func (h *ParticipantHandler) RegisterRoutes(g *echo.Group) {
	activities := g.Group("/activities")
	activities.POST("/:id/interest", h.ExpressInterest)
	activities.DELETE("/:id/interest", h.LeaveActivity)
	activities.DELETE("/:id/interest/cleanup", h.DeleteInterest)
	activities.GET("/:id/participants", h.GetParticipants)
	activities.GET("/:id/interested", h.GetInterestedUsers)

	participants := g.Group("/participants")
	participants.PATCH("/:id/status", h.UpdateStatus)
	participants.POST("/:id/confirm", h.ConfirmJoining)

	g.GET("/me/participations", h.GetMyParticipations)
}

func (h *ParticipantHandler) ExpressInterest(c echo.Context) error {
	activityID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	participant, err := h.svc.ExpressInterest(c.Request().Context(), activityID, middleware.CallerID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, dto.ToParticipantResponse(participant))
}

func (h *ParticipantHandler) UpdateStatus(c echo.Context) error {
	participantID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateParticipantStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	participant, err := h.svc.UpdateParticipantStatus(c.Request().Context(), participantID, req.Status, middleware.CallerID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.ToParticipantResponse(participant))
}

func (h *ParticipantHandler) ConfirmJoining(c echo.Context) error {
	participantID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	participant, err := h.svc.ConfirmJoining(c.Request().Context(), participantID, middleware.CallerID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.ToParticipantResponse(participant))
}

func (h *ParticipantHandler) LeaveActivity(c echo.Context) error {
	activityID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	participant, err := h.svc.LeaveActivity(c.Request().Context(), activityID, middleware.CallerID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.ToParticipantResponse(participant))
}

func (h *ParticipantHandler) DeleteInterest(c echo.Context) error {
	activityID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.svc.DeleteInterest(c.Request().Context(), activityID, middleware.CallerID(c)); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ParticipantHandler) GetParticipants(c echo.Context) error {
	activityID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	participants, err := h.svc.GetActivityParticipants(c.Request().Context(), activityID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toParticipantResponses(participants))
}

func (h *ParticipantHandler) GetInterestedUsers(c echo.Context) error {
	activityID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	participants, err := h.svc.GetInterestedUsers(c.Request().Context(), activityID, middleware.CallerID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toParticipantResponses(participants))
}

func (h *ParticipantHandler) GetMyParticipations(c echo.Context) error {
	var status *models.ParticipantStatus
	if s := c.QueryParam("status"); s != "" {
		ps := models.ParticipantStatus(s)
		status = &ps
	}

	participants, err := h.svc.GetMyParticipations(c.Request().Context(), middleware.CallerID(c), status)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toParticipantResponses(participants))
}

func toParticipantResponses(participants []models.Participant) []dto.ParticipantResponse {
	resp := make([]dto.ParticipantResponse, len(participants))
	for i := range participants {
		resp[i] = dto.ToParticipantResponse(&participants[i])
	}
	return resp
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}
