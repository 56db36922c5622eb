package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/cloudkenya/hostpanel/internal/core/domain"
	"github.com/cloudkenya/hostpanel/internal/core/ports"
)

// ActivityHandler exposes the account's security audit trail.
type ActivityHandler struct {
	activityService ports.ActivityService
}

func NewActivityHandler(activityService ports.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

type activityListResponse struct {
	Activities []domain.Activity `json:"activities"`
}

type activityStatsResponse struct {
	Stats []domain.CategoryStat `json:"stats"`
}

// List returns the caller's audit trail, newest first.
//
// @Summary      List activity log entries
// @Tags         activity
// @Produce      json
// @Param        limit     query     int     false  "Maximum entries (default 50)"
// @Param        category  query     string  false  "Filter by category"
// @Param        status    query     string  false  "Filter by status"
// @Success      200       {object}  activityListResponse
// @Router       /activity [get]
func (h *ActivityHandler) List(c echo.Context) error {
	accountID, err := ctxAccountID(c)
	if err != nil {
		return err
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	filter := domain.ActivityFilter{
		Category: domain.ActivityCategory(c.QueryParam("category")),
		Status:   domain.ActivityStatus(c.QueryParam("status")),
		Limit:    limit,
	}

	activities, err := h.activityService.List(c.Request().Context(), accountID, filter)
	if err != nil {
		return err
	}
	if activities == nil {
		activities = []domain.Activity{}
	}

	return c.JSON(http.StatusOK, activityListResponse{Activities: activities})
}

// Stats returns entry counts and last activity per category.
//
// @Summary      Activity statistics
// @Tags         activity
// @Produce      json
// @Success      200  {object}  activityStatsResponse
// @Router       /activity/stats [get]
func (h *ActivityHandler) Stats(c echo.Context) error {
	accountID, err := ctxAccountID(c)
	if err != nil {
		return err
	}

	stats, err := h.activityService.Stats(c.Request().Context(), accountID)
	if err != nil {
		return err
	}
	if stats == nil {
		stats = []domain.CategoryStat{}
	}

	return c.JSON(http.StatusOK, activityStatsResponse{Stats: stats})
}

// Clear deletes the caller's audit trail.
//
// @Summary      Clear activity log
// @Tags         activity
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /activity/clear [delete]
func (h *ActivityHandler) Clear(c echo.Context) error {
	accountID, err := ctxAccountID(c)
	if err != nil {
		return err
	}

	if err := h.activityService.Clear(c.Request().Context(), accountID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "activity logs cleared"})
}
