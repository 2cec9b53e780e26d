package handlers

import (
	"seekeradv/internal/middleware"
	"seekeradv/internal/services"
	"seekeradv/internal/utils"
	"seekeradv/internal/validators"

	"github.com/gin-gonic/gin"
)

// requireActor writes a 401 and returns false when the caller is unknown.
func requireActor(c *gin.Context) (*services.Actor, bool) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return nil, false
	}
	return actor, true
}

// bindError reports field validation failures with per-field details and
// anything else as a plain bad request.
func bindError(c *gin.Context, err error) {
	if fieldErrors, ok := validators.FromBindError(err); ok {
		utils.ValidationErrorResponse(c, fieldErrors.Details())
		return
	}
	utils.BadRequestResponse(c, "Invalid request: "+err.Error())
}

func paginationMeta(list *services.BookingList, params *utils.PaginationParams) *utils.Meta {
	return &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, list.Total),
		Total:      list.Total,
		Count:      len(list.Bookings),
	}
}
