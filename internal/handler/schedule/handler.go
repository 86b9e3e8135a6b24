package schedule

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/vetclinic-api/internal/middleware"
	"github.com/jwalitptl/vetclinic-api/internal/model"
	"github.com/jwalitptl/vetclinic-api/internal/service/schedule"
	apperrors "github.com/jwalitptl/vetclinic-api/pkg/errors"
	"github.com/jwalitptl/vetclinic-api/pkg/httputil"
)

type Handler struct {
	svc *schedule.Service
}

func NewHandler(svc *schedule.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	shifts := r.Group("/shifts",
		authMW.Authenticate(),
		authMW.RequireRole(model.RoleAdmin, model.RoleVeterinarian),
	)
	{
		shifts.POST("", h.AddShifts)
		shifts.GET("", h.ListShifts)
		shifts.GET("/:id", h.GetShift)
		shifts.PUT("/:id", h.UpdateShift)
		shifts.DELETE("/:id", h.DeleteShift)
	}
}

// AddShifts schedules the caller. Admins name the veterinarian with vet_id.
func (h *Handler) AddShifts(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	var req model.AddShiftsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	if identity.Role == model.RoleVeterinarian {
		if req.VetID != uuid.Nil && req.VetID != identity.UserID {
			httputil.RespondWithError(c, apperrors.Forbidden("veterinarians can only schedule themselves"))
			return
		}
		req.VetID = identity.UserID
	} else if req.VetID == uuid.Nil {
		httputil.RespondWithError(c, apperrors.NewValidation("invalid request", "vet_id is required"))
		return
	}

	result, err := h.svc.AddShifts(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, result)
}

// ListShifts filters by date or by vet_id. Without either, a veterinarian
// gets their own shifts.
func (h *Handler) ListShifts(c *gin.Context) {
	ctx := c.Request.Context()

	if raw := c.Query("date"); raw != "" {
		date, err := model.ParseDate(raw)
		if err != nil {
			httputil.RespondWithError(c, apperrors.NewValidation("invalid date", err.Error()))
			return
		}
		shifts, err := h.svc.ListForDate(ctx, date)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		httputil.RespondWithSuccess(c, http.StatusOK, shifts)
		return
	}

	vetID, ok := httputil.QueryUUID(c, "vet_id")
	if !ok {
		return
	}
	if vetID == uuid.Nil {
		identity, _ := middleware.GetIdentity(c)
		if identity.Role != model.RoleVeterinarian {
			httputil.RespondWithBadRequest(c, "date or vet_id is required")
			return
		}
		vetID = identity.UserID
	}

	shifts, err := h.svc.ListShifts(ctx, vetID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, shifts)
}

func (h *Handler) GetShift(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	shift, err := h.svc.GetShift(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, shift)
}

func (h *Handler) UpdateShift(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}
	if !h.canModify(c, id) {
		return
	}

	var req model.UpdateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	shift, err := h.svc.UpdateShift(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, shift)
}

func (h *Handler) DeleteShift(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}
	if !h.canModify(c, id) {
		return
	}

	if err := h.svc.DeleteShift(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, http.StatusOK, "shift deleted")
}

// canModify lets admins change any shift and veterinarians only their own.
func (h *Handler) canModify(c *gin.Context, id uuid.UUID) bool {
	identity, _ := middleware.GetIdentity(c)
	if identity.Role == model.RoleAdmin {
		return true
	}

	shift, err := h.svc.GetShift(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return false
	}
	if shift.VetID != identity.UserID {
		httputil.RespondWithError(c, apperrors.Forbidden("veterinarians can only change their own shifts"))
		return false
	}
	return true
}
