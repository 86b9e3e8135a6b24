package booking

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/vetclinic-api/internal/middleware"
	"github.com/jwalitptl/vetclinic-api/internal/model"
	"github.com/jwalitptl/vetclinic-api/internal/service/booking"
	apperrors "github.com/jwalitptl/vetclinic-api/pkg/errors"
	"github.com/jwalitptl/vetclinic-api/pkg/httputil"
)

type Handler struct {
	svc *booking.Service
}

func NewHandler(svc *booking.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	calendar := r.Group("/booking")
	{
		calendar.GET("/available-dates", h.AvailableDates)
		calendar.GET("/available-times", h.AvailableTimes)
	}

	bookings := r.Group("/bookings", authMW.Authenticate())
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.PUT("/:id/status",
			authMW.RequireRole(model.RoleAdmin, model.RoleVeterinarian), h.UpdateStatus)
	}
}

func (h *Handler) AvailableDates(c *gin.Context) {
	dates, err := h.svc.AvailableDates(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.String())
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "availableDates": out})
}

func (h *Handler) AvailableTimes(c *gin.Context) {
	date, err := model.ParseDate(c.Query("date"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewValidation("invalid date", err.Error()))
		return
	}
	serviceID, ok := httputil.QueryUUID(c, "service_id")
	if !ok {
		return
	}

	slots, err := h.svc.AvailableTimes(c.Request.Context(), date, serviceID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":                true,
		"date":                   slots.Date,
		"availableSlots":         slots.AvailableSlots,
		"bookedSlots":            slots.BookedSlots,
		"allSlots":               slots.AllSlots,
		"serviceDurationMinutes": slots.ServiceDurationMinutes,
	})
}

// CreateBooking books for the caller. Staff may book on behalf of a customer
// by passing cus_id.
func (h *Handler) CreateBooking(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	var req model.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	switch {
	case !identity.IsStaff():
		if req.CustomerID != identity.UserID && req.CustomerID != uuid.Nil {
			httputil.RespondWithError(c, apperrors.Forbidden("customers can only book for themselves"))
			return
		}
		req.CustomerID = identity.UserID
	case req.CustomerID == uuid.Nil:
		httputil.RespondWithError(c, apperrors.NewValidation("invalid request", "cus_id is required"))
		return
	}

	b, err := h.svc.Book(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"booking_id": b.ID,
		"booking":    b,
	})
}

func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	b, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	identity, _ := middleware.GetIdentity(c)
	if !identity.IsStaff() && b.CustomerID != identity.UserID {
		httputil.RespondWithError(c, apperrors.NewNotFound("booking", nil))
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, b)
}

// ListBookings returns the caller's own bookings. Staff pass either date for
// the day's queue or cus_id for a customer's history.
func (h *Handler) ListBookings(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)
	ctx := c.Request.Context()

	if !identity.IsStaff() {
		bookings, err := h.svc.ListForCustomer(ctx, identity.UserID)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		httputil.RespondWithSuccess(c, http.StatusOK, bookings)
		return
	}

	if raw := c.Query("date"); raw != "" {
		date, err := model.ParseDate(raw)
		if err != nil {
			httputil.RespondWithError(c, apperrors.NewValidation("invalid date", err.Error()))
			return
		}
		bookings, err := h.svc.ListForDate(ctx, date)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		httputil.RespondWithSuccess(c, http.StatusOK, bookings)
		return
	}

	customerID, ok := httputil.QueryUUID(c, "cus_id")
	if !ok {
		return
	}
	if customerID == uuid.Nil {
		httputil.RespondWithBadRequest(c, "date or cus_id is required")
		return
	}
	bookings, err := h.svc.ListForCustomer(ctx, customerID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, bookings)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	b, err := h.svc.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, b)
}
