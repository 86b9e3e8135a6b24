package treatment

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/vetclinic-api/internal/middleware"
	"github.com/jwalitptl/vetclinic-api/internal/model"
	"github.com/jwalitptl/vetclinic-api/internal/service/dispensing"
	"github.com/jwalitptl/vetclinic-api/internal/service/treatment"
	"github.com/jwalitptl/vetclinic-api/pkg/httputil"
)

type Handler struct {
	treatments *treatment.Service
	dispensing *dispensing.Service
}

func NewHandler(treatments *treatment.Service, dispensing *dispensing.Service) *Handler {
	return &Handler{treatments: treatments, dispensing: dispensing}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	treatments := r.Group("/treatments",
		authMW.Authenticate(),
		authMW.RequireRole(model.RoleAdmin, model.RoleVeterinarian),
	)
	{
		treatments.POST("", h.CreateTreatment)
		treatments.GET("", h.ListTreatments)
		treatments.GET("/report", h.Report)
		treatments.GET("/:id", h.GetTreatment)
		treatments.PUT("/:id", h.UpdateTreatment)
		treatments.POST("/:id/pay", h.MarkPaid)
		treatments.GET("/:id/invoice", h.Invoice)

		treatments.POST("/save_medications_batch", h.SaveMedicationsBatch)
		treatments.GET("/:id/medications", h.ListMedications)
		treatments.DELETE("/medications/:dispens_id", h.DeleteMedication)
	}
}

// CreateTreatment records the calling veterinarian as the treating vet.
// Admins record it against the booking's assigned vet.
func (h *Handler) CreateTreatment(c *gin.Context) {
	var req model.CreateTreatmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	vetID := uuid.Nil
	if identity, _ := middleware.GetIdentity(c); identity.Role == model.RoleVeterinarian {
		vetID = identity.UserID
	}

	record, err := h.treatments.Create(c.Request.Context(), vetID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, record)
}

func (h *Handler) ListTreatments(c *gin.Context) {
	bookingID, ok := httputil.QueryUUID(c, "booking_id")
	if !ok {
		return
	}
	if bookingID == uuid.Nil {
		httputil.RespondWithBadRequest(c, "booking_id is required")
		return
	}

	records, err := h.treatments.ListByBooking(c.Request.Context(), bookingID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, records)
}

// Report serves the dashboard counts for ?type=week|month|year.
func (h *Handler) Report(c *gin.Context) {
	report, err := h.treatments.Report(c.Request.Context(), model.ReportPeriod(c.Query("type")))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, report)
}

func (h *Handler) GetTreatment(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	record, err := h.treatments.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, record)
}

func (h *Handler) UpdateTreatment(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateTreatmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	record, err := h.treatments.Update(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, record)
}

func (h *Handler) MarkPaid(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req model.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	record, err := h.treatments.MarkPaid(c.Request.Context(), id, req.Method)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, record)
}

func (h *Handler) Invoice(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	invoice, err := h.treatments.Invoice(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, invoice)
}

func (h *Handler) SaveMedicationsBatch(c *gin.Context) {
	var req model.DispenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	entries, err := h.dispensing.Dispense(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "medications saved",
		"entries": entries,
	})
}

func (h *Handler) ListMedications(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	lines, err := h.dispensing.List(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, lines)
}

func (h *Handler) DeleteMedication(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "dispens_id")
	if !ok {
		return
	}

	entry, err := h.dispensing.Reverse(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "medication removed and stock restored",
		"entry":   entry,
	})
}
