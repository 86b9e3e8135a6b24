package inventory

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/vetclinic-api/internal/middleware"
	"github.com/jwalitptl/vetclinic-api/internal/model"
	"github.com/jwalitptl/vetclinic-api/internal/service/inventory"
	"github.com/jwalitptl/vetclinic-api/pkg/httputil"
)

type Handler struct {
	svc *inventory.Service
}

func NewHandler(svc *inventory.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	medications := r.Group("/medications",
		authMW.Authenticate(),
		authMW.RequireRole(model.RoleAdmin, model.RoleVeterinarian),
	)
	{
		medications.GET("", h.ListMedications)
		medications.GET("/:id", h.GetMedication)

		admin := authMW.RequireRole(model.RoleAdmin)
		medications.POST("", admin, h.CreateMedication)
		medications.PUT("/:id", admin, h.UpdateMedication)
		medications.DELETE("/:id", admin, h.DeleteMedication)
	}
}

func (h *Handler) ListMedications(c *gin.Context) {
	meds, err := h.svc.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, meds)
}

func (h *Handler) GetMedication(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	med, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, med)
}

func (h *Handler) CreateMedication(c *gin.Context) {
	var req model.MedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	med, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, med)
}

func (h *Handler) UpdateMedication(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req model.MedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	med, err := h.svc.Update(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, med)
}

func (h *Handler) DeleteMedication(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, http.StatusOK, "medication deleted")
}
