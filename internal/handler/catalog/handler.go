package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/vetclinic-api/internal/middleware"
	"github.com/jwalitptl/vetclinic-api/internal/model"
	"github.com/jwalitptl/vetclinic-api/internal/service/catalog"
	"github.com/jwalitptl/vetclinic-api/pkg/httputil"
)

type Handler struct {
	svc   *catalog.Service
	cache middleware.CacheConfig
}

func NewHandler(svc *catalog.Service, cache middleware.CacheConfig) *Handler {
	return &Handler{svc: svc, cache: cache}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	adminOnly := []gin.HandlerFunc{authMW.Authenticate(), authMW.RequireRole(model.RoleAdmin)}

	services := r.Group("/services", middleware.Cache(h.cache))
	{
		services.GET("", h.ListServices)
		services.GET("/:id", h.GetService)
		services.POST("", append(adminOnly, h.CreateService)...)
		services.PUT("/:id", append(adminOnly, h.UpdateService)...)
		services.DELETE("/:id", append(adminOnly, h.DeleteService)...)
	}

	petTypes := r.Group("/pet-types", middleware.Cache(h.cache))
	{
		petTypes.GET("", h.ListPetTypes)
		petTypes.POST("", append(adminOnly, h.CreatePetType)...)
	}
}

func (h *Handler) ListServices(c *gin.Context) {
	services, err := h.svc.ListServices(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, services)
}

func (h *Handler) GetService(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	svc, err := h.svc.GetService(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, svc)
}

func (h *Handler) CreateService(c *gin.Context) {
	var req model.ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	svc, err := h.svc.CreateService(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, svc)
}

func (h *Handler) UpdateService(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req model.ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	svc, err := h.svc.UpdateService(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, svc)
}

func (h *Handler) DeleteService(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteService(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithMessage(c, http.StatusOK, "service deleted")
}

func (h *Handler) ListPetTypes(c *gin.Context) {
	types, err := h.svc.ListPetTypes(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, types)
}

func (h *Handler) CreatePetType(c *gin.Context) {
	var req model.PetTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	petType, err := h.svc.CreatePetType(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, petType)
}
