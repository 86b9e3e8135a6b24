package pet

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/vetclinic-api/internal/middleware"
	"github.com/jwalitptl/vetclinic-api/internal/model"
	"github.com/jwalitptl/vetclinic-api/internal/service/pet"
	"github.com/jwalitptl/vetclinic-api/pkg/httputil"
)

type Handler struct {
	svc *pet.Service
}

func NewHandler(svc *pet.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	pets := r.Group("/pets", authMW.Authenticate())
	{
		pets.POST("", h.CreatePet)
		pets.GET("", h.ListPets)
		pets.GET("/:id", h.GetPet)
		pets.PUT("/:id", h.UpdatePet)
	}
}

// owner resolves whose pets a request is about. Staff may name a customer
// with cus_id; everyone else acts on their own pets.
func owner(c *gin.Context, requested uuid.UUID) uuid.UUID {
	identity, _ := middleware.GetIdentity(c)
	if identity.IsStaff() && requested != uuid.Nil {
		return requested
	}
	return identity.UserID
}

type createPetRequest struct {
	model.PetRequest
	CustomerID uuid.UUID `json:"cus_id"`
}

func (h *Handler) CreatePet(c *gin.Context) {
	var req createPetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	p, err := h.svc.Create(c.Request.Context(), owner(c, req.CustomerID), &req.PetRequest)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, p)
}

func (h *Handler) ListPets(c *gin.Context) {
	customerID, ok := httputil.QueryUUID(c, "cus_id")
	if !ok {
		return
	}

	pets, err := h.svc.ListForCustomer(c.Request.Context(), owner(c, customerID))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, pets)
}

func (h *Handler) GetPet(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	identity, _ := middleware.GetIdentity(c)
	p, err := h.svc.Get(c.Request.Context(), identity, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) UpdatePet(c *gin.Context) {
	id, ok := httputil.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req model.PetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	identity, _ := middleware.GetIdentity(c)
	p, err := h.svc.Update(c.Request.Context(), identity, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, p)
}
