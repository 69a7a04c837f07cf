package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skovtun/wayplan/internal/services"
	"github.com/skovtun/wayplan/pkg/response"
)

// PlaceHandler exposes place CRUD nested under a trip.
type PlaceHandler struct {
	places *services.PlaceService
}

func NewPlaceHandler(places *services.PlaceService) *PlaceHandler {
	return &PlaceHandler{places: places}
}

type createPlaceRequest struct {
	LocationName string `json:"location_name" validate:"required,max=200"`
	Notes        string `json:"notes" validate:"max=2000"`
	DayNumber    int    `json:"day_number" validate:"required,min=1"`
}

type updatePlaceRequest struct {
	LocationName *string `json:"location_name" validate:"omitempty,max=200"`
	Notes        *string `json:"notes" validate:"omitempty,max=2000"`
	DayNumber    *int    `json:"day_number" validate:"omitempty,min=1"`
}

// GET /api/trips/:id/places
func (h *PlaceHandler) List(c *gin.Context) {
	places, err := h.places.List(requestContext(c), c.Param("id"), currentUserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"places": places})
}

// POST /api/trips/:id/places
func (h *PlaceHandler) Create(c *gin.Context) {
	var req createPlaceRequest
	if !bindAndValidate(c, &req) {
		return
	}

	place, err := h.places.Create(requestContext(c), c.Param("id"), currentUserID(c), services.CreatePlaceInput{
		LocationName: req.LocationName,
		Notes:        req.Notes,
		DayNumber:    req.DayNumber,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"place": place})
}

// PUT /api/trips/:id/places/:placeId
func (h *PlaceHandler) Update(c *gin.Context) {
	var req updatePlaceRequest
	if !bindAndValidate(c, &req) {
		return
	}

	place, err := h.places.Update(requestContext(c), c.Param("id"), c.Param("placeId"), currentUserID(c), services.UpdatePlaceInput{
		LocationName: req.LocationName,
		Notes:        req.Notes,
		DayNumber:    req.DayNumber,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"place": place})
}

// DELETE /api/trips/:id/places/:placeId
func (h *PlaceHandler) Delete(c *gin.Context) {
	if err := h.places.Delete(requestContext(c), c.Param("id"), c.Param("placeId"), currentUserID(c)); err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Place deleted."})
}
