package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skovtun/wayplan/internal/services"
	"github.com/skovtun/wayplan/pkg/response"
)

// TripHandler exposes trip CRUD over the trip service.
type TripHandler struct {
	trips *services.TripService
}

func NewTripHandler(trips *services.TripService) *TripHandler {
	return &TripHandler{trips: trips}
}

type createTripRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

type updateTripRequest struct {
	Title       *string    `json:"title" validate:"omitempty,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	ClearDates  bool       `json:"clear_dates"`
}

// GET /api/trips?search=&sort_by=&sort_order=
func (h *TripHandler) List(c *gin.Context) {
	trips, err := h.trips.List(requestContext(c), currentUserID(c), services.ListTripsOptions{
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"trips": trips})
}

// POST /api/trips
func (h *TripHandler) Create(c *gin.Context) {
	var req createTripRequest
	if !bindAndValidate(c, &req) {
		return
	}

	trip, err := h.trips.Create(requestContext(c), currentUserID(c), services.CreateTripInput{
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"trip": trip})
}

// GET /api/trips/:id
func (h *TripHandler) Get(c *gin.Context) {
	trip, decision, err := h.trips.Get(requestContext(c), c.Param("id"), currentUserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"trip": trip,
		"role": decision.Role,
	})
}

// PUT /api/trips/:id
func (h *TripHandler) Update(c *gin.Context) {
	var req updateTripRequest
	if !bindAndValidate(c, &req) {
		return
	}

	trip, err := h.trips.Update(requestContext(c), c.Param("id"), currentUserID(c), services.UpdateTripInput{
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		ClearDates:  req.ClearDates,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"trip": trip})
}

// DELETE /api/trips/:id
func (h *TripHandler) Delete(c *gin.Context) {
	if err := h.trips.Delete(requestContext(c), c.Param("id"), currentUserID(c)); err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Trip deleted."})
}
