package api

import (
	"github.com/gin-gonic/gin"

	"github.com/skovtun/wayplan/internal/handlers"
)

func registerTripRoutes(api *gin.RouterGroup, requireAuth gin.HandlerFunc, trips *handlers.TripHandler, places *handlers.PlaceHandler) {
	group := api.Group("/trips")
	group.Use(requireAuth)
	{
		group.GET("", trips.List)
		group.POST("", trips.Create)
		group.GET("/:id", trips.Get)
		group.PUT("/:id", trips.Update)
		group.DELETE("/:id", trips.Delete)

		group.GET("/:id/places", places.List)
		group.POST("/:id/places", places.Create)
		group.PUT("/:id/places/:placeId", places.Update)
		group.DELETE("/:id/places/:placeId", places.Delete)
	}
}
