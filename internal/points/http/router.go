package http

import "github.com/gin-gonic/gin"

func (h *Handler) Register(rg *gin.RouterGroup) {
	points := rg.Group("/points")
	points.POST("", h.CreatePoint)
	points.GET("", h.ListPoints)
	points.GET("/mine", h.ListOwnPoints)
	points.GET("/pending", h.ListPendingPoints)
	points.GET("/saved", h.ListSavedPoints)
	points.PATCH("/:id/status", h.TransitionPoint)
	points.PUT("/:id/bookmark", h.SavePoint)
	points.DELETE("/:id/bookmark", h.UnsavePoint)
	points.GET("/:id/bookmark", h.GetBookmark)
}
