package http

import "github.com/gin-gonic/gin"

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/roles/assign", h.AssignRole)
	rg.GET("/roles", h.GetOwnRole)
	rg.GET("/roles/:userId", h.GetRole)
	rg.GET("/users", h.ListUsers)
	rg.POST("/users/sync", h.SyncUser)
}
