package api

import "github.com/gin-gonic/gin"

// NewRouter wires the administrative routes.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/add-credentials/", h.AddCredentials)
	r.DELETE("/delete-credentials/", h.DeleteCredentials)
	r.GET("/get-all-credentials/", h.GetAllCredentials)
	r.GET("/logs", h.GetLogs)

	return r
}
