package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// homePageHandler serves the pre-rendered landing page
func (s *WebServer) homePageHandler(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=300")
	c.Data(http.StatusOK, "text/html; charset=utf-8", s.homePage)
}
