package web

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/flakestry/flakestry/internal/models"
)

// renderAPIError writes a {"detail": ...} body and logs the underlying error, if any
func renderAPIError(c *gin.Context, status int, detail string, err error) {
	if err != nil {
		log.Printf("[WEB]: %s %s failed (request %s): %v", c.Request.Method, c.Request.URL.Path, c.GetString("request_id"), err)
	}
	c.AbortWithStatusJSON(status, models.DetailResponse{Detail: detail})
}
