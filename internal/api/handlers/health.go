package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/orderrecon/internal/api/dto"
)

// Health handles health check requests.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewHealthResponse())
}
