package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthResponse 是 /health 的响应体。
type HealthResponse struct {
	Status  string   `json:"status"`
	Tenants []string `json:"tenants"`
}

// Health 返回存活状态与已加载的租户。
func Health(tenants []string) gin.HandlerFunc {
	body := HealthResponse{Status: "ok", Tenants: tenants}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, body)
	}
}
