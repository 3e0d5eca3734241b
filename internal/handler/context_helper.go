package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/doc-intake-api/internal/middleware"
	"github.com/noah-isme/doc-intake-api/internal/models"
)

func workerFromContext(c *gin.Context) *models.WorkerClaims {
	claims, ok := middleware.CurrentWorker(c)
	if !ok {
		return nil
	}
	return claims
}
