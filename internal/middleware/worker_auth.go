package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/doc-intake-api/internal/models"
	appErrors "github.com/noah-isme/doc-intake-api/pkg/errors"
	"github.com/noah-isme/doc-intake-api/pkg/response"
)

// ContextWorkerKey is the gin context key storing worker claims.
const ContextWorkerKey = "currentWorker"

// WorkerAuth protects the claim/complete endpoints by requiring a valid
// worker token.
func WorkerAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := parseWorkerToken(parts[1], secret)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid worker token"))
			c.Abort()
			return
		}

		c.Set(ContextWorkerKey, claims)
		c.Next()
	}
}

func parseWorkerToken(tokenString, secret string) (*models.WorkerClaims, error) {
	claims := &models.WorkerClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.WorkerID == "" {
		return nil, fmt.Errorf("token carries no worker identity")
	}
	return claims, nil
}

// IssueWorkerToken signs a token for a processing worker. Workers are
// provisioned out of band; this backs the issuing tool and tests.
func IssueWorkerToken(workerID, secret string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	now := time.Now()
	claims := models.WorkerClaims{
		WorkerID: workerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   workerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// CurrentWorker extracts the authenticated worker claims from the
// context.
func CurrentWorker(c *gin.Context) (*models.WorkerClaims, bool) {
	value, exists := c.Get(ContextWorkerKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*models.WorkerClaims)
	return claims, ok
}
