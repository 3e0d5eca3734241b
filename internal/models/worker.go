package models

import "github.com/golang-jwt/jwt/v5"

// WorkerClaims identifies an external processing worker on the
// claim/complete endpoints.
type WorkerClaims struct {
	WorkerID string `json:"worker_id"`
	jwt.RegisteredClaims
}
