package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims is the payload minted for a purchaser session cookie.
type SessionClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	jwt.RegisteredClaims
}

// SessionPayload carries the fields embedded into a new session token.
type SessionPayload struct {
	UserID uuid.UUID
	Email  string
	JTI    string
}
