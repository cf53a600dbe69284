package domain

import (
	"github.com/golang-jwt/jwt/v5"
)

// VerificationClaims prove control of an email address at signup.
type VerificationClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	Email  string `json:"email"`
}
