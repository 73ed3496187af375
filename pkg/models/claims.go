package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims is the JWT payload issued at login. The registered claims
// carry expiry (24h), issuance time and a uuid jti.
type TokenClaims struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	Rol    Role   `json:"rol"`
	jwt.RegisteredClaims
}
