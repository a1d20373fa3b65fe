// Package auth provides JWT authentication for the Parley admin API.
package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims represents JWT claims for admin API authentication.
//
// The API has a single admin identity, so the claims carry only the
// username; there is no role or group model.
type Claims struct {
	jwt.RegisteredClaims

	// Username is the authenticated admin username.
	Username string `json:"username"`
}
