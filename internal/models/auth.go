package models

import "github.com/golang-jwt/jwt/v5"

// Role determines what an actor may do.
type Role string

// Known roles.
const (
	RoleAdmin  Role = "ADMIN"
	RoleDoctor Role = "DOCTOR"
	RoleStaff  Role = "STAFF"
)

// JWTClaims are the custom claims carried by access tokens.
type JWTClaims struct {
	UserID   string `json:"uid"`
	Role     Role   `json:"role"`
	FullName string `json:"name,omitempty"`
	jwt.RegisteredClaims
}
