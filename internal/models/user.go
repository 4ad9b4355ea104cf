package models

import "time"

const (
	RoleMember    = "Member"
	RoleAdmin     = "Admin"
	RoleModerator = "Moderator"
	RoleVIP       = "VIP"
)

// ReferenceRoles are seeded at startup.
var ReferenceRoles = []string{RoleMember, RoleAdmin, RoleModerator, RoleVIP}

type User struct {
	ID           int64
	UserName     string
	PasswordHash []byte
	Created      time.Time
	LastActive   time.Time
}

type UserWithRoles struct {
	ID       int64
	UserName string
	Roles    []string
}
