package models

import (
	"gorm.io/gorm"
)

// Permission names grantable to non-admin staff.
const (
	PermissionManageBadges = "manage-badges"
	PermissionAdjustPoints = "adjust-points"
	PermissionBroadcast    = "broadcast-notifications"
)

// Permission grants one named capability to a user
type Permission struct {
	gorm.Model
	UserID     uint   `gorm:"not null;index"`
	User       User   `gorm:"foreignKey:UserID"`
	Permission string `gorm:"type:varchar(255)"` // e.g., "manage-badges"
	IsDeleted  bool   `gorm:"default:false"`
}
