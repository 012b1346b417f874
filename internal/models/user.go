package models

import "time"

// Admin roles.
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// AdminUser is a back-office account allowed to mutate the catalog.
type AdminUser struct {
	ID                     string     `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	Username               string     `json:"username" bson:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Email                  string     `json:"email" bson:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password               string     `json:"-" bson:"password" gorm:"type:varchar(255)" validate:"required,min=6"`
	Role                   string     `json:"role" bson:"role" gorm:"type:varchar(20);default:admin" validate:"omitempty,oneof=admin superadmin"`
	ResetPasswordTokenHash string     `json:"-" bson:"resetPasswordTokenHash,omitempty" gorm:"index;type:varchar(64)"`
	ResetPasswordExpires   *time.Time `json:"-" bson:"resetPasswordExpires,omitempty"`
	CreatedAt              time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt              time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// TableName keeps the admin collection name aligned across backends.
func (AdminUser) TableName() string {
	return "admin_users"
}
