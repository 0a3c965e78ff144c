package models

import (
	"time"
)

// Role IDs as stored in the roles table.
const (
	RoleStudent  = 1
	RoleLecturer = 2
	RoleAdmin    = 3
)

type User struct {
	UserID    int        `gorm:"primaryKey;column:user_id" json:"user_id"`
	Name      string     `gorm:"column:name" json:"name"`
	Email     string     `gorm:"column:email;unique" json:"email"`
	Password  string     `gorm:"column:password" json:"-"`
	RoleID    int        `gorm:"column:role_id" json:"role_id"`
	StudentNo *string    `gorm:"column:student_no" json:"student_no,omitempty"`
	NIDN      *string    `gorm:"column:nidn" json:"nidn,omitempty"`
	Phone     *string    `gorm:"column:phone" json:"phone,omitempty"`
	CreateAt  *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt  *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt  *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Role Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

type Role struct {
	RoleID   int        `gorm:"primaryKey;column:role_id" json:"role_id"`
	Role     string     `gorm:"column:role" json:"role"`
	CreateAt *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

// StudentSummary is the trimmed view of a student embedded in supervisor
// listings. Query-only, reads from the users table.
type StudentSummary struct {
	UserID    int     `gorm:"column:user_id" json:"user_id"`
	Name      string  `gorm:"column:name" json:"name"`
	Email     string  `gorm:"column:email" json:"email"`
	StudentNo *string `gorm:"column:student_no" json:"student_no,omitempty"`
}

func (StudentSummary) TableName() string {
	return "users"
}

// TableName overrides
func (User) TableName() string {
	return "users"
}

func (Role) TableName() string {
	return "roles"
}
