package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RolePasien      Role = "PASIEN"
	RoleOperator    Role = "OPERATOR"
	RoleAdminFaskes Role = "ADMIN_FASKES"
)

// User is the persisted account record. Email and PasswordHash are
// nullable: accounts registered through the OCR pipeline carry only a NIK
// and can never log in with a password. RefreshTokenHash holds the bcrypt
// hash of the single currently valid refresh token, or NULL when none is.
type User struct {
	ID               string  `gorm:"primaryKey"               json:"id"`
	NIK              string  `gorm:"uniqueIndex;not null"     json:"nik"`
	Name             string  `gorm:"not null"                 json:"name"`
	Email            *string `gorm:"uniqueIndex"              json:"email"`
	PasswordHash     *string `                                json:"-"`
	Role             Role    `gorm:"not null"                 json:"role"`
	RefreshTokenHash *string `                                json:"-"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Profile is the outward projection of a User. It has no secret fields at
// all, so neither hash can leak through serialization even if User grows.
type Profile struct {
	ID        string    `json:"id"`
	NIK       string    `json:"nik"`
	Name      string    `json:"name"`
	Email     *string   `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) Profile() *Profile {
	return &Profile{
		ID:        u.ID,
		NIK:       u.NIK,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
