package domain

import "time"

// User Model
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                                                  // Primary key
	Email     string    `gorm:"size:191;uniqueIndex;not null" json:"email"`                            // Unique login email
	Username  string    `gorm:"size:100" json:"username"`                                              // Display username
	FullName  string    `gorm:"size:150" json:"fullName"`                                              // Owner name shown to counterparties
	Gender    string    `gorm:"size:20" json:"gender,omitempty"`                                       // Optional gender
	AvatarURL string    `gorm:"size:255" json:"avatarUrl,omitempty"`                                   // Optional avatar
	Password  string    `gorm:"not null" json:"-"`                                                     // Hashed password
	Pin       string    `gorm:"not null" json:"-"`                                                     // Hashed transaction PIN
	Role      string    `gorm:"size:20;default:user" json:"role"`                                      // Role: user or admin
	Wallet    *Wallet   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"wallet,omitempty"` // One-to-one relationship with Wallet
	CreatedAt time.Time `json:"createdAt"`                                                             // Registration time
	UpdatedAt time.Time `json:"updatedAt"`                                                             // Last profile change
}

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
