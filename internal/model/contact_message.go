package model

import (
	"time"

	"gorm.io/gorm"
)

// FormData holds the submitted form fields by name. Infrastructure fields
// (honeypot, timing, CSRF token) are never part of it.
type FormData map[string]string

// ContactMessage represents a contact form submission in the database
type ContactMessage struct {
	ID                uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	Data              FormData       `json:"data" gorm:"type:json;serializer:json"`
	IPAddress         string         `json:"ip_address" gorm:"type:varchar(45)"`
	UserAgent         string         `json:"user_agent" gorm:"type:varchar(255)"`
	Verified          bool           `json:"verified" gorm:"not null;default:false"`
	VerificationToken *string        `json:"-" gorm:"type:varchar(64);uniqueIndex"`
	VerifiedAt        *time.Time     `json:"verified_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName specifies the table name for ContactMessage
func (ContactMessage) TableName() string {
	return "contact_messages"
}

// Name returns the sender name field, if submitted
func (m *ContactMessage) Name() string {
	return m.Data["name"]
}

// Email returns the sender email field, if submitted
func (m *ContactMessage) Email() string {
	return m.Data["email"]
}

// Subject returns the subject field, if submitted
func (m *ContactMessage) Subject() string {
	return m.Data["subject"]
}

// Body returns the message field, if submitted
func (m *ContactMessage) Body() string {
	return m.Data["message"]
}
