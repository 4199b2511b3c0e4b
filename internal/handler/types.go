package handler

import (
	"time"

	"contact-form-service-go/internal/model"
)

// SubmitResponse is returned for an accepted contact form submission
type SubmitResponse struct {
	Status              string `json:"status"`
	ID                  uint   `json:"id,omitempty"`
	PendingVerification bool   `json:"pending_verification,omitempty"`
}

// VerifyResponse is returned when a verification link was accepted
type VerifyResponse struct {
	Status     string     `json:"status"`
	ID         uint       `json:"id"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

// MessageResponse is the admin representation of a stored contact message
type MessageResponse struct {
	ID         uint           `json:"id"`
	Data       model.FormData `json:"data"`
	IPAddress  string         `json:"ip_address"`
	UserAgent  string         `json:"user_agent"`
	Verified   bool           `json:"verified"`
	VerifiedAt *time.Time     `json:"verified_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Database  string            `json:"database"`
	Details   map[string]string `json:"details,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func messageResponse(msg *model.ContactMessage) MessageResponse {
	return MessageResponse{
		ID:         msg.ID,
		Data:       msg.Data,
		IPAddress:  msg.IPAddress,
		UserAgent:  msg.UserAgent,
		Verified:   msg.Verified,
		VerifiedAt: msg.VerifiedAt,
		CreatedAt:  msg.CreatedAt,
	}
}
