package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"contact-form-service-go/internal/model"
)

// GetMessages returns all stored contact messages, newest first
func (h *Handlers) GetMessages(c *gin.Context) {
	var messages []model.ContactMessage
	if err := h.db.Order("created_at desc").Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch messages",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	responses := make([]MessageResponse, 0, len(messages))
	for i := range messages {
		responses = append(responses, messageResponse(&messages[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// GetMessage returns a single message by ID
func (h *Handlers) GetMessage(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_id", Message: "Invalid message ID", Code: http.StatusBadRequest})
		return
	}
	var msg model.ContactMessage
	if err := h.db.First(&msg, id).Error; err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "Message not found", Code: http.StatusNotFound})
		return
	}
	c.JSON(http.StatusOK, messageResponse(&msg))
}

// DeleteMessage deletes a message by ID
func (h *Handlers) DeleteMessage(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_id", Message: "Invalid message ID", Code: http.StatusBadRequest})
		return
	}
	if err := h.db.Delete(&model.ContactMessage{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "database_error", Message: "Failed to delete message", Code: http.StatusInternalServerError})
		return
	}
	c.Status(http.StatusNoContent)
}
