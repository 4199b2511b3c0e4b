package handler

import (
	"errors"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"contact-form-service-go/internal/fields"
	"contact-form-service-go/internal/pipeline"
)

// sessionCookie carries the anonymous session id used for rate limiting
const sessionCookie = "contact_session"

var tokenRe = regexp.MustCompile(`^[0-9a-f]{64}$`)

// SubmitContact handles a contact form submission. It accepts form-encoded
// and JSON bodies.
func (h *Handlers) SubmitContact(c *gin.Context) {
	values, ok := h.readValues(c)
	if !ok {
		return
	}

	session, _ := c.Cookie(sessionCookie)
	meta := pipeline.RequestMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		SessionID: session,
	}

	msg, err := h.pipeline.Process(c.Request.Context(), values, meta)
	if err != nil {
		h.writeProcessError(c, err)
		return
	}

	c.JSON(http.StatusOK, SubmitResponse{
		Status:              "ok",
		ID:                  msg.ID,
		PendingVerification: !msg.Verified,
	})
}

// VerifyContact handles a verification link click
func (h *Handlers) VerifyContact(c *gin.Context) {
	token := c.Param("token")
	if !tokenRe.MatchString(token) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "invalid_token",
			Message: "This verification link is not valid.",
			Code:    http.StatusNotFound,
		})
		return
	}

	msg, err := h.pipeline.Verify(c.Request.Context(), token)
	if err != nil {
		h.writeVerifyError(c, err)
		return
	}

	c.JSON(http.StatusOK, VerifyResponse{
		Status:     "verified",
		ID:         msg.ID,
		VerifiedAt: msg.VerifiedAt,
	})
}

// readValues decodes the submission into a flat field map
func (h *Handlers) readValues(c *gin.Context) (map[string]string, bool) {
	ct := c.ContentType()
	values := make(map[string]string)

	if strings.HasPrefix(ct, "application/json") {
		var body map[string]string
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "validation_error",
				Message: "Invalid request body",
				Code:    http.StatusBadRequest,
			})
			return nil, false
		}
		return body, true
	}

	if err := c.Request.ParseForm(); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid form body",
			Code:    http.StatusBadRequest,
		})
		return nil, false
	}
	for name, vs := range c.Request.PostForm {
		if len(vs) > 0 {
			values[name] = vs[0]
		}
	}
	return values, true
}

// writeProcessError maps pipeline errors to HTTP responses. Spam rejections
// stay deliberately vague so bot authors learn nothing; unexpected failures
// are logged in full and answered with a generic apology.
func (h *Handlers) writeProcessError(c *gin.Context, err error) {
	var rateErr *pipeline.RateLimitError
	var validationErr *fields.ValidationError

	switch {
	case errors.Is(err, pipeline.ErrSpamDetected):
		logrus.Warnf("Submission rejected from %s: %v", c.ClientIP(), err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_submission",
			Message: "Your submission could not be processed.",
			Code:    http.StatusBadRequest,
		})
	case errors.As(err, &rateErr):
		retryIn := int(math.Ceil(time.Until(rateErr.RetryAfter).Seconds()))
		if retryIn < 1 {
			retryIn = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryIn))
		c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Error:   "rate_limited",
			Message: "Too many submissions. Please try again later.",
			Code:    http.StatusTooManyRequests,
		})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: validationErr.Error(),
			Code:    http.StatusBadRequest,
		})
	case errors.Is(err, pipeline.ErrProcessingPrevented):
		logrus.Warnf("Submission from %s prevented by hook", c.ClientIP())
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_submission",
			Message: "Your submission could not be processed.",
			Code:    http.StatusBadRequest,
		})
	default:
		logrus.Errorf("Failed to process submission from %s: %v", c.ClientIP(), err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Something went wrong. Please try again later.",
			Code:    http.StatusInternalServerError,
		})
	}
}

// writeVerifyError maps verification errors to distinct responses so the
// sender can tell an expired link from an invalid or already used one
func (h *Handlers) writeVerifyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pipeline.ErrInvalidToken):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "invalid_token",
			Message: "This verification link is not valid.",
			Code:    http.StatusNotFound,
		})
	case errors.Is(err, pipeline.ErrAlreadyVerified):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "already_verified",
			Message: "This message has already been confirmed.",
			Code:    http.StatusConflict,
		})
	case errors.Is(err, pipeline.ErrTokenExpired):
		c.JSON(http.StatusGone, ErrorResponse{
			Error:   "token_expired",
			Message: "This verification link has expired.",
			Code:    http.StatusGone,
		})
	default:
		logrus.Errorf("Failed to verify message: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Something went wrong. Please try again later.",
			Code:    http.StatusInternalServerError,
		})
	}
}
