package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/rsvp"
)

// RSVPHandler serves the guest-facing routes.
type RSVPHandler struct {
	engine *rsvp.Engine
}

// NewRSVPHandler creates a new RSVP handler
func NewRSVPHandler(engine *rsvp.Engine) *RSVPHandler {
	return &RSVPHandler{engine: engine}
}

type respondRequest struct {
	GuestID int64  `json:"guestId"`
	Email   string `json:"email"`
}

type plusOneRequest struct {
	MainGuestID int64  `json:"mainGuestId"`
	GuestName   string `json:"guestName"`
}

// Search looks up unresponded guests by name fragment.
func (h *RSVPHandler) Search(c *gin.Context) {
	result, err := h.engine.Search(c.Request.Context(), c.Query("guestName"))
	if err != nil {
		writeError(c, err)
		return
	}

	guests := result.Guests
	if guests == nil {
		guests = []models.Guest{}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  result.Outcome,
		"message": result.Message(),
		"guests":  guests,
	})
}

// Respond returns the handler for POST /guest/accept and /guest/decline.
func (h *RSVPHandler) Respond(response models.Response) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req respondRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		guest, err := h.engine.Respond(c.Request.Context(), rsvp.RespondRequest{
			GuestID:  req.GuestID,
			Email:    req.Email,
			Response: response,
		})
		if rsvp.IsNotification(err) {
			// The response is recorded; only the email failed.
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": rsvp.MessageOf(err),
				"guest": guest,
			})
			return
		}
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Response updated and email sent.",
			"guest":   guest,
		})
	}
}

// AddPlusOne adds a companion to an accepted guest.
func (h *RSVPHandler) AddPlusOne(c *gin.Context) {
	var req plusOneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	guest, err := h.engine.AddPlusOne(c.Request.Context(), req.MainGuestID, req.GuestName)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Plus-one guest added successfully.",
		"guest":   guest,
	})
}

var statusByCode = map[rsvp.ErrorCode]int{
	rsvp.CodeInvalid:  http.StatusBadRequest,
	rsvp.CodeNotFound: http.StatusNotFound,
	rsvp.CodeConflict: http.StatusConflict,
	rsvp.CodeStore:    http.StatusInternalServerError,
	rsvp.CodeNotify:   http.StatusInternalServerError,
}

// writeError maps an engine error onto a JSON error response.
func writeError(c *gin.Context, err error) {
	status, ok := statusByCode[rsvp.CodeOf(err)]
	if !ok {
		status = http.StatusInternalServerError
	}

	var engineErr *rsvp.Error
	if status >= http.StatusInternalServerError || !errors.As(err, &engineErr) {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	}

	c.JSON(status, gin.H{"error": rsvp.MessageOf(err)})
}
