package handler

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/rsvp"
	"wedding-rsvp/internal/storage"
)

// CredentialCheck reports whether username and password may use the admin routes.
type CredentialCheck func(username, password string) bool

// StaticCredentials accepts a single admin account. A password starting with
// "$2" is treated as a bcrypt hash. An empty password disables admin access.
func StaticCredentials(username, password string) CredentialCheck {
	return func(user, pass string) bool {
		if password == "" {
			return false
		}
		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1

		var passOK bool
		if strings.HasPrefix(password, "$2") {
			passOK = bcrypt.CompareHashAndPassword([]byte(password), []byte(pass)) == nil
		} else {
			passOK = subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1
		}
		return userOK && passOK
	}
}

// AdminHandler serves the response dashboard routes.
type AdminHandler struct {
	engine *rsvp.Engine
	check  CredentialCheck
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(engine *rsvp.Engine, check CredentialCheck) *AdminHandler {
	return &AdminHandler{engine: engine, check: check}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type editRequest struct {
	Response string `json:"response"`
}

type addGuestRequest struct {
	GuestName string `json:"guestName"`
	Email     string `json:"email"`
}

// Login verifies admin credentials. No session is created; clients send
// the same credentials as Basic auth on every admin request.
func (h *AdminHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if !h.check(req.Username, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login successful"})
}

// ListResponses returns every guest, optionally filtered by ?response=.
func (h *AdminHandler) ListResponses(c *gin.Context) {
	var filter storage.ListFilter
	if raw := c.Query("response"); raw != "" {
		response, err := models.ParseFilter(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Response filter must be accept, decline or pending."})
			return
		}
		filter.Response = &response
	}

	guests, err := h.engine.ListResponses(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	if guests == nil {
		guests = []models.Guest{}
	}
	c.JSON(http.StatusOK, guests)
}

// EditResponse sets a guest's response to accept or decline.
func (h *AdminHandler) EditResponse(c *gin.Context) {
	id, ok := guestID(c)
	if !ok {
		return
	}

	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	// An unparseable value reaches the engine as unset and is rejected there.
	response, _ := models.ParseDecision(req.Response)

	guest, err := h.engine.EditResponse(c.Request.Context(), id, response)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, guest)
}

// ResetResponse clears a guest's response and email.
func (h *AdminHandler) ResetResponse(c *gin.Context) {
	id, ok := guestID(c)
	if !ok {
		return
	}

	guest, err := h.engine.ResetResponse(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, guest)
}

// AddGuest inserts a guest who has not responded yet.
func (h *AdminHandler) AddGuest(c *gin.Context) {
	var req addGuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	guest, err := h.engine.AddGuest(c.Request.Context(), req.GuestName, req.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, guest)
}

func guestID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid guest ID."})
		return 0, false
	}
	return id, true
}
