package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/notify/notifytest"
	"wedding-rsvp/internal/rsvp"
	"wedding-rsvp/internal/storage"
)

const (
	adminUser = "admin"
	adminPass = "s3cret"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type server struct {
	handler  http.Handler
	store    storage.GuestStore
	notifier *notifytest.Recorder
}

func newServer(t *testing.T) *server {
	t.Helper()
	store, err := storage.NewFileStore("")
	require.NoError(t, err)

	rec := notifytest.NewRecorder()
	engine := rsvp.NewEngine(store, rec, zerolog.Nop(), &rsvp.Config{
		Now: func() time.Time { return time.Date(2025, 12, 13, 2, 30, 0, 0, time.UTC) },
	})
	h := NewRouter(engine, &Options{
		AllowedOrigins: []string{"https://rsvp.example"},
		Credentials:    StaticCredentials(adminUser, adminPass),
	}, zerolog.Nop())

	return &server{handler: h, store: store, notifier: rec}
}

func (s *server) seed(t *testing.T, g models.Guest) models.Guest {
	t.Helper()
	require.NoError(t, s.store.Insert(context.Background(), &g))
	return g
}

func (s *server) do(t *testing.T, method, path string, body any, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.SetBasicAuth(adminUser, adminPass)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

type errorBody struct {
	Error string        `json:"error"`
	Guest *models.Guest `json:"guest"`
}

type guestBody struct {
	Message string       `json:"message"`
	Guest   models.Guest `json:"guest"`
}

type searchBody struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Guests  []models.Guest `json:"guests"`
}

func TestRootAndHealth(t *testing.T) {
	s := newServer(t)

	w := s.do(t, http.MethodGet, "/", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Server is running!", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	w = s.do(t, http.MethodGet, "/health", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestSearch(t *testing.T) {
	s := newServer(t)
	jane := s.seed(t, models.Guest{Name: "Jane Roe"})
	s.seed(t, models.Guest{Name: "John Doe", Response: models.ResponseDeclined, RespondedAt: &time.Time{}})

	w := s.do(t, http.MethodGet, "/guest?guestName=jane", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[searchBody](t, w)
	assert.Equal(t, "found", body.Status)
	require.Len(t, body.Guests, 1)
	assert.Equal(t, jane.ID, body.Guests[0].ID)

	w = s.do(t, http.MethodGet, "/guest?guestName=JOHN", nil, false)
	body = decode[searchBody](t, w)
	assert.Equal(t, "already_responded", body.Status)
	assert.Equal(t, "All matching guests have already responded.", body.Message)
	assert.Empty(t, body.Guests)

	w = s.do(t, http.MethodGet, "/guest?guestName=zed", nil, false)
	body = decode[searchBody](t, w)
	assert.Equal(t, "no_match", body.Status)

	w = s.do(t, http.MethodGet, "/guest?guestName=%20", nil, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Guest name is required to search.", decode[errorBody](t, w).Error)
}

func TestRespond(t *testing.T) {
	s := newServer(t)
	jane := s.seed(t, models.Guest{Name: "Jane Roe"})

	w := s.do(t, http.MethodPost, "/guest/accept", gin.H{"guestId": jane.ID, "email": "jane@example.com"}, false)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode[guestBody](t, w)
	assert.Equal(t, models.ResponseAccepted, body.Guest.Response)
	require.NotNil(t, body.Guest.Email)
	assert.Equal(t, "jane@example.com", *body.Guest.Email)

	sent := s.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "jane@example.com", sent[0].Email)

	w = s.do(t, http.MethodPost, "/guest/decline", gin.H{"guestId": jane.ID, "email": "other@example.com"}, false)
	require.Equal(t, http.StatusOK, w.Code)
	stored, err := s.store.Get(context.Background(), jane.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResponseDeclined, stored.Response)
	assert.Equal(t, "other@example.com", stored.EmailAddress())
}

func TestRespond_Errors(t *testing.T) {
	s := newServer(t)
	jane := s.seed(t, models.Guest{Name: "Jane Roe"})

	tests := []struct {
		name   string
		body   any
		status int
		msg    string
	}{
		{"missing id", gin.H{"email": "a@b.com"}, http.StatusBadRequest, "Guest ID is required to update the response."},
		{"blank email", gin.H{"guestId": jane.ID, "email": "  "}, http.StatusBadRequest, "Email is required and cannot be empty."},
		{"unknown guest", gin.H{"guestId": 999, "email": "a@b.com"}, http.StatusNotFound, "Guest not found."},
		{"bad json", "not an object", http.StatusBadRequest, "Invalid request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/guest/accept", tt.body, false)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.msg, decode[errorBody](t, w).Error)
		})
	}
	assert.Empty(t, s.notifier.Sent())
}

func TestRespond_NotificationFailureKeepsResponse(t *testing.T) {
	s := newServer(t)
	jane := s.seed(t, models.Guest{Name: "Jane Roe"})
	s.notifier.FailWith(errors.New("smtp down"))

	w := s.do(t, http.MethodPost, "/guest/accept", gin.H{"guestId": jane.ID, "email": "jane@example.com"}, false)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	body := decode[errorBody](t, w)
	assert.Equal(t, "Failed to send email. Check server logs.", body.Error)
	require.NotNil(t, body.Guest)
	assert.Equal(t, models.ResponseAccepted, body.Guest.Response)

	stored, err := s.store.Get(context.Background(), jane.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResponseAccepted, stored.Response)
}

func TestAddPlusOne(t *testing.T) {
	s := newServer(t)
	jane := s.seed(t, models.Guest{Name: "Jane Roe", Email: models.StringPtr("jane@example.com"), Response: models.ResponseAccepted})
	noEmail := s.seed(t, models.Guest{Name: "Mark Lee"})

	w := s.do(t, http.MethodPost, "/guest/addName", gin.H{"mainGuestId": jane.ID, "guestName": "Paul Roe"}, false)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode[guestBody](t, w)
	assert.Equal(t, "Paul Roe", body.Guest.Name)
	assert.Equal(t, models.ResponseAccepted, body.Guest.Response)
	assert.Equal(t, "jane@example.com", body.Guest.EmailAddress())

	w = s.do(t, http.MethodPost, "/guest/addName", gin.H{"mainGuestId": jane.ID, "guestName": "paul"}, false)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Guest already exists.", decode[errorBody](t, w).Error)

	w = s.do(t, http.MethodPost, "/guest/addName", gin.H{"mainGuestId": noEmail.ID, "guestName": "Anna Lee"}, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/guest/addName", gin.H{"mainGuestId": 999, "guestName": "Anna Lee"}, false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminRoutesRequireCredentials(t *testing.T) {
	s := newServer(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/response"},
		{http.MethodPut, "/response/1"},
		{http.MethodDelete, "/response/1"},
		{http.MethodPost, "/guest/add"},
	} {
		w := s.do(t, route.method, route.path, nil, false)
		assert.Equal(t, http.StatusUnauthorized, w.Code, route.path)
		assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
	}

	req := httptest.NewRequest(http.MethodGet, "/response", nil)
	req.SetBasicAuth(adminUser, "wrong")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin(t *testing.T) {
	s := newServer(t)

	w := s.do(t, http.MethodPost, "/admin/login", gin.H{"username": adminUser, "password": adminPass}, false)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/admin/login", gin.H{"username": adminUser, "password": "nope"}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", decode[errorBody](t, w).Error)
}

func TestListResponses(t *testing.T) {
	s := newServer(t)
	early := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2025, 12, 2, 0, 0, 0, 0, time.UTC)
	a := s.seed(t, models.Guest{Name: "A", Response: models.ResponseAccepted, RespondedAt: &early})
	b := s.seed(t, models.Guest{Name: "B", Response: models.ResponseDeclined, RespondedAt: &late})
	c := s.seed(t, models.Guest{Name: "C"})

	w := s.do(t, http.MethodGet, "/response", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	guests := decode[[]models.Guest](t, w)
	require.Len(t, guests, 3)
	assert.Equal(t, []int64{b.ID, a.ID, c.ID}, []int64{guests[0].ID, guests[1].ID, guests[2].ID})

	w = s.do(t, http.MethodGet, "/response?response=pending", nil, true)
	guests = decode[[]models.Guest](t, w)
	require.Len(t, guests, 1)
	assert.Equal(t, c.ID, guests[0].ID)

	w = s.do(t, http.MethodGet, "/response?response=accept", nil, true)
	guests = decode[[]models.Guest](t, w)
	require.Len(t, guests, 1)
	assert.Equal(t, a.ID, guests[0].ID)

	w = s.do(t, http.MethodGet, "/response?response=maybe", nil, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListResponses_Empty(t *testing.T) {
	s := newServer(t)
	w := s.do(t, http.MethodGet, "/response", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestEditAndResetResponse(t *testing.T) {
	s := newServer(t)
	jane := s.seed(t, models.Guest{Name: "Jane Roe", Email: models.StringPtr("jane@example.com"), Response: models.ResponseAccepted})

	w := s.do(t, http.MethodPut, "/response/"+itoa(jane.ID), gin.H{"response": "decline"}, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	edited := decode[models.Guest](t, w)
	assert.Equal(t, models.ResponseDeclined, edited.Response)
	assert.Equal(t, "jane@example.com", edited.EmailAddress())
	assert.Empty(t, s.notifier.Sent(), "admin edits do not email the guest")

	w = s.do(t, http.MethodPut, "/response/"+itoa(jane.ID), gin.H{"response": "maybe"}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/response/abc", gin.H{"response": "accept"}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid guest ID.", decode[errorBody](t, w).Error)

	w = s.do(t, http.MethodPut, "/response/999", gin.H{"response": "accept"}, true)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodDelete, "/response/"+itoa(jane.ID), nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	reset := decode[models.Guest](t, w)
	assert.Equal(t, models.ResponseUnset, reset.Response)
	assert.Nil(t, reset.Email)
	assert.Nil(t, reset.RespondedAt)

	w = s.do(t, http.MethodDelete, "/response/999", nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddGuest(t *testing.T) {
	s := newServer(t)

	w := s.do(t, http.MethodPost, "/guest/add", gin.H{"guestName": "Jane Roe", "email": "jane@example.com"}, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	added := decode[models.Guest](t, w)
	assert.NotZero(t, added.ID)
	assert.Equal(t, models.ResponseUnset, added.Response)

	w = s.do(t, http.MethodPost, "/guest/add", gin.H{"guestName": "Jane"}, true)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/guest/add", gin.H{"guestName": ""}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/guest/accept", nil)
	req.Header.Set("Origin", "https://rsvp.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	assert.Equal(t, "https://rsvp.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/guest/accept", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStaticCredentials(t *testing.T) {
	assert.False(t, StaticCredentials("admin", "")("admin", ""), "empty password disables admin")

	plain := StaticCredentials("admin", "pw")
	assert.True(t, plain("admin", "pw"))
	assert.False(t, plain("Admin", "pw"))
	assert.False(t, plain("admin", "PW"))

	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	hashed := StaticCredentials("admin", string(hash))
	assert.True(t, hashed("admin", "pw"))
	assert.False(t, hashed("admin", string(hash)))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
