package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/rsvp"
)

// Options configures the HTTP surface
type Options struct {
	AllowedOrigins []string
	Credentials    CredentialCheck
}

// NewRouter builds the gin engine with every route, wrapped in CORS.
func NewRouter(engine *rsvp.Engine, opts *Options, log zerolog.Logger) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log), SecurityHeaders())

	guests := NewRSVPHandler(engine)
	admin := NewAdminHandler(engine, opts.Credentials)

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Server is running!")
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/guest", guests.Search)
	r.POST("/guest/accept", guests.Respond(models.ResponseAccepted))
	r.POST("/guest/decline", guests.Respond(models.ResponseDeclined))
	r.POST("/guest/addName", guests.AddPlusOne)

	r.POST("/admin/login", admin.Login)

	protected := r.Group("/")
	protected.Use(AdminAuth(opts.Credentials))
	{
		protected.GET("/response", admin.ListResponses)
		protected.PUT("/response/:id", admin.EditResponse)
		protected.DELETE("/response/:id", admin.ResetResponse)
		protected.POST("/guest/add", admin.AddGuest)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)
}
