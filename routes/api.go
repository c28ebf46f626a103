package api

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/time/rate"

	"github.com/Papan07/EntertainHub/db"
	m "github.com/Papan07/EntertainHub/models"
	"github.com/Papan07/EntertainHub/services"
)

// DBService is the persistence surface the handlers depend on. Satisfied by
// *db.Service in production and by a testify mock in tests.
type DBService interface {
	InsertNewUser(ctx context.Context, user m.User) (m.User, error)
	ValidateUser(ctx context.Context, identifier, password string) (m.User, error)
	GetUserByID(ctx context.Context, id string) (m.User, error)

	FindMovies(ctx context.Context, filter db.MovieFilter) ([]m.Movie, int64, error)
	SearchMovies(ctx context.Context, query string, page, limit int) ([]m.Movie, int64, string, error)
	FindMovieByID(ctx context.Context, id string) (m.Movie, error)
	IncrementViewCount(ctx context.Context, id primitive.ObjectID) error
	FindTrendingMovies(ctx context.Context, limit int) ([]m.Movie, error)
	FindFeaturedMovies(ctx context.Context, limit int) ([]m.Movie, error)
	InsertMovie(ctx context.Context, movie m.Movie) (m.Movie, error)
	UpdateMovie(ctx context.Context, id string, update bson.M) (m.Movie, error)
	DeleteMovie(ctx context.Context, id string) error
	MovieRuntimes(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]int, error)

	FindReviews(ctx context.Context, filter db.ReviewFilter) ([]m.Review, int64, error)
	FindReviewByID(ctx context.Context, id string) (m.Review, error)
	InsertReview(ctx context.Context, review m.Review) (m.Review, error)
	SaveReview(ctx context.Context, review m.Review) error
	DeleteReview(ctx context.Context, review m.Review) error

	AddFavorite(ctx context.Context, userID, movieID primitive.ObjectID) error
	RemoveFavorite(ctx context.Context, userID, movieID primitive.ObjectID) error
	AddToWatchlist(ctx context.Context, userID, movieID primitive.ObjectID) error
	RemoveFromWatchlist(ctx context.Context, userID, movieID primitive.ObjectID) error
	GetFavoriteMovies(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]m.Movie, int64, error)
	GetWatchlistMovies(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]m.Movie, int64, error)

	GetUserWatchlists(ctx context.Context, userID primitive.ObjectID) ([]m.Watchlist, error)
	GetPublicWatchlists(ctx context.Context, userID primitive.ObjectID) ([]m.Watchlist, error)
	InsertWatchlist(ctx context.Context, watchlist m.Watchlist) (m.Watchlist, error)
	FindWatchlistByID(ctx context.Context, id string) (m.Watchlist, error)
	SaveWatchlist(ctx context.Context, watchlist m.Watchlist) error
	DeleteWatchlist(ctx context.Context, id primitive.ObjectID) error
}

// ConfigService exposes the configuration values the API needs at request
// time.
type ConfigService interface {
	GetJWTSecret() string
	GetServerPort() string
	GetAllowedOrigins() []string
}

// API wires the handlers to their dependencies.
type API struct {
	DB      DBService
	Config  ConfigService
	Search  *services.Aggregator
	Catalog services.CatalogSource
	Log     *logrus.Logger

	limiter *rate.Limiter
}

func NewAPI(database DBService, config ConfigService, search *services.Aggregator, catalog services.CatalogSource, log *logrus.Logger) *API {
	return &API{
		DB:      database,
		Config:  config,
		Search:  search,
		Catalog: catalog,
		Log:     log,
		limiter: rate.NewLimiter(5, 10),
	}
}

func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Next()
	}
}

func (a *API) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "Too many requests",
			})
			return
		}
		c.Next()
	}
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("requestID", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

func (a *API) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		a.Log.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
			"request_id": c.GetString("requestID"),
			"client_ip":  c.ClientIP(),
		}).Info("request completed")
	}
}

func (a *API) setupCORS() cors.Config {
	config := cors.DefaultConfig()
	config.AllowOrigins = a.Config.GetAllowedOrigins()
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"X-CSRF-Token",
		"X-Request-ID",
		"Authorization",
	}
	config.ExposeHeaders = []string{"Content-Length", "X-Request-ID"}
	config.AllowCredentials = true
	config.MaxAge = 12 * time.Hour
	return config
}

func (a *API) setupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(a.loggingMiddleware())
	router.Use(metricsMiddleware())
	router.Use(securityHeadersMiddleware())
	router.Use(a.rateLimitMiddleware())
	router.Use(cors.New(a.setupCORS()))

	router.GET("/health", a.handleHealth)
	router.GET("/metrics", metricsHandler())

	root := router.Group("/api")

	auth := root.Group("/auth")
	{
		auth.POST("/register", a.handleRegister)
		auth.POST("/login", a.handleLogin)
		auth.GET("/me", a.authMiddleware(), a.handleMe)
	}

	movies := root.Group("/movies")
	{
		movies.GET("", a.handleListMovies)
		movies.GET("/search", a.handleSearchMovies)
		movies.GET("/trending", a.handleTrendingMovies)
		movies.GET("/featured", a.handleFeaturedMovies)
		movies.GET("/:id", a.optionalAuthMiddleware(), a.handleGetMovie)
		movies.POST("", a.authMiddleware(), a.requireAdmin(), a.handleCreateMovie)
		movies.PUT("/:id", a.authMiddleware(), a.requireAdmin(), a.handleUpdateMovie)
		movies.DELETE("/:id", a.authMiddleware(), a.requireAdmin(), a.handleDeleteMovie)
	}

	reviews := root.Group("/reviews")
	{
		reviews.GET("", a.handleListReviews)
		reviews.GET("/movie/:movieId", a.handleMovieReviews)
		reviews.GET("/user/:userId", a.handleUserReviews)
		reviews.GET("/:id", a.handleGetReview)
		reviews.POST("", a.authMiddleware(), a.handleCreateReview)
		reviews.PUT("/:id", a.authMiddleware(), a.handleUpdateReview)
		reviews.DELETE("/:id", a.authMiddleware(), a.handleDeleteReview)
		reviews.POST("/:id/like", a.authMiddleware(), a.handleLikeReview)
		reviews.POST("/:id/dislike", a.authMiddleware(), a.handleDislikeReview)
		reviews.POST("/:id/report", a.authMiddleware(), a.handleReportReview)
	}

	users := root.Group("/users")
	{
		users.GET("/profile/:userId", a.handlePublicProfile)

		users.GET("/favorites", a.authMiddleware(), a.handleGetFavorites)
		users.POST("/favorites", a.authMiddleware(), a.handleAddFavorite)
		users.DELETE("/favorites/:movieId", a.authMiddleware(), a.handleRemoveFavorite)

		users.GET("/watchlist", a.authMiddleware(), a.handleGetQuickWatchlist)
		users.POST("/watchlist", a.authMiddleware(), a.handleAddToQuickWatchlist)
		users.DELETE("/watchlist/:movieId", a.authMiddleware(), a.handleRemoveFromQuickWatchlist)

		lists := users.Group("/watchlists", a.authMiddleware())
		{
			lists.GET("", a.handleGetWatchlists)
			lists.POST("", a.handleCreateWatchlist)
			lists.GET("/:id", a.handleGetWatchlist)
			lists.PUT("/:id", a.handleUpdateWatchlist)
			lists.DELETE("/:id", a.handleDeleteWatchlist)
			lists.POST("/:id/movies/:movieId", a.handleWatchlistAddMovie)
			lists.DELETE("/:id/movies/:movieId", a.handleWatchlistRemoveMovie)
			lists.PATCH("/:id/movies/:movieId/watched", a.handleWatchlistMarkWatched)
			lists.PATCH("/:id/movies/:movieId/priority", a.handleWatchlistSetPriority)
			lists.POST("/:id/share", a.handleShareWatchlist)
		}
	}

	root.GET("/search", a.handleSearch)

	catalog := root.Group("/catalog")
	{
		catalog.GET("/popular", a.catalogHandler("popular"))
		catalog.GET("/top-rated", a.catalogHandler("top-rated"))
		catalog.GET("/upcoming", a.catalogHandler("upcoming"))
		catalog.GET("/now-playing", a.catalogHandler("now-playing"))
		catalog.GET("/trending", a.handleCatalogTrending)
	}

	return router
}

// Run starts the HTTP server and blocks until SIGINT/SIGTERM, then shuts
// down gracefully.
func (a *API) Run() error {
	router := a.setupRouter()

	srv := &http.Server{
		Addr:    ":" + a.Config.GetServerPort(),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Log.WithField("addr", srv.Addr).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		a.Log.WithField("signal", sig.String()).Info("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	a.Log.Info("server stopped")
	return nil
}
