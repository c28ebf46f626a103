package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/time/rate"

	"github.com/Papan07/EntertainHub/db"
	m "github.com/Papan07/EntertainHub/models"
	"github.com/Papan07/EntertainHub/services"
)

// MockDBService is a testify mock of the DBService interface.
type MockDBService struct {
	mock.Mock
}

func (s *MockDBService) InsertNewUser(ctx context.Context, user m.User) (m.User, error) {
	args := s.Called(ctx, user)
	return args.Get(0).(m.User), args.Error(1)
}

func (s *MockDBService) ValidateUser(ctx context.Context, identifier, password string) (m.User, error) {
	args := s.Called(ctx, identifier, password)
	return args.Get(0).(m.User), args.Error(1)
}

func (s *MockDBService) GetUserByID(ctx context.Context, id string) (m.User, error) {
	args := s.Called(ctx, id)
	return args.Get(0).(m.User), args.Error(1)
}

func (s *MockDBService) FindMovies(ctx context.Context, filter db.MovieFilter) ([]m.Movie, int64, error) {
	args := s.Called(ctx, filter)
	return args.Get(0).([]m.Movie), args.Get(1).(int64), args.Error(2)
}

func (s *MockDBService) SearchMovies(ctx context.Context, query string, page, limit int) ([]m.Movie, int64, string, error) {
	args := s.Called(ctx, query, page, limit)
	return args.Get(0).([]m.Movie), args.Get(1).(int64), args.String(2), args.Error(3)
}

func (s *MockDBService) FindMovieByID(ctx context.Context, id string) (m.Movie, error) {
	args := s.Called(ctx, id)
	return args.Get(0).(m.Movie), args.Error(1)
}

func (s *MockDBService) IncrementViewCount(ctx context.Context, id primitive.ObjectID) error {
	args := s.Called(ctx, id)
	return args.Error(0)
}

func (s *MockDBService) FindTrendingMovies(ctx context.Context, limit int) ([]m.Movie, error) {
	args := s.Called(ctx, limit)
	return args.Get(0).([]m.Movie), args.Error(1)
}

func (s *MockDBService) FindFeaturedMovies(ctx context.Context, limit int) ([]m.Movie, error) {
	args := s.Called(ctx, limit)
	return args.Get(0).([]m.Movie), args.Error(1)
}

func (s *MockDBService) InsertMovie(ctx context.Context, movie m.Movie) (m.Movie, error) {
	args := s.Called(ctx, movie)
	return args.Get(0).(m.Movie), args.Error(1)
}

func (s *MockDBService) UpdateMovie(ctx context.Context, id string, update bson.M) (m.Movie, error) {
	args := s.Called(ctx, id, update)
	return args.Get(0).(m.Movie), args.Error(1)
}

func (s *MockDBService) DeleteMovie(ctx context.Context, id string) error {
	args := s.Called(ctx, id)
	return args.Error(0)
}

func (s *MockDBService) MovieRuntimes(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]int, error) {
	args := s.Called(ctx, ids)
	return args.Get(0).(map[primitive.ObjectID]int), args.Error(1)
}

func (s *MockDBService) FindReviews(ctx context.Context, filter db.ReviewFilter) ([]m.Review, int64, error) {
	args := s.Called(ctx, filter)
	return args.Get(0).([]m.Review), args.Get(1).(int64), args.Error(2)
}

func (s *MockDBService) FindReviewByID(ctx context.Context, id string) (m.Review, error) {
	args := s.Called(ctx, id)
	return args.Get(0).(m.Review), args.Error(1)
}

func (s *MockDBService) InsertReview(ctx context.Context, review m.Review) (m.Review, error) {
	args := s.Called(ctx, review)
	return args.Get(0).(m.Review), args.Error(1)
}

func (s *MockDBService) SaveReview(ctx context.Context, review m.Review) error {
	args := s.Called(ctx, review)
	return args.Error(0)
}

func (s *MockDBService) DeleteReview(ctx context.Context, review m.Review) error {
	args := s.Called(ctx, review)
	return args.Error(0)
}

func (s *MockDBService) AddFavorite(ctx context.Context, userID, movieID primitive.ObjectID) error {
	args := s.Called(ctx, userID, movieID)
	return args.Error(0)
}

func (s *MockDBService) RemoveFavorite(ctx context.Context, userID, movieID primitive.ObjectID) error {
	args := s.Called(ctx, userID, movieID)
	return args.Error(0)
}

func (s *MockDBService) AddToWatchlist(ctx context.Context, userID, movieID primitive.ObjectID) error {
	args := s.Called(ctx, userID, movieID)
	return args.Error(0)
}

func (s *MockDBService) RemoveFromWatchlist(ctx context.Context, userID, movieID primitive.ObjectID) error {
	args := s.Called(ctx, userID, movieID)
	return args.Error(0)
}

func (s *MockDBService) GetFavoriteMovies(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]m.Movie, int64, error) {
	args := s.Called(ctx, userID, page, limit)
	return args.Get(0).([]m.Movie), args.Get(1).(int64), args.Error(2)
}

func (s *MockDBService) GetWatchlistMovies(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]m.Movie, int64, error) {
	args := s.Called(ctx, userID, page, limit)
	return args.Get(0).([]m.Movie), args.Get(1).(int64), args.Error(2)
}

func (s *MockDBService) GetUserWatchlists(ctx context.Context, userID primitive.ObjectID) ([]m.Watchlist, error) {
	args := s.Called(ctx, userID)
	return args.Get(0).([]m.Watchlist), args.Error(1)
}

func (s *MockDBService) GetPublicWatchlists(ctx context.Context, userID primitive.ObjectID) ([]m.Watchlist, error) {
	args := s.Called(ctx, userID)
	return args.Get(0).([]m.Watchlist), args.Error(1)
}

func (s *MockDBService) InsertWatchlist(ctx context.Context, watchlist m.Watchlist) (m.Watchlist, error) {
	args := s.Called(ctx, watchlist)
	return args.Get(0).(m.Watchlist), args.Error(1)
}

func (s *MockDBService) FindWatchlistByID(ctx context.Context, id string) (m.Watchlist, error) {
	args := s.Called(ctx, id)
	return args.Get(0).(m.Watchlist), args.Error(1)
}

func (s *MockDBService) SaveWatchlist(ctx context.Context, watchlist m.Watchlist) error {
	args := s.Called(ctx, watchlist)
	return args.Error(0)
}

func (s *MockDBService) DeleteWatchlist(ctx context.Context, id primitive.ObjectID) error {
	args := s.Called(ctx, id)
	return args.Error(0)
}

// MockConfigService is a testify mock of the ConfigService interface.
type MockConfigService struct {
	mock.Mock
}

func (s *MockConfigService) GetJWTSecret() string {
	args := s.Called()
	return args.String(0)
}

func (s *MockConfigService) GetServerPort() string {
	args := s.Called()
	return args.String(0)
}

func (s *MockConfigService) GetAllowedOrigins() []string {
	args := s.Called()
	return args.Get(0).([]string)
}

func newTestAPI(mockDB *MockDBService, mockConfig *MockConfigService) *API {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &API{
		DB:      mockDB,
		Config:  mockConfig,
		Log:     log,
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
}

// asUser simulates an authenticated request by seeding the auth context.
func asUser(userID primitive.ObjectID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID.Hex())
		c.Set("role", role)
		c.Next()
	}
}

func performJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(securityHeadersMiddleware())
	router.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := performJSON(router, "GET", "/test", nil)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "1; mode=block", w.Header().Get("X-XSS-Protection"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSetupCORS(t *testing.T) {
	mockConfig := new(MockConfigService)
	origins := []string{"http://localhost:5173", "https://example.com"}
	mockConfig.On("GetAllowedOrigins").Return(origins)

	api := newTestAPI(new(MockDBService), mockConfig)
	corsConfig := api.setupCORS()

	assert.Equal(t, origins, corsConfig.AllowOrigins)
	assert.Contains(t, corsConfig.AllowMethods, "PATCH")
	assert.Contains(t, corsConfig.AllowHeaders, "Authorization")
	assert.True(t, corsConfig.AllowCredentials)
	mockConfig.AssertExpectations(t)
}

func TestGenerateAndParseToken(t *testing.T) {
	mockConfig := new(MockConfigService)
	mockConfig.On("GetJWTSecret").Return("test-secret")
	api := newTestAPI(new(MockDBService), mockConfig)

	user := m.User{ID: primitive.NewObjectID(), Role: m.RoleAdmin}
	token, err := api.generateToken(user)
	require.NoError(t, err)

	userID, role, err := api.parseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), userID)
	assert.Equal(t, m.RoleAdmin, role)
}

func TestAuthMiddleware(t *testing.T) {
	mockConfig := new(MockConfigService)
	mockConfig.On("GetJWTSecret").Return("test-secret")
	api := newTestAPI(new(MockDBService), mockConfig)

	router := gin.New()
	router.GET("/protected", api.authMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userID": c.GetString("userID")})
	})

	t.Run("Missing header", func(t *testing.T) {
		w := performJSON(router, "GET", "/protected", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Garbage token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Valid token", func(t *testing.T) {
		user := m.User{ID: primitive.NewObjectID(), Role: m.RoleUser}
		token, err := api.generateToken(user)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, user.ID.Hex(), body["userID"])
	})
}

func TestRequireAdmin(t *testing.T) {
	api := newTestAPI(new(MockDBService), new(MockConfigService))

	router := gin.New()
	router.GET("/admin", asUser(primitive.NewObjectID(), m.RoleUser), api.requireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	w := performJSON(router, "GET", "/admin", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	adminRouter := gin.New()
	adminRouter.GET("/admin", asUser(primitive.NewObjectID(), m.RoleAdmin), api.requireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	w = performJSON(adminRouter, "GET", "/admin", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleRegister(t *testing.T) {
	t.Run("Successful registration", func(t *testing.T) {
		mockDB := new(MockDBService)
		mockConfig := new(MockConfigService)
		mockConfig.On("GetJWTSecret").Return("test-secret")

		created := m.User{ID: primitive.NewObjectID(), Username: "moviefan", Email: "fan@example.com", Role: m.RoleUser}
		mockDB.On("InsertNewUser", mock.Anything, mock.MatchedBy(func(u m.User) bool {
			return u.Username == "moviefan" && u.Email == "fan@example.com"
		})).Return(created, nil)

		api := newTestAPI(mockDB, mockConfig)
		router := gin.New()
		router.POST("/register", api.handleRegister)

		w := performJSON(router, "POST", "/register", gin.H{
			"username": "moviefan",
			"email":    "fan@example.com",
			"password": "secret123",
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, true, body["success"])
		data := body["data"].(map[string]interface{})
		assert.NotEmpty(t, data["token"])
		mockDB.AssertExpectations(t)
	})

	t.Run("Duplicate username", func(t *testing.T) {
		mockDB := new(MockDBService)
		mockDB.On("InsertNewUser", mock.Anything, mock.Anything).Return(m.User{}, db.ErrDuplicate)

		api := newTestAPI(mockDB, new(MockConfigService))
		router := gin.New()
		router.POST("/register", api.handleRegister)

		w := performJSON(router, "POST", "/register", gin.H{
			"username": "moviefan",
			"email":    "fan@example.com",
			"password": "secret123",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, false, body["success"])
	})

	t.Run("Invalid payload", func(t *testing.T) {
		api := newTestAPI(new(MockDBService), new(MockConfigService))
		router := gin.New()
		router.POST("/register", api.handleRegister)

		w := performJSON(router, "POST", "/register", gin.H{"username": "ab"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleLogin(t *testing.T) {
	t.Run("Successful login", func(t *testing.T) {
		mockDB := new(MockDBService)
		mockConfig := new(MockConfigService)
		mockConfig.On("GetJWTSecret").Return("test-secret")

		user := m.User{ID: primitive.NewObjectID(), Username: "moviefan", Role: m.RoleUser}
		mockDB.On("ValidateUser", mock.Anything, "moviefan", "secret123").Return(user, nil)

		api := newTestAPI(mockDB, mockConfig)
		router := gin.New()
		router.POST("/login", api.handleLogin)

		w := performJSON(router, "POST", "/login", gin.H{"identifier": "moviefan", "password": "secret123"})

		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeBody(t, w)["data"].(map[string]interface{})
		assert.NotEmpty(t, data["token"])
		mockDB.AssertExpectations(t)
	})

	t.Run("Bad credentials", func(t *testing.T) {
		mockDB := new(MockDBService)
		mockDB.On("ValidateUser", mock.Anything, "moviefan", "wrong").Return(m.User{}, db.ErrInvalidCredentials)

		api := newTestAPI(mockDB, new(MockConfigService))
		router := gin.New()
		router.POST("/login", api.handleLogin)

		w := performJSON(router, "POST", "/login", gin.H{"identifier": "moviefan", "password": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHandleListMovies(t *testing.T) {
	t.Run("Genre filter reaches the store", func(t *testing.T) {
		mockDB := new(MockDBService)
		mockDB.On("FindMovies", mock.Anything, mock.MatchedBy(func(f db.MovieFilter) bool {
			return f.Genre == "Action" && f.Page == 1 && f.Limit == 10
		})).Return([]m.Movie{{Title: "The Dark Knight"}}, int64(1), nil)

		api := newTestAPI(mockDB, new(MockConfigService))
		router := gin.New()
		router.GET("/movies", api.handleListMovies)

		w := performJSON(router, "GET", "/movies?genre=Action", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		mockDB.AssertExpectations(t)
	})

	t.Run("Pagination envelope", func(t *testing.T) {
		mockDB := new(MockDBService)
		mockDB.On("FindMovies", mock.Anything, mock.Anything).
			Return([]m.Movie{{Title: "The Matrix"}}, int64(2), nil)

		api := newTestAPI(mockDB, new(MockConfigService))
		router := gin.New()
		router.GET("/movies", api.handleListMovies)

		w := performJSON(router, "GET", "/movies?page=1&limit=1", nil)
		require.Equal(t, http.StatusOK, w.Code)

		data := decodeBody(t, w)["data"].(map[string]interface{})
		pagination := data["pagination"].(map[string]interface{})
		assert.Equal(t, float64(1), pagination["currentPage"])
		assert.Equal(t, float64(2), pagination["totalPages"], "two movies at limit one make two pages")
		assert.Equal(t, float64(2), pagination["totalMovies"])
		assert.Equal(t, true, pagination["hasNextPage"])
		assert.Equal(t, false, pagination["hasPrevPage"])
	})

	t.Run("Invalid limit", func(t *testing.T) {
		api := newTestAPI(new(MockDBService), new(MockConfigService))
		router := gin.New()
		router.GET("/movies", api.handleListMovies)

		w := performJSON(router, "GET", "/movies?limit=500", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleSearchMovies(t *testing.T) {
	t.Run("Title search", func(t *testing.T) {
		mockDB := new(MockDBService)
		mockDB.On("SearchMovies", mock.Anything, "Dark Knight", 1, 10).
			Return([]m.Movie{{Title: "The Dark Knight"}}, int64(1), "text", nil)

		api := newTestAPI(mockDB, new(MockConfigService))
		router := gin.New()
		router.GET("/movies/search", api.handleSearchMovies)

		w := performJSON(router, "GET", "/movies/search?q=Dark+Knight", nil)
		require.Equal(t, http.StatusOK, w.Code)

		data := decodeBody(t, w)["data"].(map[string]interface{})
		movies := data["movies"].([]interface{})
		require.Len(t, movies, 1)
		assert.Equal(t, "The Dark Knight", movies[0].(map[string]interface{})["title"])
		assert.Equal(t, "text", data["searchType"])
		mockDB.AssertExpectations(t)
	})

	t.Run("Missing query", func(t *testing.T) {
		api := newTestAPI(new(MockDBService), new(MockConfigService))
		router := gin.New()
		router.GET("/movies/search", api.handleSearchMovies)

		w := performJSON(router, "GET", "/movies/search", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, false, body["success"])
		assert.NotEmpty(t, body["errors"])
	})

	// The limit counts characters, not bytes, so accented queries at the
	// boundary still pass.
	t.Run("Multibyte query at the length limit", func(t *testing.T) {
		query := strings.Repeat("é", maxQueryLength)
		mockDB := new(MockDBService)
		mockDB.On("SearchMovies", mock.Anything, query, 1, 10).
			Return([]m.Movie{}, int64(0), "text", nil)

		api := newTestAPI(mockDB, new(MockConfigService))
		router := gin.New()
		router.GET("/movies/search", api.handleSearchMovies)

		w := performJSON(router, "GET", "/movies/search?"+url.Values{"q": {query}}.Encode(), nil)
		assert.Equal(t, http.StatusOK, w.Code)
		mockDB.AssertExpectations(t)
	})

	t.Run("Query over the length limit", func(t *testing.T) {
		query := strings.Repeat("é", maxQueryLength+1)
		mockDB := new(MockDBService)

		api := newTestAPI(mockDB, new(MockConfigService))
		router := gin.New()
		router.GET("/movies/search", api.handleSearchMovies)

		w := performJSON(router, "GET", "/movies/search?"+url.Values{"q": {query}}.Encode(), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockDB.AssertNotCalled(t, "SearchMovies", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestHandleGetMovie(t *testing.T) {
	t.Run("Found, view count bumped", func(t *testing.T) {
		movie := m.Movie{ID: primitive.NewObjectID(), Title: "Inception", ViewCount: 41}
		mockDB := new(MockDBService)
		mockDB.On("FindMovieByID", mock.Anything, movie.ID.Hex()).Return(movie, nil)
		mockDB.On("IncrementViewCount", mock.Anything, movie.ID).Return(nil)

		api := newTestAPI(mockDB, new(MockConfigService))
		router := gin.New()
		router.GET("/movies/:id", api.handleGetMovie)

		w := performJSON(router, "GET", "/movies/"+movie.ID.Hex(), nil)
		require.Equal(t, http.StatusOK, w.Code)

		data := decodeBody(t, w)["data"].(map[string]interface{})
		got := data["movie"].(map[string]interface{})
		assert.Equal(t, float64(42), got["viewCount"])
		mockDB.AssertExpectations(t)
	})

	t.Run("Not found", func(t *testing.T) {
		mockDB := new(MockDBService)
		mockDB.On("FindMovieByID", mock.Anything, "missing").Return(m.Movie{}, db.ErrNotFound)

		api := newTestAPI(mockDB, new(MockConfigService))
		router := gin.New()
		router.GET("/movies/:id", api.handleGetMovie)

		w := performJSON(router, "GET", "/movies/missing", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Authenticated user gets interactions", func(t *testing.T) {
		movie := m.Movie{ID: primitive.NewObjectID(), Title: "Inception"}
		userID := primitive.NewObjectID()
		user := m.User{ID: userID, Favorites: []primitive.ObjectID{movie.ID}}

		mockDB := new(MockDBService)
		mockDB.On("FindMovieByID", mock.Anything, movie.ID.Hex()).Return(movie, nil)
		mockDB.On("IncrementViewCount", mock.Anything, movie.ID).Return(nil)
		mockDB.On("GetUserByID", mock.Anything, userID.Hex()).Return(user, nil)

		api := newTestAPI(mockDB, new(MockConfigService))
		router := gin.New()
		router.GET("/movies/:id", asUser(userID, m.RoleUser), api.handleGetMovie)

		w := performJSON(router, "GET", "/movies/"+movie.ID.Hex(), nil)
		require.Equal(t, http.StatusOK, w.Code)

		data := decodeBody(t, w)["data"].(map[string]interface{})
		interactions := data["userInteractions"].(map[string]interface{})
		assert.Equal(t, true, interactions["isFavorited"])
		assert.Equal(t, false, interactions["isInWatchlist"])
	})
}

func TestHandleCreateMovie(t *testing.T) {
	adminID := primitive.NewObjectID()

	newRouter := func(mockDB *MockDBService) *gin.Engine {
		api := newTestAPI(mockDB, new(MockConfigService))
		router := gin.New()
		router.POST("/movies", asUser(adminID, m.RoleAdmin), api.handleCreateMovie)
		return router
	}

	t.Run("Date-only release date", func(t *testing.T) {
		want := time.Date(2008, time.July, 16, 0, 0, 0, 0, time.UTC)
		mockDB := new(MockDBService)
		mockDB.On("InsertMovie", mock.Anything, mock.MatchedBy(func(movie m.Movie) bool {
			return movie.Title == "The Dark Knight" &&
				movie.ReleaseDate.Equal(want) &&
				movie.AddedBy == adminID
		})).Return(m.Movie{ID: primitive.NewObjectID(), Title: "The Dark Knight"}, nil)

		w := performJSON(newRouter(mockDB), "POST", "/movies",
			gin.H{"title": "The Dark Knight", "releaseDate": "2008-07-16"})
		assert.Equal(t, http.StatusCreated, w.Code)
		mockDB.AssertExpectations(t)
	})

	t.Run("Unparseable release date", func(t *testing.T) {
		mockDB := new(MockDBService)
		w := performJSON(newRouter(mockDB), "POST", "/movies",
			gin.H{"title": "The Dark Knight", "releaseDate": "summer 2008"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockDB.AssertNotCalled(t, "InsertMovie", mock.Anything, mock.Anything)
	})
}

func TestHandleUpdateMovie(t *testing.T) {
	movieID := primitive.NewObjectID()

	newRouter := func(mockDB *MockDBService) *gin.Engine {
		api := newTestAPI(mockDB, new(MockConfigService))
		router := gin.New()
		router.PUT("/movies/:id", api.handleUpdateMovie)
		return router
	}

	t.Run("Release date stored as a timestamp", func(t *testing.T) {
		want := time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC)
		mockDB := new(MockDBService)
		mockDB.On("UpdateMovie", mock.Anything, movieID.Hex(), mock.MatchedBy(func(update bson.M) bool {
			stored, ok := update["releaseDate"].(time.Time)
			return ok && stored.Equal(want)
		})).Return(m.Movie{ID: movieID}, nil)

		w := performJSON(newRouter(mockDB), "PUT", "/movies/"+movieID.Hex(),
			gin.H{"releaseDate": "2010-01-01"})
		assert.Equal(t, http.StatusOK, w.Code)
		mockDB.AssertExpectations(t)
	})

	t.Run("Mistyped field rejected", func(t *testing.T) {
		mockDB := new(MockDBService)
		w := performJSON(newRouter(mockDB), "PUT", "/movies/"+movieID.Hex(),
			gin.H{"runtime": "two hours"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockDB.AssertNotCalled(t, "UpdateMovie", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Identity fields are not updatable", func(t *testing.T) {
		mockDB := new(MockDBService)
		w := performJSON(newRouter(mockDB), "PUT", "/movies/"+movieID.Hex(),
			gin.H{"addedBy": primitive.NewObjectID().Hex(), "viewCount": 999})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockDB.AssertNotCalled(t, "UpdateMovie", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Out-of-range rating", func(t *testing.T) {
		mockDB := new(MockDBService)
		w := performJSON(newRouter(mockDB), "PUT", "/movies/"+movieID.Hex(),
			gin.H{"voteAverage": 11.5})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleCreateReview(t *testing.T) {
	userID := primitive.NewObjectID()
	movie := m.Movie{ID: primitive.NewObjectID(), Title: "Interstellar"}
	payload := gin.H{
		"movieId": movie.ID.Hex(),
		"title":   "A stunning ride",
		"content": "The docking scene alone is worth the ticket.",
		"rating":  9,
	}

	t.Run("Success", func(t *testing.T) {
		mockDB := new(MockDBService)
		mockDB.On("FindMovieByID", mock.Anything, movie.ID.Hex()).Return(movie, nil)
		mockDB.On("InsertReview", mock.Anything, mock.MatchedBy(func(r m.Review) bool {
			return r.User == userID && r.Movie == movie.ID && r.Rating == 9
		})).Return(m.Review{ID: primitive.NewObjectID()}, nil)

		api := newTestAPI(mockDB, new(MockConfigService))
		router := gin.New()
		router.POST("/reviews", asUser(userID, m.RoleUser), api.handleCreateReview)

		w := performJSON(router, "POST", "/reviews", payload)
		assert.Equal(t, http.StatusCreated, w.Code)
		mockDB.AssertExpectations(t)
	})

	t.Run("Duplicate review", func(t *testing.T) {
		mockDB := new(MockDBService)
		mockDB.On("FindMovieByID", mock.Anything, movie.ID.Hex()).Return(movie, nil)
		mockDB.On("InsertReview", mock.Anything, mock.Anything).Return(m.Review{}, db.ErrDuplicate)

		api := newTestAPI(mockDB, new(MockConfigService))
		router := gin.New()
		router.POST("/reviews", asUser(userID, m.RoleUser), api.handleCreateReview)

		w := performJSON(router, "POST", "/reviews", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Movie does not exist", func(t *testing.T) {
		mockDB := new(MockDBService)
		mockDB.On("FindMovieByID", mock.Anything, movie.ID.Hex()).Return(m.Movie{}, db.ErrNotFound)

		api := newTestAPI(mockDB, new(MockConfigService))
		router := gin.New()
		router.POST("/reviews", asUser(userID, m.RoleUser), api.handleCreateReview)

		w := performJSON(router, "POST", "/reviews", payload)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Content too short", func(t *testing.T) {
		api := newTestAPI(new(MockDBService), new(MockConfigService))
		router := gin.New()
		router.POST("/reviews", asUser(userID, m.RoleUser), api.handleCreateReview)

		w := performJSON(router, "POST", "/reviews", gin.H{
			"movieId": movie.ID.Hex(),
			"title":   "Meh",
			"content": "short",
			"rating":  5,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleLikeReview(t *testing.T) {
	userID := primitive.NewObjectID()
	reviewID := primitive.NewObjectID()
	review := m.Review{ID: reviewID}

	mockDB := new(MockDBService)
	mockDB.On("FindReviewByID", mock.Anything, reviewID.Hex()).Return(review, nil)
	mockDB.On("SaveReview", mock.Anything, mock.MatchedBy(func(r m.Review) bool {
		return r.LikeCount() == 1 && r.Likes[0].User == userID
	})).Return(nil)

	api := newTestAPI(mockDB, new(MockConfigService))
	router := gin.New()
	router.POST("/reviews/:id/like", asUser(userID, m.RoleUser), api.handleLikeReview)

	w := performJSON(router, "POST", "/reviews/"+reviewID.Hex()+"/like", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["likes"])
	assert.Equal(t, float64(0), data["dislikes"])
	mockDB.AssertExpectations(t)
}

func TestHandleReportReview(t *testing.T) {
	userID := primitive.NewObjectID()
	reviewID := primitive.NewObjectID()

	t.Run("Unknown reason", func(t *testing.T) {
		api := newTestAPI(new(MockDBService), new(MockConfigService))
		router := gin.New()
		router.POST("/reviews/:id/report", asUser(userID, m.RoleUser), api.handleReportReview)

		w := performJSON(router, "POST", "/reviews/"+reviewID.Hex()+"/report", gin.H{"reason": "boring"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Repeat report rejected", func(t *testing.T) {
		review := m.Review{ID: reviewID}
		review.AddReport(userID, "spam", "")

		mockDB := new(MockDBService)
		mockDB.On("FindReviewByID", mock.Anything, reviewID.Hex()).Return(review, nil)

		api := newTestAPI(mockDB, new(MockConfigService))
		router := gin.New()
		router.POST("/reviews/:id/report", asUser(userID, m.RoleUser), api.handleReportReview)

		w := performJSON(router, "POST", "/reviews/"+reviewID.Hex()+"/report", gin.H{"reason": "spam"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleAddFavorite(t *testing.T) {
	userID := primitive.NewObjectID()
	movie := m.Movie{ID: primitive.NewObjectID()}

	t.Run("Duplicate favorite", func(t *testing.T) {
		mockDB := new(MockDBService)
		mockDB.On("FindMovieByID", mock.Anything, movie.ID.Hex()).Return(movie, nil)
		mockDB.On("AddFavorite", mock.Anything, userID, movie.ID).Return(db.ErrDuplicate)

		api := newTestAPI(mockDB, new(MockConfigService))
		router := gin.New()
		router.POST("/favorites", asUser(userID, m.RoleUser), api.handleAddFavorite)

		w := performJSON(router, "POST", "/favorites", gin.H{"movieId": movie.ID.Hex()})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Success", func(t *testing.T) {
		mockDB := new(MockDBService)
		mockDB.On("FindMovieByID", mock.Anything, movie.ID.Hex()).Return(movie, nil)
		mockDB.On("AddFavorite", mock.Anything, userID, movie.ID).Return(nil)

		api := newTestAPI(mockDB, new(MockConfigService))
		router := gin.New()
		router.POST("/favorites", asUser(userID, m.RoleUser), api.handleAddFavorite)

		w := performJSON(router, "POST", "/favorites", gin.H{"movieId": movie.ID.Hex()})
		assert.Equal(t, http.StatusOK, w.Code)
		mockDB.AssertExpectations(t)
	})

	// A token can outlive its account; the add must then report the missing
	// user, not a duplicate.
	t.Run("Account deleted mid-session", func(t *testing.T) {
		mockDB := new(MockDBService)
		mockDB.On("FindMovieByID", mock.Anything, movie.ID.Hex()).Return(movie, nil)
		mockDB.On("AddFavorite", mock.Anything, userID, movie.ID).Return(db.ErrNotFound)

		api := newTestAPI(mockDB, new(MockConfigService))
		router := gin.New()
		router.POST("/favorites", asUser(userID, m.RoleUser), api.handleAddFavorite)

		w := performJSON(router, "POST", "/favorites", gin.H{"movieId": movie.ID.Hex()})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "User not found")
	})
}

func TestHandleCreateWatchlist(t *testing.T) {
	userID := primitive.NewObjectID()

	t.Run("Duplicate name", func(t *testing.T) {
		mockDB := new(MockDBService)
		mockDB.On("InsertWatchlist", mock.Anything, mock.Anything).Return(m.Watchlist{}, db.ErrDuplicate)

		api := newTestAPI(mockDB, new(MockConfigService))
		router := gin.New()
		router.POST("/watchlists", asUser(userID, m.RoleUser), api.handleCreateWatchlist)

		w := performJSON(router, "POST", "/watchlists", gin.H{"name": "Horror Nights"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Success", func(t *testing.T) {
		created := m.Watchlist{ID: primitive.NewObjectID(), User: userID, Name: "Horror Nights"}
		mockDB := new(MockDBService)
		mockDB.On("InsertWatchlist", mock.Anything, mock.MatchedBy(func(w m.Watchlist) bool {
			return w.User == userID && w.Name == "Horror Nights"
		})).Return(created, nil)

		api := newTestAPI(mockDB, new(MockConfigService))
		router := gin.New()
		router.POST("/watchlists", asUser(userID, m.RoleUser), api.handleCreateWatchlist)

		w := performJSON(router, "POST", "/watchlists", gin.H{"name": "Horror Nights"})
		assert.Equal(t, http.StatusCreated, w.Code)
		mockDB.AssertExpectations(t)
	})
}

func TestHandleWatchlistAddMovie(t *testing.T) {
	userID := primitive.NewObjectID()
	movie := m.Movie{ID: primitive.NewObjectID(), Runtime: 148}
	listID := primitive.NewObjectID()

	t.Run("Duplicate movie rejected", func(t *testing.T) {
		list := m.Watchlist{ID: listID, User: userID}
		require.NoError(t, list.AddMovie(movie.ID, "", ""))

		mockDB := new(MockDBService)
		mockDB.On("FindMovieByID", mock.Anything, movie.ID.Hex()).Return(movie, nil)
		mockDB.On("FindWatchlistByID", mock.Anything, listID.Hex()).Return(list, nil)

		api := newTestAPI(mockDB, new(MockConfigService))
		router := gin.New()
		router.POST("/watchlists/:id/movies/:movieId", asUser(userID, m.RoleUser), api.handleWatchlistAddMovie)

		w := performJSON(router, "POST", "/watchlists/"+listID.Hex()+"/movies/"+movie.ID.Hex(), gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Stats recomputed on success", func(t *testing.T) {
		list := m.Watchlist{ID: listID, User: userID}

		mockDB := new(MockDBService)
		mockDB.On("FindMovieByID", mock.Anything, movie.ID.Hex()).Return(movie, nil)
		mockDB.On("FindWatchlistByID", mock.Anything, listID.Hex()).Return(list, nil)
		mockDB.On("MovieRuntimes", mock.Anything, []primitive.ObjectID{movie.ID}).
			Return(map[primitive.ObjectID]int{movie.ID: 148}, nil)
		mockDB.On("SaveWatchlist", mock.Anything, mock.MatchedBy(func(w m.Watchlist) bool {
			return w.TotalMovies == 1 && w.TotalRuntime == 148
		})).Return(nil)

		api := newTestAPI(mockDB, new(MockConfigService))
		router := gin.New()
		router.POST("/watchlists/:id/movies/:movieId", asUser(userID, m.RoleUser), api.handleWatchlistAddMovie)

		w := performJSON(router, "POST", "/watchlists/"+listID.Hex()+"/movies/"+movie.ID.Hex(), gin.H{"priority": "high"})
		assert.Equal(t, http.StatusOK, w.Code)
		mockDB.AssertExpectations(t)
	})

	t.Run("No edit permission", func(t *testing.T) {
		list := m.Watchlist{ID: listID, User: primitive.NewObjectID()}

		mockDB := new(MockDBService)
		mockDB.On("FindMovieByID", mock.Anything, movie.ID.Hex()).Return(movie, nil)
		mockDB.On("FindWatchlistByID", mock.Anything, listID.Hex()).Return(list, nil)

		api := newTestAPI(mockDB, new(MockConfigService))
		router := gin.New()
		router.POST("/watchlists/:id/movies/:movieId", asUser(userID, m.RoleUser), api.handleWatchlistAddMovie)

		w := performJSON(router, "POST", "/watchlists/"+listID.Hex()+"/movies/"+movie.ID.Hex(), gin.H{})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

type stubCatalog struct {
	page services.CatalogPage
}

func (s *stubCatalog) Search(ctx context.Context, query string, page int) (services.CatalogPage, error) {
	return s.page, nil
}
func (s *stubCatalog) Popular(ctx context.Context, page int) (services.CatalogPage, error) {
	return s.page, nil
}
func (s *stubCatalog) TopRated(ctx context.Context, page int) (services.CatalogPage, error) {
	return s.page, nil
}
func (s *stubCatalog) Upcoming(ctx context.Context, page int) (services.CatalogPage, error) {
	return s.page, nil
}
func (s *stubCatalog) NowPlaying(ctx context.Context, page int) (services.CatalogPage, error) {
	return s.page, nil
}
func (s *stubCatalog) Trending(ctx context.Context, window string) (services.CatalogPage, error) {
	return s.page, nil
}

func TestHandleSearch(t *testing.T) {
	t.Run("Merged results, local first", func(t *testing.T) {
		mockDB := new(MockDBService)
		mockDB.On("SearchMovies", mock.Anything, "dark", 1, 20).
			Return([]m.Movie{{ID: primitive.NewObjectID(), Title: "The Dark Knight"}}, int64(1), "text", nil)

		catalog := &stubCatalog{page: services.CatalogPage{
			Results:    []m.SearchResult{{ID: "tmdb-155", Source: "tmdb", Title: "The Dark Knight Rises"}},
			TotalPages: 3,
		}}

		api := newTestAPI(mockDB, new(MockConfigService))
		api.Search = services.NewAggregator(mockDB, catalog, api.Log)
		api.Catalog = catalog

		router := gin.New()
		router.GET("/search", api.handleSearch)

		w := performJSON(router, "GET", "/search?q=dark", nil)
		require.Equal(t, http.StatusOK, w.Code)

		data := decodeBody(t, w)["data"].(map[string]interface{})
		results := data["results"].([]interface{})
		require.Len(t, results, 2)
		assert.Equal(t, "local", results[0].(map[string]interface{})["source"])
		assert.Equal(t, "tmdb", results[1].(map[string]interface{})["source"])
		assert.Equal(t, float64(3), data["totalPages"])
	})

	t.Run("Invalid source", func(t *testing.T) {
		api := newTestAPI(new(MockDBService), new(MockConfigService))
		router := gin.New()
		router.GET("/search", api.handleSearch)

		w := performJSON(router, "GET", "/search?q=dark&source=imdb", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Invalid sort", func(t *testing.T) {
		api := newTestAPI(new(MockDBService), new(MockConfigService))
		router := gin.New()
		router.GET("/search", api.handleSearch)

		w := performJSON(router, "GET", "/search?q=dark&sort=popularity", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleCatalogTrending(t *testing.T) {
	t.Run("Invalid window", func(t *testing.T) {
		api := newTestAPI(new(MockDBService), new(MockConfigService))
		router := gin.New()
		router.GET("/catalog/trending", api.handleCatalogTrending)

		w := performJSON(router, "GET", "/catalog/trending?window=year", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Week listing", func(t *testing.T) {
		api := newTestAPI(new(MockDBService), new(MockConfigService))
		api.Catalog = &stubCatalog{page: services.CatalogPage{
			Results:    []m.SearchResult{{ID: "tmdb-27205", Title: "Inception"}},
			TotalPages: 1,
		}}
		router := gin.New()
		router.GET("/catalog/trending", api.handleCatalogTrending)

		w := performJSON(router, "GET", "/catalog/trending", nil)
		require.Equal(t, http.StatusOK, w.Code)

		data := decodeBody(t, w)["data"].(map[string]interface{})
		assert.Equal(t, "week", data["window"])
		assert.Len(t, data["results"], 1)
	})
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(new(MockDBService), new(MockConfigService))
	router := gin.New()
	router.GET("/health", api.handleHealth)

	w := performJSON(router, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "ok", body["status"])
}

func TestSetupRouter(t *testing.T) {
	mockConfig := new(MockConfigService)
	mockConfig.On("GetAllowedOrigins").Return([]string{"http://localhost:5173"})

	api := newTestAPI(new(MockDBService), mockConfig)
	router := api.setupRouter()

	routes := router.Routes()
	paths := make(map[string]bool)
	for _, route := range routes {
		paths[route.Method+" "+route.Path] = true
	}

	assert.True(t, paths["POST /api/auth/register"])
	assert.True(t, paths["GET /api/movies/search"])
	assert.True(t, paths["POST /api/reviews/:id/report"])
	assert.True(t, paths["PATCH /api/users/watchlists/:id/movies/:movieId/watched"])
	assert.True(t, paths["GET /api/search"])
	assert.True(t, paths["GET /api/catalog/trending"])
	assert.True(t, paths["GET /health"])
	assert.True(t, paths["GET /metrics"])
}
