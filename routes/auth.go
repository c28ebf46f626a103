package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Papan07/EntertainHub/db"
	m "github.com/Papan07/EntertainHub/models"
)

const tokenTTL = 24 * time.Hour

func (a *API) generateToken(user m.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID.Hex(),
		"role":    user.Role,
		"exp":     time.Now().Add(tokenTTL).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.Config.GetJWTSecret()))
}

func (a *API) parseToken(tokenString string) (string, string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(a.Config.GetJWTSecret()), nil
	})
	if err != nil || !token.Valid {
		return "", "", errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", errors.New("invalid claims")
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", "", errors.New("missing user_id claim")
	}
	role, _ := claims["role"].(string)
	return userID, role, nil
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

func (a *API) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Authorization header required",
			})
			return
		}
		userID, role, err := a.parseToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Invalid or expired token",
			})
			return
		}
		c.Set("userID", userID)
		c.Set("role", role)
		c.Next()
	}
}

// optionalAuthMiddleware sets the user context when a valid token is
// present but never rejects the request.
func (a *API) optionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := bearerToken(c); tokenString != "" {
			if userID, role, err := a.parseToken(tokenString); err == nil {
				c.Set("userID", userID)
				c.Set("role", role)
			}
		}
		c.Next()
	}
}

func (a *API) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != m.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Admin access required",
			})
			return
		}
		c.Next()
	}
}

// currentUserObjectID parses the authenticated user id out of the request
// context.
func currentUserObjectID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString("userID"))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

type registerRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=30"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"firstName" binding:"max=50"`
	LastName  string `json:"lastName" binding:"max=50"`
}

func (a *API) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, []fieldError{{Field: "body", Message: err.Error()}})
		return
	}

	user, err := a.DB.InsertNewUser(c.Request.Context(), m.User{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if errors.Is(err, db.ErrDuplicate) {
		respondError(c, http.StatusBadRequest, "Username or email already registered")
		return
	}
	if err != nil {
		a.Log.WithError(err).Error("failed to register user")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	token, err := a.generateToken(user)
	if err != nil {
		a.Log.WithError(err).Error("failed to generate token")
		respondError(c, http.StatusInternalServerError, "Could not generate token")
		return
	}

	respondOK(c, http.StatusCreated, gin.H{"user": user, "token": token})
}

type loginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

func (a *API) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, []fieldError{{Field: "body", Message: err.Error()}})
		return
	}

	user, err := a.DB.ValidateUser(c.Request.Context(), req.Identifier, req.Password)
	if errors.Is(err, db.ErrInvalidCredentials) {
		respondError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		a.Log.WithError(err).Error("failed to validate user")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	token, err := a.generateToken(user)
	if err != nil {
		a.Log.WithError(err).Error("failed to generate token")
		respondError(c, http.StatusInternalServerError, "Could not generate token")
		return
	}

	respondOK(c, http.StatusOK, gin.H{"user": user, "token": token})
}

func (a *API) handleMe(c *gin.Context) {
	user, err := a.DB.GetUserByID(c.Request.Context(), c.GetString("userID"))
	if errors.Is(err, db.ErrNotFound) {
		respondError(c, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		a.Log.WithError(err).Error("failed to load user")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"user": user})
}
