package services

import (
	cryptorand "crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"golang.org/x/crypto/argon2"

	"github.com/flinderax/backend/internal/models"
)

type AuthService struct {
	db        *sql.DB
	validator *ValidationHelper
}

// RegisterRequest represents the registration request payload
// @Description Registration request structure
type RegisterRequest struct {
	UserName     string `json:"user_name" validate:"required,min=3,max=100" example:"alice"`  // Unique user name
	UserPassword string `json:"user_password" validate:"required,min=6" example:"password1"` // User password
	UserRole     string `json:"user_role" validate:"omitempty,oneof=user admin"`             // Optional role, defaults to user
}

// LoginRequest represents the login request payload
// @Description Login request structure
type LoginRequest struct {
	UserName     string `json:"user_name" validate:"required" example:"alice"`         // User name
	UserPassword string `json:"user_password" validate:"required" example:"password1"` // User password
}

// TokenResponse represents a successful login
// @Description Access token response structure
type TokenResponse struct {
	AccessToken string `json:"access_token"` // JWT bearer token
	ExpiresAt   int64  `json:"expires_at"`   // Unix expiry timestamp
}

func NewAuthService(db *sql.DB) *AuthService {
	return &AuthService{
		db:        db,
		validator: NewValidationHelper(),
	}
}

// Register handles user registration
// @Summary Register a new user
// @Description Register a new user with a unique user name
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration request"
// @Success 200 {object} map[string]bool "Registration successful"
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "User name already exists"
// @Router /common/register [post]
func (s *AuthService) Register(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Registration attempt from IP: %s", r.RemoteAddr)

	var req RegisterRequest
	if !s.validator.DecodeRequest(w, r, &req) {
		return
	}

	role := req.UserRole
	if role == "" {
		role = "user"
	}

	hashedPassword, err := hashPassword(req.UserPassword)
	if err != nil {
		log.Printf("[AUTH] Password hashing failed for %s: %v", req.UserName, err)
		SendErrorResponse(w, "An Internal Error Occurred", http.StatusInternalServerError, nil)
		return
	}

	userID := uuid.NewString()
	_, err = s.db.ExecContext(r.Context(), `
		INSERT INTO users (user_id, user_name, user_password, user_role, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, userID, req.UserName, hashedPassword, role)
	if err != nil {
		log.Printf("[AUTH] User creation failed for %s: %v", req.UserName, err)
		SendErrorResponse(w, "User name already exists", http.StatusConflict, nil)
		return
	}

	log.Printf("[AUTH] User created successfully - ID: %s, Name: %s", userID, req.UserName)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"status": true})
}

// Login handles user authentication
// @Summary Login user
// @Description Authenticate with user name and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} TokenResponse "Login successful"
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Router /common/login [post]
func (s *AuthService) Login(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Login attempt from IP: %s", r.RemoteAddr)

	var req LoginRequest
	if !s.validator.DecodeRequest(w, r, &req) {
		return
	}

	var user models.User
	err := s.db.QueryRowContext(r.Context(), `
		SELECT user_id, user_password, user_role FROM users WHERE user_name = $1
	`, req.UserName).Scan(&user.UserID, &user.UserPassword, &user.UserRole)
	if err != nil {
		log.Printf("[AUTH] User not found: %s", req.UserName)
		SendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
		return
	}

	if !verifyPassword(req.UserPassword, user.UserPassword) {
		log.Printf("[AUTH] Invalid password for user: %s", req.UserName)
		SendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
		return
	}

	token, expiresAt, err := generateJWT(user.UserID, user.UserRole)
	if err != nil {
		log.Printf("[AUTH] JWT generation failed for user %s: %v", user.UserID, err)
		SendErrorResponse(w, "Failed to generate token", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[AUTH] Login successful for user %s", user.UserID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(TokenResponse{AccessToken: token, ExpiresAt: expiresAt})
}

func generateJWT(userID, role string) (string, int64, error) {
	expiresAt := time.Now().Add(time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour).Unix()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  expiresAt,
	})

	signed, err := token.SignedString([]byte(viper.GetString("jwt.secret_key")))
	return signed, expiresAt, err
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, viper.GetInt("argon2.salt_length"))
	if _, err := cryptorand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt,
		uint32(viper.GetInt("argon2.time")),
		uint32(viper.GetInt("argon2.memory")),
		uint8(viper.GetInt("argon2.threads")),
		uint32(viper.GetInt("argon2.key_length")))
	return fmt.Sprintf("%s$%s", base64.StdEncoding.EncodeToString(salt), base64.StdEncoding.EncodeToString(hash)), nil
}

func verifyPassword(password, hashedPassword string) bool {
	parts := strings.Split(hashedPassword, "$")
	if len(parts) != 2 {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}

	hash, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt,
		uint32(viper.GetInt("argon2.time")),
		uint32(viper.GetInt("argon2.memory")),
		uint8(viper.GetInt("argon2.threads")),
		uint32(viper.GetInt("argon2.key_length")))
	return string(hash) == string(computedHash)
}
