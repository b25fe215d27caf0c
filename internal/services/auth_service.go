package services

import (
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"labella/internal/models"
	"labella/internal/repositories"
	"labella/pkg/apperrors"
)

// AuthService handles authentication for the admin surface.
type AuthService struct {
	userRepo  repositories.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  24 * time.Hour,
	}
}

// RegisterUser registers a new user, hashing their password before storage.
func (s *AuthService) RegisterUser(user *models.User) error {
	if existing, err := s.userRepo.GetByUsername(user.Username); err == nil && existing != nil {
		return apperrors.NewConflict(fmt.Sprintf("username '%s' already taken", user.Username))
	}
	if existing, err := s.userRepo.GetByEmail(user.Email); err == nil && existing != nil {
		return apperrors.NewConflict(fmt.Sprintf("email '%s' already registered", user.Email))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.NewInternal("failed to hash password", err)
	}
	user.Password = string(hashedPassword)

	return s.userRepo.Create(user)
}

// LoginUser authenticates a user and returns a signed JWT on success. The
// error never reveals whether the username exists.
func (s *AuthService) LoginUser(username, password string) (string, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      time.Now().Add(s.tokenTTL).Unix(),
		"iat":      time.Now().Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", apperrors.NewInternal("failed to sign token", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}
