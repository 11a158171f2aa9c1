package services

import (
	"crypto/subtle"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/openroadtours/booking-backend/internal/config"
	"github.com/openroadtours/booking-backend/pkg/jwt"
)

// OperatorAuthService authenticates the curation account. There is a
// single operator credential pair, configured through the environment;
// tour authoring itself lives in the CMS, this surface only covers
// availability curation and booking review.
type OperatorAuthService struct {
	config     *config.OperatorConfig
	jwtService *jwt.Service
	logger     *logrus.Logger
}

// TokenPair holds a fresh access/refresh token pair
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// NewOperatorAuthService creates a new operator auth service
func NewOperatorAuthService(cfg *config.OperatorConfig, jwtService *jwt.Service, logger *logrus.Logger) *OperatorAuthService {
	return &OperatorAuthService{
		config:     cfg,
		jwtService: jwtService,
		logger:     logger,
	}
}

// Login verifies the operator credentials and issues a token pair
func (s *OperatorAuthService) Login(email, password string) (*TokenPair, error) {
	if s.config.Email == "" || s.config.PasswordHash == "" {
		s.logger.Warn("Operator login attempted but no operator account is configured")
		return nil, ErrInvalidCredentials
	}

	emailMatch := subtle.ConstantTimeCompare([]byte(email), []byte(s.config.Email)) == 1
	passwordErr := bcrypt.CompareHashAndPassword([]byte(s.config.PasswordHash), []byte(password))
	if !emailMatch || passwordErr != nil {
		s.logger.WithField("email", email).Warn("Failed operator login attempt")
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.jwtService.GenerateAccessToken(email, "operator")
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwtService.GenerateRefreshToken(email)
	if err != nil {
		return nil, err
	}

	s.logger.WithField("email", email).Info("Operator logged in")

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Refresh exchanges a valid refresh token for a new token pair
func (s *OperatorAuthService) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.jwtService.GenerateAccessToken(claims.Email, "operator")
	if err != nil {
		return nil, err
	}
	newRefresh, err := s.jwtService.GenerateRefreshToken(claims.Email)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
	}, nil
}
