package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-widget-api/internal/models"
	appErrors "github.com/noah-isme/sma-widget-api/pkg/errors"
)

// AuthConfig defines configuration for device pairing.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	PairingSecretHash string
	Issuer            string
}

// AuthService pairs devices and validates their tokens.
type AuthService struct {
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 30 * 24 * time.Hour
	}
	if config.Issuer == "" {
		config.Issuer = "widget-api"
	}
	return &AuthService{validator: validate, logger: logger, config: config}
}

// PairDevice checks the pairing secret and issues a device token.
func (s *AuthService) PairDevice(ctx context.Context, req models.PairDeviceRequest) (*models.PairDeviceResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pairing payload")
	}
	if s.config.PairingSecretHash == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "device pairing is disabled")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.config.PairingSecretHash), []byte(req.Secret)); err != nil {
		s.logger.Warn("pairing rejected", zap.String("device_id", req.DeviceID))
		return nil, appErrors.Clone(appErrors.ErrInvalidPairing, "invalid pairing secret")
	}

	deviceID := req.DeviceID
	if deviceID == "" {
		deviceID = uuid.NewString()
	}
	token, err := s.generateAccessToken(deviceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	s.logger.Info("device paired", zap.String("device_id", deviceID))
	return &models.PairDeviceResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		DeviceID:    deviceID,
	}, nil
}

// ValidateToken parses and validates a device token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.DeviceClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.DeviceClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.DeviceClaims)
	if !ok || !token.Valid || claims.DeviceID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

func (s *AuthService) generateAccessToken(deviceID string) (string, error) {
	now := time.Now().UTC()
	claims := models.DeviceClaims{
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   deviceID,
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.AccessTokenExpiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.AccessTokenSecret))
}
