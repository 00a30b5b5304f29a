package models

import "github.com/golang-jwt/jwt/v5"

// PairDeviceRequest exchanges the shared pairing secret for a device token. A
// device id is generated when none is supplied.
type PairDeviceRequest struct {
	DeviceID string `json:"device_id" validate:"omitempty,max=128"`
	Secret   string `json:"secret" validate:"required"`
}

// PairDeviceResponse returns the issued device token.
type PairDeviceResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	DeviceID    string `json:"device_id"`
}

// DeviceClaims is the JWT payload of device tokens.
type DeviceClaims struct {
	DeviceID string `json:"device_id"`
	jwt.RegisteredClaims
}
