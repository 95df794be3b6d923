package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

type Claims struct {
	Sub      string `json:"sub"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Provider string `json:"provider,omitempty"`
	Exp      int64  `json:"exp,omitempty"`
	Iat      int64  `json:"iat,omitempty"`
}

// ExpiredAt reports whether the claims are past exp at now. Claims without
// exp never expire.
func (c Claims) ExpiredAt(now time.Time) bool {
	return c.Exp > 0 && c.Exp < now.Unix()
}

// DecodeUnverified reads the payload segment of a JWT without checking the
// signature. The result is informational only and must not be used for
// authorization decisions.
func DecodeUnverified(token string) (*Claims, error) {
	payload, err := payloadOf(token)
	if err != nil {
		return nil, err
	}
	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// IsExpired is true when the token is missing, cannot be decoded, or carries
// an exp in the past. Only exp is read; other claims may have any shape.
func IsExpired(token string, now time.Time) bool {
	if strings.TrimSpace(token) == "" {
		return true
	}
	payload, err := payloadOf(token)
	if err != nil {
		return true
	}
	var claims struct {
		Exp json.Number `json:"exp"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return true
	}
	if claims.Exp == "" {
		return false
	}
	exp, err := claims.Exp.Float64()
	if err != nil {
		return true
	}
	return exp > 0 && exp < float64(now.UnixNano())/float64(time.Second)
}

func payloadOf(token string) ([]byte, error) {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 {
		return nil, ErrInvalidToken
	}
	payload, err := decodeSegment(parts[1])
	if err != nil {
		return nil, ErrInvalidToken
	}
	return payload, nil
}

// decodeSegment accepts base64url with or without padding, and plain base64
// as issued by some older backends.
func decodeSegment(seg string) ([]byte, error) {
	seg = strings.TrimRight(seg, "=")
	if b, err := base64.RawURLEncoding.DecodeString(seg); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(seg)
}

func SignHS256(claims Claims, secret string) (string, error) {
	header := map[string]string{
		"alg": "HS256",
		"typ": "JWT",
	}
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", err
	}
	payloadJSON, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	unsigned := base64.RawURLEncoding.EncodeToString(headerJSON) + "." + base64.RawURLEncoding.EncodeToString(payloadJSON)
	return unsigned + "." + hmacSHA256(unsigned, secret), nil
}

func ParseAndVerifyHS256(token, secret string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrInvalidToken
	}
	unsigned := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(parts[2]), []byte(hmacSHA256(unsigned, secret))) {
		return nil, ErrInvalidToken
	}
	claims, err := DecodeUnverified(token)
	if err != nil {
		return nil, err
	}
	if claims.ExpiredAt(time.Now()) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}

func hmacSHA256(data, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
