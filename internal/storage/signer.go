package storage

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// URLSigner issues and verifies expiring download tokens for blobs, the
// local equivalent of hosted-storage signed URLs.
type URLSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewURLSigner creates a signer. ttl bounds how long issued tokens remain
// valid.
func NewURLSigner(secret string, ttl time.Duration) *URLSigner {
	if ttl == 0 {
		ttl = time.Hour
	}
	return &URLSigner{secret: []byte(secret), ttl: ttl}
}

type blobClaims struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	jwt.RegisteredClaims
}

// Sign returns a token granting time-limited read access to one blob.
func (s *URLSigner) Sign(bucket, key string) (string, error) {
	now := time.Now()
	claims := blobClaims{
		Bucket: bucket,
		Key:    key,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign download token: %w", err)
	}
	return token, nil
}

// Verify validates a token and returns the bucket and key it grants.
func (s *URLSigner) Verify(token string) (bucket, key string, err error) {
	claims := &blobClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", "", fmt.Errorf("invalid download token: %w", err)
	}
	if !parsed.Valid || claims.Bucket == "" || claims.Key == "" {
		return "", "", fmt.Errorf("invalid download token")
	}

	return claims.Bucket, claims.Key, nil
}
