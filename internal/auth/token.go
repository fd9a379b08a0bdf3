// Package auth issues and validates the signed bearer tokens used by the
// API. Tokens are stateless HS256 JWTs carrying the user ID as subject;
// nothing is persisted server-side.
package auth

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims are the registered claims plus a token-type discriminator, so a
// refresh token can never be presented where an access token is expected.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"typ"`
}

// TokenPair holds a freshly issued access/refresh credential pair.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Issuer mints and validates tokens with a shared HMAC secret.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewIssuer constructs an Issuer. Zero TTLs fall back to 60 minutes for
// access tokens and 24 hours for refresh tokens.
func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) *Issuer {
	if accessTTL <= 0 {
		accessTTL = 60 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 24 * time.Hour
	}
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssuePair mints an access and a refresh token for the given user.
func (i *Issuer) IssuePair(userID int) (TokenPair, error) {
	access, err := i.sign(userID, tokenTypeAccess, i.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := i.sign(userID, tokenTypeRefresh, i.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// ParseAccess validates an access token and returns the user ID it encodes.
func (i *Issuer) ParseAccess(tokenString string) (int, error) {
	return i.parse(tokenString, tokenTypeAccess)
}

// ParseRefresh validates a refresh token and returns the user ID it encodes.
func (i *Issuer) ParseRefresh(tokenString string) (int, error) {
	return i.parse(tokenString, tokenTypeRefresh)
}

func (i *Issuer) sign(userID int, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: tokenType,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

func (i *Issuer) parse(tokenString, wantType string) (int, error) {
	if strings.TrimSpace(tokenString) == "" {
		return 0, ErrMissingCredential
	}

	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrExpiredCredential
		}
		return 0, ErrMalformedCredential
	}
	if !token.Valid || claims.TokenType != wantType {
		return 0, ErrMalformedCredential
	}

	userID, err := strconv.Atoi(strings.TrimSpace(claims.Subject))
	if err != nil || userID < 1 {
		return 0, ErrMalformedCredential
	}
	return userID, nil
}

// BearerToken extracts the bearer string from an Authorization header.
func BearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", ErrMissingCredential
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrMalformedCredential
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrMalformedCredential
	}
	return token, nil
}
