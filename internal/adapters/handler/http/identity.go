package http

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	voterCookieName   = "voter_token"
	voterCookieMaxAge = 365 * 24 * 60 * 60 // 1 year
)

// IdentityResolver derives a stable anonymous voter identity and a salted IP
// fingerprint from a request. The identity is a server-signed token carried
// in a cookie; anything the server did not sign is treated as absent, so a
// tampered or garbage cookie degrades to a fresh single-use identity instead
// of failing the request.
type IdentityResolver struct {
	secret       []byte
	cookieDomain string
	cookieSecure bool
}

func NewIdentityResolver(secret string, cookieDomain string, cookieSecure bool) *IdentityResolver {
	return &IdentityResolver{
		secret:       []byte(secret),
		cookieDomain: cookieDomain,
		cookieSecure: cookieSecure,
	}
}

// VoterID returns the voter identity for the request. When the cookie is
// missing or fails verification a new identity is minted and set on the
// response.
func (ir *IdentityResolver) VoterID(w http.ResponseWriter, r *http.Request) uuid.UUID {
	if cookie, err := r.Cookie(voterCookieName); err == nil {
		if id, err := ir.parseToken(cookie.Value); err == nil {
			return id
		}
	}

	id := uuid.New()
	token, err := ir.signToken(id)
	if err != nil {
		// Keep serving: the vote still counts, the identity just will
		// not survive past this request.
		return id
	}

	http.SetCookie(w, &http.Cookie{
		Name:     voterCookieName,
		Value:    token,
		Path:     "/",
		Domain:   ir.cookieDomain,
		MaxAge:   voterCookieMaxAge,
		HttpOnly: true,
		Secure:   ir.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// RateKey returns the salted one-way fingerprint of the client IP. The raw
// IP is never stored or logged.
func (ir *IdentityResolver) RateKey(r *http.Request) string {
	ip := clientIP(r)
	sum := sha256.Sum256([]byte(string(ir.secret) + ":" + ip))
	return hex.EncodeToString(sum[:])
}

func (ir *IdentityResolver) signToken(id uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   id.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(voterCookieMaxAge * time.Second)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ir.secret)
}

func (ir *IdentityResolver) parseToken(raw string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return ir.secret, nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return uuid.Nil, fmt.Errorf("unexpected claims type")
	}
	return uuid.Parse(claims.Subject)
}

// clientIP extracts the client address, preferring proxy headers: first
// X-Forwarded-For entry, then X-Real-IP, then RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
