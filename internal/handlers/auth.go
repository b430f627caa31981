package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	errMissingToken   = errors.New("missing bearer token")
	errMissingSubject = errors.New("token has no subject")
)

// Auth validates HS256 bearer tokens. The token's sub claim is the owner of
// every todo the request touches.
type Auth struct {
	Secret []byte
	Issuer string // optional
}

// Owner returns the authenticated owner of r.
func (a Auth) Owner(r *http.Request) (string, error) {
	tokenString, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	tokenString = strings.TrimSpace(tokenString)
	if !ok || tokenString == "" {
		return "", errMissingToken
	}

	options := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.Issuer != "" {
		options = append(options, jwt.WithIssuer(a.Issuer))
	}

	token, err := jwt.Parse(tokenString, func(*jwt.Token) (any, error) {
		return a.Secret, nil
	}, options...)
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("read subject: %w", err)
	}
	if strings.TrimSpace(subject) == "" {
		return "", errMissingSubject
	}
	return subject, nil
}

type ownerKey struct{}

func withOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

func ownerFrom(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}

// authenticate lässt nur Anfragen mit gültigem Token durch
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner, err := h.auth.Owner(r)
		if err != nil {
			h.logger.Debug("unauthorized", "err", err, "request_id", requestIDFrom(r.Context()))
			sendErrorResponse(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(withOwner(r.Context(), owner)))
	})
}
