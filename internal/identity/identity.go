package identity

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the optional caller identity seen by order and payment
// operations. Empty fields mean "absent"; guest checkout never requires
// either field to be set.
type Identity struct {
	UserID string
	Email  string
}

type accessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// source yields one optional identity attribute from a request.
type source func(req *http.Request) (string, bool)

// Resolver extracts a caller identity by trying a fixed, ordered list of
// sources per attribute: bearer-token claims first, then forwarded
// identity headers. Callers may still override both attributes with
// explicit request-body values; that precedence lives in the service
// layer, not here.
type Resolver struct {
	JWTSecret []byte
}

func (r *Resolver) FromRequest(req *http.Request) Identity {
	return Identity{
		UserID: first(req, r.bearerSubject, headerValue("X-User-ID")),
		Email:  NormalizeEmail(first(req, r.bearerEmail, headerValue("X-User-Email"))),
	}
}

func first(req *http.Request, sources ...source) string {
	for _, s := range sources {
		if v, ok := s(req); ok {
			return v
		}
	}
	return ""
}

func (r *Resolver) bearerSubject(req *http.Request) (string, bool) {
	claims, ok := r.parseBearer(req)
	if !ok || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}

func (r *Resolver) bearerEmail(req *http.Request) (string, bool) {
	claims, ok := r.parseBearer(req)
	if !ok || claims.Email == "" {
		return "", false
	}
	return claims.Email, true
}

// parseBearer is best-effort: identity here widens what a caller may see,
// it is not an authentication gate, so a malformed or expired token simply
// counts as absent.
func (r *Resolver) parseBearer(req *http.Request) (*accessClaims, bool) {
	if len(r.JWTSecret) == 0 {
		return nil, false
	}

	auth := req.Header.Get("Authorization")
	raw, found := strings.CutPrefix(auth, "Bearer ")
	if !found || raw == "" {
		return nil, false
	}

	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return r.JWTSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}
	return claims, true
}

func headerValue(name string) source {
	return func(req *http.Request) (string, bool) {
		v := strings.TrimSpace(req.Header.Get(name))
		return v, v != ""
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
