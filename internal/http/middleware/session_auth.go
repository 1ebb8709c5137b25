package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/medvault/patient-portal/internal/portal"
)

type contextKey string

const sessionKey contextKey = "patientSession"

// SessionJWT verifies an HMAC-signed patient token. The subject carries the
// patient id; the raw token is kept so it can be forwarded to the backend.
func SessionJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				writeAuthError(w, "session auth disabled")
				return
			}
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				writeAuthError(w, "missing authorization header")
				return
			}
			tokenString := strings.TrimPrefix(auth, "Bearer ")
			claims := jwt.RegisteredClaims{}
			token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				writeAuthError(w, "invalid token")
				return
			}
			patientID, err := strconv.ParseInt(strings.TrimSpace(claims.Subject), 10, 64)
			if err != nil || patientID <= 0 {
				writeAuthError(w, "token subject is not a patient id")
				return
			}
			sess := portal.Session{PatientID: patientID, Token: tokenString}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// WithSession stores sess on ctx.
func WithSession(ctx context.Context, sess portal.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// SessionFromContext returns the authenticated patient session if present.
func SessionFromContext(ctx context.Context) (portal.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(portal.Session)
	return sess, ok && sess.Valid()
}

func writeAuthError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
