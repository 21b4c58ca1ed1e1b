package middleware

import (
	"net/http"

	"tour-booking/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const OperatorKeyHeader = "X-API-Key"

// Operator guards maintenance endpoints with a shared key whose bcrypt hash
// is configured out of band. An empty hash disables the endpoints entirely.
func Operator(keyHash string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if keyHash == "" {
				utils.ResponseForbidden(w, "Operator access is not configured")
				return
			}

			key := r.Header.Get(OperatorKeyHeader)
			if key == "" {
				utils.ResponseUnauthorized(w, "Missing operator key")
				return
			}

			if err := bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)); err != nil {
				logger.Warn("Rejected operator key",
					zap.String("path", r.URL.Path),
					zap.String("ip", r.RemoteAddr),
				)
				utils.ResponseUnauthorized(w, "Invalid operator key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
