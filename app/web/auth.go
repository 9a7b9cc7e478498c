package web

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

const authUser = "jenkins-e2e"

// authMiddleware checks basic auth against bcrypt hash of the password
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if ok && username == authUser {
			if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err == nil {
				next.ServeHTTP(w, r)
				return
			}
		}
		w.Header().Set("WWW-Authenticate", `Basic realm="jenkins-e2e"`)
		s.writeJSONError(w, http.StatusUnauthorized, "unauthorized")
	})
}
