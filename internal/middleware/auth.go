package middleware

import (
	"net/http"
	"strings"
)

// exempt lists paths reachable without logging in: the login page and the
// decoder feed endpoints, which are called by scanners rather than people.
func exempt(path string) bool {
	return path == "/login" ||
		path == "/auth/login" ||
		path == "/api/observations" ||
		path == "/api/scans" ||
		strings.HasPrefix(path, "/static/")
}

// AuthMiddleware checks that the user is logged in (has cookie 'authenticated=true').
// An empty password disables authentication.
func AuthMiddleware(password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if password == "" || exempt(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie("authenticated")
			if err != nil || cookie.Value != "true" {
				// API clients get a 401, browsers are sent to the login page
				if strings.HasPrefix(r.URL.Path, "/api/") ||
					r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
					r.Header.Get("Content-Type") == "application/json" {
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
