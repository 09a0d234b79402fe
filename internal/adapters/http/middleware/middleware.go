package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/rs/cors"
)

// SecurityHeaders adds OWASP recommended headers.
// connectOrigins are extra origins the page may fetch from besides its own.
func SecurityHeaders(connectOrigins ...string) func(http.Handler) http.Handler {
	connectSrc := strings.Join(append([]string{"'self'"}, connectOrigins...), " ")
	csp := "default-src 'self'; img-src 'self' data:; connect-src " + connectSrc

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Security-Policy", csp)
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			next.ServeHTTP(w, r)
		})
	}
}

// IsFormEncoded reports whether r carries an HTML form body.
func IsFormEncoded(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(ct, "multipart/form-data")
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

// CSRF protects form submissions from the server-rendered page.
// Safe methods pass through the protector so pages get a token. Unsafe
// requests are checked only when they carry a form body; anything else is an
// API call that a cross-origin page cannot send without a CORS preflight.
// Requests without TLS are treated as plaintext so the strict Referer check
// only applies behind HTTPS.
func CSRF(authKey []byte, secure bool) func(http.Handler) http.Handler {
	csrfProtect := csrf.Protect(
		authKey,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.FieldName("csrf_token"),
	)

	return func(next http.Handler) http.Handler {
		protected := csrfProtect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isSafeMethod(r.Method) && !IsFormEncoded(r) {
				next.ServeHTTP(w, r)
				return
			}
			if r.TLS == nil {
				r = csrf.PlaintextHTTPRequest(r)
			}
			protected.ServeHTTP(w, r)
		})
	}
}

// CORS lets the marketing site call the API from another origin.
// An origin list of ["*"] allows any origin.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler
}

// Chain applies middlewares in order; the last one is outermost.
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for _, m := range middlewares {
		h = m(h)
	}
	return h
}
