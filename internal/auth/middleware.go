package auth

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// SecurityEventSink records an authorization failure. Defined here (rather
// than importing internal/security) so auth has no dependency on the
// security-event store; internal/security's recorder implements this.
type SecurityEventSink interface {
	RecordAuthFailure(ctx context.Context, reason, ip, email string)
}

// Middleware attaches the current operator to the request context if a
// valid session cookie is present. When require is true, unauthenticated
// requests get 401.
func Middleware(store *Store, cookieName string, require bool) func(http.Handler) http.Handler {
	if cookieName == "" {
		cookieName = "retentionloop_session"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(cookieName)
			if err == nil && c != nil && c.Value != "" {
				if sess, user, err := store.GetSession(r.Context(), c.Value); err == nil && sess != nil && user != nil {
					r = r.WithContext(WithUser(r.Context(), user))
				}
			}
			if require {
				if _, ok := CurrentUser(r.Context()); !ok {
					w.Header().Set("WWW-Authenticate", `Bearer realm="retentionloop"`)
					http.Error(w, "unauthorized", http.StatusUnauthorized)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOperator gates every route it wraps (the whole /api group): the caller must be
// an authenticated operator whose
// email is on the owner list, AND the request must carry the configured
// dev-password header with the matching value. Any failure emits a
// security_event via sink (reason + IP) and returns 401 for a missing
// session, 403 for an authenticated-but-unauthorized request.
func RequireOperator(owners []string, devPasswordHeader, devPassword string, sink SecurityEventSink) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			u, ok := CurrentUser(r.Context())
			if !ok || u == nil {
				sink.RecordAuthFailure(r.Context(), "no_session", ip, "")
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !IsOwner(u.Email, owners) {
				sink.RecordAuthFailure(r.Context(), "not_on_owner_list", ip, u.Email)
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			if devPassword == "" || r.Header.Get(devPasswordHeader) != devPassword {
				sink.RecordAuthFailure(r.Context(), "dev_password_mismatch", ip, u.Email)
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.Index(fwd, ","); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
