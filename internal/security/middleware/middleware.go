package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/taskflow/internal/domain"
	"github.com/yourorg/taskflow/internal/envelope"
	"github.com/yourorg/taskflow/internal/observability/metrics"
	"github.com/yourorg/taskflow/internal/security/auth"
)

// AuthedHandlerFunc is a handler that runs only for a verified caller. The
// identity is passed explicitly instead of through the request context.
type AuthedHandlerFunc func(w http.ResponseWriter, r *http.Request, id auth.Identity)

// Gate authenticates bearer tokens for protected routes
type Gate struct {
	tokens  *auth.TokenManager
	revoked auth.RevocationList
	log     *slog.Logger
}

// NewGate creates the authorization gate
func NewGate(tokens *auth.TokenManager, revoked auth.RevocationList, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.Default()
	}
	return &Gate{tokens: tokens, revoked: revoked, log: log}
}

// Authenticate resolves the caller of r. It fails with domain.ErrNoToken
// when no bearer credential is present and domain.ErrInvalidToken when the
// credential is bad, expired or revoked.
func (g *Gate) Authenticate(r *http.Request) (auth.Identity, error) {
	raw, err := auth.ExtractToken(r.Header.Get("Authorization"))
	if err != nil {
		return auth.Identity{}, err
	}

	id, err := g.tokens.Verify(raw)
	if err != nil {
		return auth.Identity{}, err
	}

	if g.revoked != nil {
		revoked, err := g.revoked.IsRevoked(r.Context(), id.TokenID)
		if err != nil {
			return auth.Identity{}, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return auth.Identity{}, domain.ErrInvalidToken
		}
	}
	return id, nil
}

// Protect wraps fn so it only runs for an authenticated caller
func (g *Gate) Protect(fn AuthedHandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := g.Authenticate(r)
		if err != nil {
			metrics.ObserveAuth("verify", "failure")
			g.log.Debug("request rejected by auth gate",
				slog.String("path", r.URL.Path),
				slog.String("reason", err.Error()),
			)
			envelope.Error(w, g.log, err)
			return
		}
		metrics.ObserveAuth("verify", "success")
		fn(w, r, id)
	})
}

type requestIDKey struct{}

// RequestIDFromContext returns the id assigned by RequestID
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// RequestID attaches a request ID to the context and response headers and
// logs one line per completed request.
func RequestID(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get("X-Request-ID")
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", reqID)

			ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
			sw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(sw, r.WithContext(ctx))

			log.Info("request completed",
				slog.String("request_id", reqID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", sw.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// Recover turns a panic into a 500 envelope
func Recover(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.Error("panic recovered",
						slog.String("request_id", RequestIDFromContext(r.Context())),
						slog.Any("panic", rec),
						slog.String("stack", string(debug.Stack())),
					)
					envelope.Error(w, log, errors.New("panic"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// CORS honors the configured frontend origins
func CORS(allowed []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if originAllowed(allowed, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			} else if len(allowed) > 0 {
				w.Header().Set("Access-Control-Allow-Origin", allowed[0])
			}
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
