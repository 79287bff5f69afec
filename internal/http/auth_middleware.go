package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gatekit/api/internal/domain"
)

type authContextKey string

type authInfo struct {
	UserID string
	Role   string
}

const contextKeyAuth authContextKey = "gatekit-auth-info"

type contextSetter interface {
	SetContext(context.Context)
}

// ensureAuth validates the Authorization header, loads the token's user and
// enriches the context.
func (r *Router) ensureAuth(w http.ResponseWriter, req *http.Request) (context.Context, *domain.User, bool) {
	token, err := bearerToken(req.Header.Get("Authorization"))
	if err != nil {
		r.logger.Warn("authorization header invalid", "error", err, "path", req.URL.Path)
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return req.Context(), nil, false
	}
	user, claims, err := r.auth.Authorize(req.Context(), token)
	if err != nil {
		r.logger.Warn("token validation failed", "error", err, "path", req.URL.Path)
		writeError(w, http.StatusUnauthorized, "Authentication failed")
		return req.Context(), nil, false
	}
	ctx := context.WithValue(req.Context(), contextKeyAuth, authInfo{UserID: user.ID, Role: claims.Role})
	return ctx, user, true
}

// authInfoFromContext extracts auth metadata from context.
func authInfoFromContext(ctx context.Context) (authInfo, bool) {
	value := ctx.Value(contextKeyAuth)
	if value == nil {
		return authInfo{}, false
	}
	info, ok := value.(authInfo)
	return info, ok
}

func bearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header format")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("empty bearer token")
	}
	return token, nil
}
