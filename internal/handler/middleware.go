package handler

import (
	"context"
	"net/http"

	"tush00nka/captionchat/internal/model"
	"tush00nka/captionchat/internal/pkg/auth"
	"tush00nka/captionchat/internal/pkg/httputils"
	"tush00nka/captionchat/internal/service"
)

type sessionKey struct{}

// Authenticator пропускает запрос дальше только с живой сессией.
type Authenticator struct {
	authService service.AuthService
}

func NewAuthenticator(authService service.AuthService) *Authenticator {
	return &Authenticator{authService: authService}
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		token, err := auth.TokenFromRequest(r)
		if err != nil {
			httputils.ResponseError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		session, err := a.authService.Authenticate(r.Context(), token)
		if err != nil {
			httputils.ResponseError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

func WithSession(ctx context.Context, session *model.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// SessionFromContext сессия, положенная Authenticator.
func SessionFromContext(ctx context.Context) (*model.Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(*model.Session)
	return session, ok
}

func currentSession(w http.ResponseWriter, r *http.Request) (*model.Session, bool) {
	session, ok := SessionFromContext(r.Context())
	if !ok {
		httputils.ResponseError(w, http.StatusUnauthorized, "invalid token")
	}
	return session, ok
}
