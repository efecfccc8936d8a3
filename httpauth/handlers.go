package httpauth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/MrEthical07/cookieauth"
	"github.com/MrEthical07/cookieauth/internal/logx"
)

const maxLoginBody = 64 << 10

type loginRequest struct {
	LoginID  string `json:"login_id"`
	Password string `json:"password"`
}

// SessionResponse is returned by login and refresh.
type SessionResponse struct {
	ID               int64     `json:"id"`
	LoginID          string    `json:"login_id"`
	Role             string    `json:"role,omitempty"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

func sessionResponse(p cookieauth.Principal, pair cookieauth.TokenPair) SessionResponse {
	return SessionResponse{
		ID:               p.ID,
		LoginID:          p.LoginID,
		Role:             p.Role,
		AccessExpiresAt:  pair.AccessExpiresAt.UTC(),
		RefreshExpiresAt: pair.RefreshExpiresAt.UTC(),
	}
}

// LoginHandler accepts {"login_id","password"}. On success both cookies are
// set; on failure no cookie is written.
func LoginHandler(engine *cookieauth.Engine) http.Handler {
	cfg := engine.Config()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody))
		if err := dec.Decode(&req); err != nil {
			WriteError(w, cookieauth.ErrMalformedRequest)
			return
		}

		p, pair, err := engine.Login(r.Context(), req.LoginID, req.Password)
		if err != nil {
			logFailure(r, "login", err)
			WriteError(w, err)
			return
		}

		SetTokenCookies(w, cfg, pair)
		WriteJSON(w, http.StatusOK, sessionResponse(p, pair))
	})
}

// RefreshHandler exchanges the refresh cookie for a new pair. Failures leave
// the client's cookies untouched.
func RefreshHandler(engine *cookieauth.Engine) http.Handler {
	cfg := engine.Config()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, pair, err := engine.Refresh(r.Context(), CookieValue(r, cfg.Cookie.RefreshName))
		if err != nil {
			logFailure(r, "refresh", err)
			WriteError(w, err)
			return
		}

		SetTokenCookies(w, cfg, pair)
		WriteJSON(w, http.StatusOK, sessionResponse(p, pair))
	})
}

// LogoutHandler revokes the server-side session and always clears both
// cookies, including when the store is unavailable.
func LogoutHandler(engine *cookieauth.Engine) http.Handler {
	cfg := engine.Config()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		access := AccessToken(r, cfg.Cookie.AccessName)
		refresh := CookieValue(r, cfg.Cookie.RefreshName)

		ClearTokenCookies(w, cfg)

		if err := engine.Logout(r.Context(), access, refresh); err != nil {
			logFailure(r, "logout", err)
			WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

// MeHandler echoes the principal attached by the authentication gate.
func MeHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := cookieauth.PrincipalFromContext(r.Context())
		if !ok {
			WriteCode(w, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{
			"id":       p.ID,
			"login_id": p.LoginID,
			"role":     p.Role,
		})
	})
}

func logFailure(r *http.Request, op string, err error) {
	kind := cookieauth.KindOf(err)
	logger := logx.FromContext(r.Context())
	if kind.Status() >= http.StatusInternalServerError {
		logger.Error(op+" failed", "code", kind.Code(), "error", err)
		return
	}
	logger.Debug(op+" rejected", "code", kind.Code())
}
