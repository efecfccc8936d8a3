package httpauth

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/cookieauth"
	"github.com/MrEthical07/cookieauth/internal/logx"
)

// SetTokenCookies writes both credential cookies with Max-Age equal to the
// configured token lifetimes.
func SetTokenCookies(w http.ResponseWriter, cfg cookieauth.Config, pair cookieauth.TokenPair) {
	http.SetCookie(w, tokenCookie(cfg.Cookie, cfg.Cookie.AccessName, pair.AccessToken, cfg.JWT.AccessTTL))
	http.SetCookie(w, tokenCookie(cfg.Cookie, cfg.Cookie.RefreshName, pair.RefreshToken, cfg.JWT.RefreshTTL))
}

// ClearTokenCookies expires both credential cookies (Max-Age=0).
func ClearTokenCookies(w http.ResponseWriter, cfg cookieauth.Config) {
	for _, name := range []string{cfg.Cookie.AccessName, cfg.Cookie.RefreshName} {
		c := tokenCookie(cfg.Cookie, name, "", 0)
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func tokenCookie(cc cookieauth.CookieConfig, name, value string, ttl time.Duration) *http.Cookie {
	path := cc.Path
	if path == "" {
		path = "/"
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   cc.Domain,
		MaxAge:   int(ttl / time.Second),
		Secure:   cc.Secure,
		HttpOnly: true,
		SameSite: cc.SameSite,
	}
}

// CookieValue returns the named cookie's value or "".
func CookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// AccessToken picks the candidate access token: the access cookie first,
// then an Authorization: Bearer header.
func AccessToken(r *http.Request, cookieName string) string {
	if v := CookieValue(r, cookieName); v != "" {
		return v
	}
	return bearerToken(r.Header.Get("Authorization"))
}

func bearerToken(value string) string {
	const bearer = "Bearer "
	if len(value) <= len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return ""
	}
	return strings.TrimSpace(value[len(bearer):])
}

// RequestContext copies the client IP and the logx request id onto the
// request context so the engine can attach them to throttle keys and audit
// events. The IP comes from RemoteAddr; put a trusted proxy-header rewriter
// in front of it when running behind a load balancer.
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := cookieauth.WithClientIP(r.Context(), ClientIP(r))
		if id := logx.RequestID(ctx); id != "" {
			ctx = cookieauth.WithRequestID(ctx, id)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIP returns the host part of r.RemoteAddr.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
