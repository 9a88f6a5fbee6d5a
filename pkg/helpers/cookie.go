package helpers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

// SessionCookies writes the admin session as a pair of HttpOnly cookies.
// Lax same-site lets the dashboard's login redirect carry them.
type SessionCookies struct {
	Domain string
	Secure bool
}

func NewSessionCookies(domain string, secure bool) *SessionCookies {
	return &SessionCookies{Domain: domain, Secure: secure}
}

func (s *SessionCookies) SetPair(c *gin.Context, access string, aexp time.Time, refresh string, rexp time.Time) {
	s.set(c, AccessCookie, access, maxAgeFrom(aexp))
	s.set(c, RefreshCookie, refresh, maxAgeFrom(rexp))
}

func (s *SessionCookies) Clear(c *gin.Context) {
	s.set(c, AccessCookie, "", -1)
	s.set(c, RefreshCookie, "", -1)
}

func (s *SessionCookies) set(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", s.Domain, s.Secure, true)
}

// CookieValue returns the named cookie or "" when absent.
func CookieValue(c *gin.Context, name string) string {
	v, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return v
}

func maxAgeFrom(exp time.Time) int {
	sec := int(time.Until(exp).Seconds())
	if sec < 0 {
		return 0
	}
	return sec
}
