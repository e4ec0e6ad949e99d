package session

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// CookieName is the cookie holding the API credential.
const CookieName = "authToken"

// CookieConfig controls how the credential cookie is written.
type CookieConfig struct {
	TTL      time.Duration
	Secure   bool
	SameSite http.SameSite
}

// DefaultCookieConfig mirrors the seven day, strict same-site cookie.
func DefaultCookieConfig() CookieConfig {
	return CookieConfig{
		TTL:      7 * 24 * time.Hour,
		SameSite: http.SameSiteStrictMode,
	}
}

// ParseSameSite maps "strict", "lax" and "none" to http.SameSite.
func ParseSameSite(v string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "strict":
		return http.SameSiteStrictMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("unknown same-site policy %q", v)
	}
}

// Cookies reads and writes the credential cookie.
type Cookies struct {
	cfg CookieConfig
	now func() time.Time
}

func NewCookies(cfg CookieConfig) *Cookies {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCookieConfig().TTL
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = http.SameSiteStrictMode
	}
	return &Cookies{cfg: cfg, now: time.Now}
}

// Read returns the stored credential or "".
func (c *Cookies) Read(r *http.Request) string {
	ck, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(ck.Value)
}

// Write stores the credential for the configured TTL.
func (c *Cookies) Write(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  c.now().Add(c.cfg.TTL),
		MaxAge:   int(c.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: c.cfg.SameSite,
	})
}

// Clear expires the credential cookie.
func (c *Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: c.cfg.SameSite,
	})
}

// FromRequest builds a Session from the cookie and wires invalidation to
// clearing the cookie on w.
func (c *Cookies) FromRequest(w http.ResponseWriter, r *http.Request) *Session {
	s := New(c.Read(r))
	s.Subscribe(func(Reason) {
		c.Clear(w)
	})
	return s
}
