// recovery/cookie.go
package recovery

import (
	"net/http"
	"net/url"
)

// CookieMedium binds the snapshot slot to an HTTP exchange: reads come from
// the request's cookie jar, writes go out as Set-Cookie headers with the
// slot's max age enforced by the browser.
type CookieMedium struct {
	w http.ResponseWriter
	r *http.Request
}

func NewCookieMedium(w http.ResponseWriter, r *http.Request) *CookieMedium {
	return &CookieMedium{w: w, r: r}
}

func (c *CookieMedium) Get() (string, bool) {
	cookie, err := c.r.Cookie(SlotName)
	if err != nil {
		return "", false
	}
	payload, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return "", false
	}
	return payload, true
}

func (c *CookieMedium) Set(payload string) {
	http.SetCookie(c.w, &http.Cookie{
		Name:   SlotName,
		Value:  url.QueryEscape(payload),
		Path:   "/",
		MaxAge: int(MaxAge.Seconds()),
	})
}

func (c *CookieMedium) Clear() {
	http.SetCookie(c.w, &http.Cookie{
		Name:   SlotName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
