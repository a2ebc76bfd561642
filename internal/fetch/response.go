package fetch

import (
	"fmt"

	"github.com/chromedp/cdproto/network"

	"github.com/dshills/pagefetch/internal/cache"
)

// Response is the result of a request, fresh or from cache.
type Response struct {
	URL       string         `json:"url"`
	Method    string         `json:"method"`
	Text      string         `json:"text"`
	Cookies   []cache.Cookie `json:"cookies"`
	UserAgent string         `json:"userAgent"`
	FromCache bool           `json:"fromCache"`
}

// String returns the page source.
func (r *Response) String() string {
	return r.Text
}

// GoString summarises the response for debugging without dumping the page.
func (r *Response) GoString() string {
	return fmt.Sprintf("<Response URL: %s METHOD: %s TEXT: %d bytes COOKIES: %d USERAGENT: %s>",
		r.URL, r.Method, len(r.Text), len(r.Cookies), r.UserAgent)
}

func (r *Response) record() cache.Record {
	return cache.Record{
		URL:       r.URL,
		Data:      r.Text,
		Method:    r.Method,
		Cookies:   r.Cookies,
		UserAgent: r.UserAgent,
	}
}

func fromRecord(rec cache.Record) *Response {
	return &Response{
		URL:       rec.URL,
		Method:    rec.Method,
		Text:      rec.Data,
		Cookies:   rec.Cookies,
		UserAgent: rec.UserAgent,
		FromCache: true,
	}
}

func convertCookies(in []*network.Cookie) []cache.Cookie {
	out := make([]cache.Cookie, 0, len(in))
	for _, c := range in {
		if c == nil {
			continue
		}
		cookie := cache.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: c.SameSite.String(),
		}
		if !c.Session && c.Expires > 0 {
			cookie.Expiry = c.Expires
		}
		out = append(out, cookie)
	}
	return out
}
