package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/pagefetch/internal/cache"
	"github.com/dshills/pagefetch/internal/fetch"
	"github.com/dshills/pagefetch/internal/redact"
)

// JSONWriter outputs the full response as JSON.
type JSONWriter struct {
	RedactCookies bool
}

func (j *JSONWriter) Write(w io.Writer, resp *fetch.Response) error {
	out := *resp
	if j.RedactCookies {
		out.Cookies = make([]cache.Cookie, len(resp.Cookies))
		for i, c := range resp.Cookies {
			c.Value = redact.CookieValue(c.Name, c.Value)
			out.Cookies[i] = c
		}
	}
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}
