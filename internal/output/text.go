package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/pagefetch/internal/fetch"
)

// TextWriter outputs the raw page source.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, resp *fetch.Response) error {
	if _, err := io.WriteString(w, resp.Text); err != nil {
		return fmt.Errorf("writing page: %w", err)
	}
	if resp.Text != "" && !strings.HasSuffix(resp.Text, "\n") {
		_, err := fmt.Fprintln(w)
		return err
	}
	return nil
}
