package output

import (
	"fmt"
	"io"
	"os"

	"github.com/dshills/pagefetch/internal/fetch"
)

// Writer writes a response in a specific format.
type Writer interface {
	Write(w io.Writer, resp *fetch.Response) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string, redactCookies bool) (Writer, error) {
	switch format {
	case "", "text", "html":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{RedactCookies: redactCookies}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteResponse writes the response to the specified output (file path or stdout).
func WriteResponse(resp *fetch.Response, writer Writer, outPath string) error {
	var w io.Writer
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
	}

	return writer.Write(w, resp)
}
