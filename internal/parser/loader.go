package parser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

// DefaultEncoding is assumed when the caller declares none.
const DefaultEncoding = "utf-8"

// ErrEncoding is returned when the declared character encoding is unknown.
var ErrEncoding = errors.New("unknown character encoding")

// SourceError reports that the source artifact could not be read.
// It is distinct from parsing outcomes, which never fail.
type SourceError struct {
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	if e.Path == "" {
		return "read source: " + e.Err.Error()
	}
	return "read source " + e.Path + ": " + e.Err.Error()
}

func (e *SourceError) Unwrap() error { return e.Err }

// Load builds a document tree from raw markup in the declared encoding.
// The tree builder is lenient: malformed markup yields a best-effort tree.
// Only read and decoding failures are returned as errors.
func Load(r io.Reader, encoding string) (*goquery.Document, error) {
	dec, err := decoder(r, encoding)
	if err != nil {
		return nil, &SourceError{Err: err}
	}
	doc, err := goquery.NewDocumentFromReader(dec)
	if err != nil {
		return nil, &SourceError{Err: err}
	}
	return doc, nil
}

// LoadFile reads and parses the markup file at path.
func LoadFile(path, encoding string) (*goquery.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &SourceError{Path: path, Err: err}
	}
	defer f.Close()

	doc, err := Load(f, encoding)
	if err != nil {
		var se *SourceError
		if errors.As(err, &se) {
			se.Path = path
		}
		return nil, err
	}
	return doc, nil
}

func decoder(r io.Reader, label string) (io.Reader, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		label = DefaultEncoding
	}
	enc, name := charset.Lookup(label)
	if enc == nil {
		return nil, fmt.Errorf("%w: %q", ErrEncoding, label)
	}
	if name == "utf-8" {
		return r, nil
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}
