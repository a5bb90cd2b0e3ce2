package sheets

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/gudang-app/gudang/internal/reconcile"
)

// ReadCSV decodes r with opts.Encoding (UTF-8 by default, BOM stripped) and reads it
// as delimited text. The delimiter is sniffed from the header line unless opts.Comma is set.
func ReadCSV(r io.Reader, opts Options) ([]reconcile.ImportRecord, error) {
	dec, err := decoder(opts.Encoding)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(transform.NewReader(r, dec))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.Comma = opts.Comma
	if reader.Comma == 0 {
		reader.Comma = sniffDelimiter(data)
	}
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return buildRecords(rows), nil
}

func decoder(label string) (transform.Transformer, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return unicode.UTF8BOM.NewDecoder(), nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, label)
	}
	if enc == unicode.UTF8 {
		enc = unicode.UTF8BOM
	}
	return enc.NewDecoder(), nil
}

// sniffDelimiter picks the most frequent of comma, semicolon and tab on the first line.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, c := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte{byte(c)}); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}
