package opendata

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Charset identifies the text encoding of a bulk CSV source.
type Charset string

const (
	// CharsetUTF8 is plain UTF-8, possibly with a leading BOM.
	CharsetUTF8 Charset = "utf-8"
	// CharsetLatin1 is ISO 8859-1, the encoding most interior-ministry
	// election files ship in.
	CharsetLatin1 Charset = "latin-1"
)

// RowOptions describes how to split one bulk CSV source into rows.
// Election sources disagree on delimiter and encoding per file, sometimes
// per round; everything else about row handling is shared.
type RowOptions struct {
	// Source names the dataset, for logging and skip counters.
	Source string
	// Delimiter is the field separator (tab, semicolon or comma).
	Delimiter rune
	// Charset is the file encoding. Defaults to UTF-8.
	Charset Charset
}

// Row is one CSV data row keyed by trimmed header name.
type Row map[string]string

// Get returns the trimmed value of a column, or "" when absent.
func (r Row) Get(name string) string {
	return strings.TrimSpace(r[name])
}

// RowResult is the outcome of decoding one CSV source.
type RowResult struct {
	Rows []Row
	// Skipped counts malformed rows (short records, stray delimiters).
	// Skipped rows are never silently coerced, they are dropped and
	// reported.
	Skipped int
}

// dropNUL strips NUL characters some ministry exports embed in numeric
// fields. It runs after the charset decode, so it covers both encodings.
var dropNUL = runes.Remove(runes.Predicate(func(r rune) bool { return r == 0 }))

// DecodeRows streams a CSV source into header-keyed rows, applying the
// source's charset, stripping a UTF-8 BOM and embedded NUL bytes, and
// skipping (with a count) rows shorter than the header. The source is never
// buffered whole; the RNE export runs to hundreds of megabytes.
func DecodeRows(r io.Reader, opts RowOptions) (*RowResult, error) {
	if opts.Delimiter == 0 {
		return nil, fmt.Errorf("row options for %s: delimiter is required", opts.Source)
	}

	// The BOM is raw bytes ahead of the charset seam. Strip it before
	// decoding, or a Latin-1 source would turn it into mojibake inside the
	// first header name.
	reader, err := stripBOM(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", opts.Source, err)
	}

	t := transform.Transformer(dropNUL)
	if opts.Charset == CharsetLatin1 {
		t = transform.Chain(charmap.ISO8859_1.NewDecoder(), dropNUL)
	}

	cr := csv.NewReader(transform.NewReader(reader, t))
	cr.Comma = opts.Delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return &RowResult{}, nil
		}
		return nil, fmt.Errorf("read %s header: %w", opts.Source, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	result := &RowResult{}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed rows are skipped; a broken stream is fatal, or
			// the loop would spin on the same read error.
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				result.Skipped++
				continue
			}
			return nil, fmt.Errorf("read %s: %w", opts.Source, err)
		}
		if len(rec) < len(header) {
			result.Skipped++
			continue
		}

		row := make(Row, len(header))
		for i, name := range header {
			row[name] = rec[i]
		}
		result.Rows = append(result.Rows, row)
	}

	return result, nil
}

// stripBOM discards a leading UTF-8 byte order mark without buffering the
// rest of the stream.
func stripBOM(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(3)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if len(head) == 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		if _, err := br.Discard(3); err != nil {
			return nil, err
		}
	}
	return br, nil
}
