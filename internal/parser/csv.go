package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/KaramelBytes/propdash-cli/internal/analysis"
	"golang.org/x/text/encoding/simplifiedchinese"
)

type csvParser struct{}

func (csvParser) CanParse(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv") || strings.HasSuffix(name, ".txt")
}

func (csvParser) Parse(name string, content []byte, opt Options) (*analysis.Table, error) {
	data, err := decode(content, opt.Encoding)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(name, data)
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true
	r.Comma = delim

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return analysis.NewTable(name, nil, nil), nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	header = append([]string(nil), header...)
	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, rec)
	}
	return analysis.NewTable(name, header, rows), nil
}

// decode converts content to UTF-8 according to enc.
func decode(content []byte, enc string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "", "auto":
		if utf8.Valid(content) {
			return content, nil
		}
	case "utf-8", "utf8":
		return content, nil
	case "gb18030", "gbk", "gb2312":
	default:
		return nil, fmt.Errorf("unknown encoding %q", enc)
	}
	out, err := simplifiedchinese.GB18030.NewDecoder().Bytes(content)
	if err != nil {
		return nil, fmt.Errorf("decode gb18030: %w", err)
	}
	return out, nil
}

// sniffDelimiter picks the candidate that occurs most often in the header line.
func sniffDelimiter(name string, data []byte) rune {
	if strings.HasSuffix(strings.ToLower(name), ".tsv") {
		return '\t'
	}
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestN := ',', 0
	for _, c := range []rune{',', '\t', ';', '|'} {
		if n := bytes.Count(line, []byte(string(c))); n > bestN {
			best, bestN = c, n
		}
	}
	return best
}
