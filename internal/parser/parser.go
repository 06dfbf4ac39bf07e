package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/propdash-cli/internal/analysis"
)

// Options controls how source files are decoded into tables.
type Options struct {
	// Delimiter overrides CSV delimiter sniffing when non-zero.
	Delimiter rune
	// Encoding is "auto", "utf-8" or "gb18030". Auto falls back to GB18030
	// when the input is not valid UTF-8.
	Encoding string
	// SheetName selects a workbook sheet; SheetIndex (1-based) is used when empty.
	SheetName  string
	SheetIndex int
}

// DefaultOptions returns auto-detecting options that read the first sheet.
func DefaultOptions() Options {
	return Options{Encoding: "auto", SheetIndex: 1}
}

// Parser turns one tabular source into a raw table.
type Parser interface {
	CanParse(filename string) bool
	Parse(name string, content []byte, opt Options) (*analysis.Table, error)
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

// ErrUnsupported indicates a format is not supported.
var ErrUnsupported = errors.New("unsupported file format")

// Supported reports whether any registered parser accepts the filename.
func Supported(filename string) bool {
	for _, p := range registry {
		if p.CanParse(filename) {
			return true
		}
	}
	return false
}

// Parse decodes in-memory content; name selects the parser by extension.
func Parse(name string, content []byte, opt Options) (*analysis.Table, error) {
	for _, p := range registry {
		if p.CanParse(name) {
			t, err := p.Parse(name, content, opt)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			return t, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", name, ErrUnsupported)
}

// ParseFile reads a file from disk and decodes it.
func ParseFile(path string, opt Options) (*analysis.Table, error) {
	if !Supported(path) {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupported)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Parse(filepath.Base(path), data, opt)
}

// ParseFiles loads every path and stacks the results into one table.
func ParseFiles(paths []string, opt Options) (*analysis.Table, error) {
	if len(paths) == 0 {
		return nil, errors.New("no input files")
	}
	tables := make([]*analysis.Table, 0, len(paths))
	for _, p := range paths {
		t, err := ParseFile(p, opt)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	if len(tables) == 1 {
		return tables[0], nil
	}
	return analysis.Concat(tables...), nil
}

func init() {
	Register(csvParser{})
	Register(xlsxParser{})
}
