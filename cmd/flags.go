package cmd

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/KaramelBytes/propdash-cli/internal/analysis"
	"github.com/KaramelBytes/propdash-cli/internal/session"
	"github.com/KaramelBytes/propdash-cli/internal/utils"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// loadFlags are the loader overrides shared by every command that reads files.
type loadFlags struct {
	domain      string
	delimiter   string
	encoding    string
	sheetName   string
	sheetIndex  int
	currentYear int
}

func (l *loadFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&l.domain, "domain", "", "data domain: for-sale | transaction (default from config)")
	fs.StringVar(&l.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab' (sniffed if omitted)")
	fs.StringVar(&l.encoding, "encoding", "", "text encoding: auto | utf-8 | gb18030")
	fs.StringVar(&l.sheetName, "sheet-name", "", "XLSX: sheet name to read")
	fs.IntVar(&l.sheetIndex, "sheet-index", 0, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	fs.IntVar(&l.currentYear, "current-year", 0, "upper bound for build years (default: this year)")
}

// options merges the config with any flags that were set.
func (l *loadFlags) options(cmd *cobra.Command) (session.Options, error) {
	c := currentConfig()
	opts := session.DefaultOptions()
	opts.ExtraAliases = c.ExtraAliases
	opts.Clean.CurrentYear = c.CurrentYear

	domain := c.DefaultDomain
	if cmd.Flags().Changed("domain") {
		domain = l.domain
	}
	if domain != "" {
		d, err := analysis.ParseDomain(domain)
		if err != nil {
			return opts, err
		}
		opts.Domain = d
	}

	opts.Parser.Delimiter = c.DelimiterRune()
	if cmd.Flags().Changed("delimiter") {
		switch l.delimiter {
		case ",", ";", "|":
			opts.Parser.Delimiter = rune(l.delimiter[0])
		case "\t", `\t`, "tab":
			opts.Parser.Delimiter = '\t'
		default:
			return opts, fmt.Errorf("unsupported --delimiter: %s", l.delimiter)
		}
	}
	if c.Encoding != "" {
		opts.Parser.Encoding = c.Encoding
	}
	if cmd.Flags().Changed("encoding") {
		opts.Parser.Encoding = strings.ToLower(l.encoding)
	}
	opts.Parser.SheetName = c.SheetName
	if c.SheetIndex > 0 {
		opts.Parser.SheetIndex = c.SheetIndex
	}
	if cmd.Flags().Changed("sheet-name") {
		opts.Parser.SheetName = l.sheetName
	}
	if cmd.Flags().Changed("sheet-index") {
		if l.sheetIndex < 1 {
			return opts, fmt.Errorf("--sheet-index must be 1 or greater")
		}
		opts.Parser.SheetIndex = l.sheetIndex
	}
	if cmd.Flags().Changed("current-year") {
		opts.Clean.CurrentYear = l.currentYear
	}
	return opts, nil
}

// filterFlags mirror the HTTP query parameters of the same names.
type filterFlags struct {
	districts     []string
	businessAreas []string
	rooms         []string
	floors        []string
	decorations   []string
	bounds        map[string]*float64
}

var boundFlags = []struct{ flag, param, usage string }{
	{"min-price", analysis.ParamMinPrice, "minimum total price (万)"},
	{"max-price", analysis.ParamMaxPrice, "maximum total price (万)"},
	{"min-area", analysis.ParamMinArea, "minimum area (㎡)"},
	{"max-area", analysis.ParamMaxArea, "maximum area (㎡)"},
	{"min-year", analysis.ParamMinYear, "earliest build year"},
	{"max-year", analysis.ParamMaxYear, "latest build year"},
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringSliceVar(&f.districts, "district", nil, "keep only these districts (repeatable)")
	fs.StringSliceVar(&f.businessAreas, "business-area", nil, "keep only these business areas (repeatable)")
	fs.StringSliceVar(&f.rooms, "rooms", nil, "keep only these room classes, e.g. '2 rooms' (repeatable)")
	fs.StringSliceVar(&f.floors, "floor", nil, "keep only these floor classes: low | mid | high (repeatable)")
	fs.StringSliceVar(&f.decorations, "decoration", nil, "keep only these decoration states (repeatable)")
	f.bounds = map[string]*float64{}
	for _, b := range boundFlags {
		f.bounds[b.flag] = new(float64)
		fs.Float64Var(f.bounds[b.flag], b.flag, 0, b.usage)
	}
}

// selection converts the set flags to a filter selection.
func (f *filterFlags) selection(cmd *cobra.Command) (analysis.FilterSelection, error) {
	v := url.Values{}
	for _, s := range []struct {
		flag, param string
		vals        []string
	}{
		{"district", analysis.ParamDistrict, f.districts},
		{"business-area", analysis.ParamBusinessArea, f.businessAreas},
		{"rooms", analysis.ParamRooms, f.rooms},
		{"floor", analysis.ParamFloor, f.floors},
		{"decoration", analysis.ParamDecoration, f.decorations},
	} {
		if cmd.Flags().Changed(s.flag) {
			v[s.param] = s.vals
		}
	}
	for _, b := range boundFlags {
		if cmd.Flags().Changed(b.flag) {
			v.Set(b.param, strconv.FormatFloat(*f.bounds[b.flag], 'f', -1, 64))
		}
	}
	return analysis.ParseSelection(v)
}

// expandInputs resolves glob patterns; plain paths pass through unchanged.
func expandInputs(args []string) ([]string, error) {
	var out []string
	for _, a := range args {
		if !strings.ContainsAny(a, "*?[") {
			out = append(out, a)
			continue
		}
		matches, err := filepath.Glob(a)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", a, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", a)
		}
		out = append(out, matches...)
	}
	return out, nil
}

// markdowner is implemented by every report type.
type markdowner interface{ Markdown() string }

// render formats a report as md, json or yaml.
func render(v markdowner, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", "md", "markdown":
		return []byte(v.Markdown()), nil
	case "json":
		return utils.PrettyJSON(v)
	case "yaml", "yml":
		// Round-trip through JSON so the json tags and marshalers apply.
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		var generic any
		if err := json.Unmarshal(b, &generic); err != nil {
			return nil, err
		}
		return yaml.Marshal(generic)
	}
	return nil, fmt.Errorf("unsupported --format: %s (use md, json or yaml)", format)
}

// emit writes out to path, or to stdout when path is empty.
func emit(out []byte, path, what string) error {
	if path == "" {
		fmt.Println(strings.TrimRight(string(out), "\n"))
		return nil
	}
	if err := utils.SafeWriteFile(path, out); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Printf("✓ Wrote %s to %s\n", what, path)
	return nil
}
