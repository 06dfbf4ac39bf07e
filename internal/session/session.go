package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/KaramelBytes/propdash-cli/internal/analysis"
	"github.com/KaramelBytes/propdash-cli/internal/logger"
	"github.com/KaramelBytes/propdash-cli/internal/parser"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNoData is returned when a query runs before any dataset was loaded.
	ErrNoData = errors.New("no dataset loaded")
	// ErrRecordNotFound is returned when a competitiveness target cannot be resolved.
	ErrRecordNotFound = errors.New("record not found")
)

// Options fixes how sources are decoded, normalized and cleaned.
type Options struct {
	Domain       analysis.Domain
	Parser       parser.Options
	Clean        analysis.CleanOptions
	ExtraAliases map[string][]string
}

// DefaultOptions reads for-sale data with auto-detection everywhere.
func DefaultOptions() Options {
	return Options{
		Domain: analysis.DomainForSale,
		Parser: parser.DefaultOptions(),
		Clean:  analysis.DefaultCleanOptions(),
	}
}

// Snapshot is the immutable result of one load.
type Snapshot struct {
	ID       string                  `json:"id"`
	Sources  []string                `json:"sources"`
	LoadedAt time.Time               `json:"loaded_at"`
	Renames  []analysis.Rename       `json:"renames"`
	Quality  *analysis.QualityReport `json:"quality"`
	Dataset  *analysis.Dataset       `json:"-"`
}

// Prepare normalizes and cleans a raw table into a snapshot.
func Prepare(t *analysis.Table, sources []string, opts Options) *Snapshot {
	rules := analysis.RulesFor(opts.Domain)
	if len(opts.ExtraAliases) > 0 {
		rules = rules.WithExtra(opts.ExtraAliases)
	}
	norm, renames := rules.Apply(t)
	ds, rep := analysis.Clean(norm, opts.Domain, opts.Clean)

	snap := &Snapshot{
		ID:       uuid.NewString(),
		Sources:  append([]string(nil), sources...),
		LoadedAt: time.Now(),
		Renames:  renames,
		Quality:  rep,
		Dataset:  ds,
	}
	logger.Info("dataset prepared",
		zap.String("session", snap.ID),
		zap.String("domain", string(opts.Domain)),
		zap.Strings("sources", sources),
		zap.Int("rows", rep.OriginalRows),
		zap.Int("cleaned", rep.CleanedRows),
		zap.Int("renames", len(renames)),
	)
	for _, r := range renames {
		logger.Debug("column renamed", zap.String("from", r.From), zap.String("to", r.To))
	}
	for _, is := range rep.Issues {
		logger.Warn("quality issue", zap.String("issue", is))
	}
	return snap
}

// LoadFiles parses, normalizes and cleans the given files without a session.
func LoadFiles(paths []string, opts Options) (*Snapshot, error) {
	t, err := parser.ParseFiles(paths, opts.Parser)
	if err != nil {
		return nil, err
	}
	return Prepare(t, paths, opts), nil
}

// Dashboard builds every aggregate view over snap filtered by sel.
func (snap *Snapshot) Dashboard(sel analysis.FilterSelection) *analysis.Dashboard {
	d := analysis.BuildDashboard(snap.Dataset, sel, snap.Quality.CurrentYear)
	d.Sources = snap.Sources
	d.Renames = snap.Renames
	d.Quality = snap.Quality
	return d
}

// Target identifies a competitiveness target by ID, by 1-based row, or by
// community and layout.
type Target struct {
	ID        string
	Row       int
	Community string
	Layout    string
}

func (t Target) String() string {
	switch {
	case t.ID != "":
		return "id " + t.ID
	case t.Row > 0:
		return fmt.Sprintf("row %d", t.Row)
	default:
		return fmt.Sprintf("community %q layout %q", t.Community, t.Layout)
	}
}

// Locate resolves a target among the snapshot's records.
func (snap *Snapshot) Locate(t Target) (*analysis.Record, error) {
	ds := snap.Dataset
	switch {
	case t.ID != "":
		if r := ds.Find(t.ID); r != nil {
			return r, nil
		}
	case t.Row > 0:
		if t.Row <= ds.Len() {
			return ds.Records[t.Row-1], nil
		}
	case t.Community != "":
		for _, r := range ds.Records {
			c, _ := r.Text(analysis.FieldCommunity)
			if !strings.Contains(c, t.Community) {
				continue
			}
			if t.Layout != "" {
				if l, _ := r.Text(analysis.FieldLayout); l != t.Layout {
					continue
				}
			}
			return r, nil
		}
	default:
		return nil, errors.New("no target given: set an id, a row or a community")
	}
	return nil, fmt.Errorf("%s: %w", t, ErrRecordNotFound)
}

// Compete analyzes a target against the records that pass sel.
func (snap *Snapshot) Compete(t Target, sel analysis.FilterSelection) (*analysis.Competitiveness, error) {
	target, err := snap.Locate(t)
	if err != nil {
		return nil, err
	}
	pool := analysis.Apply(snap.Dataset, sel)
	c := analysis.Analyze(target, pool)
	logger.Debug("competitiveness computed",
		zap.String("target", target.ID),
		zap.Int("pool", pool.Len()),
		zap.Int("peers", len(c.Peers)),
		zap.Float64("overall", c.Overall),
	)
	return c, nil
}

// Page returns one window of the filtered records and the filtered total.
func (snap *Snapshot) Page(sel analysis.FilterSelection, offset, limit int) ([]*analysis.Record, int) {
	recs := analysis.Apply(snap.Dataset, sel).Records
	total := len(recs)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return recs[offset:end], total
}

// Session holds the current snapshot for concurrent readers. A load
// replaces the snapshot wholesale.
type Session struct {
	mu   sync.RWMutex
	opts Options
	snap *Snapshot
}

// New returns an empty session.
func New(opts Options) *Session {
	return &Session{opts: opts}
}

// Options returns the load options of the session.
func (s *Session) Options() Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts
}

// SetDomain changes the domain used by subsequent loads.
func (s *Session) SetDomain(d analysis.Domain) {
	s.mu.Lock()
	s.opts.Domain = d
	s.mu.Unlock()
}

// Load installs a new snapshot built from t.
func (s *Session) Load(t *analysis.Table, sources []string) *Snapshot {
	snap := Prepare(t, sources, s.Options())
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	return snap
}

// LoadFiles parses paths and installs the result.
func (s *Session) LoadFiles(paths []string) (*Snapshot, error) {
	t, err := parser.ParseFiles(paths, s.Options().Parser)
	if err != nil {
		return nil, err
	}
	return s.Load(t, paths), nil
}

// Current returns the installed snapshot or ErrNoData.
func (s *Session) Current() (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return nil, ErrNoData
	}
	return s.snap, nil
}

// Reset drops the installed snapshot.
func (s *Session) Reset() {
	s.mu.Lock()
	s.snap = nil
	s.mu.Unlock()
}
