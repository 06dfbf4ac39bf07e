package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/KaramelBytes/propdash-cli/internal/analysis"
	"github.com/KaramelBytes/propdash-cli/internal/parser"
	"github.com/KaramelBytes/propdash-cli/internal/session"
	"github.com/gin-gonic/gin"
)

const defaultPageSize = 50

// abort maps err to a status and writes {"error": ...}.
func abort(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNoData):
		status = http.StatusConflict
	case errors.Is(err, session.ErrRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, parser.ErrUnsupported):
		status = http.StatusUnsupportedMediaType
	case errors.As(err, new(badRequest)):
		status = http.StatusBadRequest
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

type badRequest struct{ error }

func invalid(err error) error { return badRequest{err} }

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if snap, err := s.sess.Current(); err == nil {
		body["session"] = snap.ID
		body["records"] = snap.Dataset.Len()
	}
	c.JSON(http.StatusOK, body)
}

// handleUpload replaces the session dataset with the uploaded files,
// concatenated in upload order. The optional domain form or query value
// switches the domain first.
func (s *Server) handleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUpload)
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit)})
			return
		}
		abort(c, invalid(fmt.Errorf("read multipart form: %w", err)))
		return
	}
	files := form.File["file"]
	if len(files) == 0 {
		abort(c, invalid(errors.New("missing multipart field \"file\"")))
		return
	}
	if d := c.DefaultPostForm("domain", c.Query("domain")); d != "" {
		dom, err := analysis.ParseDomain(d)
		if err != nil {
			abort(c, invalid(err))
			return
		}
		s.sess.SetDomain(dom)
	}
	opts := s.sess.Options()
	domain := string(opts.Domain)
	tables := make([]*analysis.Table, 0, len(files))
	sources := make([]string, 0, len(files))
	for _, fh := range files {
		t, err := parseUpload(fh, opts.Parser)
		if err != nil {
			s.metrics.ObserveLoad(domain, err, 0, 0)
			if !errors.Is(err, parser.ErrUnsupported) {
				err = invalid(err)
			}
			abort(c, err)
			return
		}
		tables = append(tables, t)
		sources = append(sources, fh.Filename)
	}
	t := tables[0]
	if len(tables) > 1 {
		t = analysis.Concat(tables...)
	}
	snap := s.sess.Load(t, sources)
	s.metrics.ObserveLoad(domain, nil, snap.Quality.CleanedRows, snap.Quality.DroppedRows)
	c.JSON(http.StatusOK, snap)
}

func parseUpload(fh *multipart.FileHeader, opt parser.Options) (*analysis.Table, error) {
	if !parser.Supported(fh.Filename) {
		return nil, fmt.Errorf("%s: %w", fh.Filename, parser.ErrUnsupported)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fh.Filename, err)
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fh.Filename, err)
	}
	return parser.Parse(fh.Filename, content, opt)
}

func (s *Server) handleQuality(c *gin.Context) {
	snap, err := s.sess.Current()
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session": snap.ID,
		"sources": snap.Sources,
		"renames": snap.Renames,
		"quality": snap.Quality,
	})
}

// current returns the snapshot and the selection parsed from the query.
func (s *Server) current(c *gin.Context) (*session.Snapshot, analysis.FilterSelection, bool) {
	snap, err := s.sess.Current()
	if err != nil {
		abort(c, err)
		return nil, analysis.FilterSelection{}, false
	}
	sel, err := analysis.ParseSelection(c.Request.URL.Query())
	if err != nil {
		abort(c, invalid(err))
		return nil, analysis.FilterSelection{}, false
	}
	return snap, sel, true
}

func (s *Server) handleOverview(c *gin.Context) {
	snap, sel, ok := s.current(c)
	if !ok {
		return
	}
	d := snap.Dashboard(sel)
	if c.Query("format") == "md" {
		c.String(http.StatusOK, d.Markdown())
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) handleSegments(c *gin.Context) {
	snap, sel, ok := s.current(c)
	if !ok {
		return
	}
	seg := analysis.Segment(analysis.Apply(snap.Dataset, sel), analysis.FieldTotalPrice, analysis.FieldArea)
	c.JSON(http.StatusOK, seg)
}

func (s *Server) handleCompetitiveness(c *gin.Context) {
	snap, sel, ok := s.current(c)
	if !ok {
		return
	}
	t := session.Target{
		ID:        c.Query("id"),
		Community: c.Query("community"),
		Layout:    c.Query("layout"),
	}
	if r := c.Query("row"); r != "" {
		n, err := strconv.Atoi(r)
		if err != nil || n < 1 {
			abort(c, invalid(errors.New("row must be a positive integer")))
			return
		}
		t.Row = n
	}
	if t.ID == "" && t.Row == 0 && t.Community == "" {
		abort(c, invalid(errors.New("set one of id, row or community")))
		return
	}
	res, err := snap.Compete(t, sel)
	if err != nil {
		s.metrics.ObserveCompete(err, 0)
		abort(c, err)
		return
	}
	s.metrics.ObserveCompete(nil, res.Overall)
	if c.Query("format") == "md" {
		c.String(http.StatusOK, res.Markdown())
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleRecords(c *gin.Context) {
	snap, sel, ok := s.current(c)
	if !ok {
		return
	}
	offset, err := intParam(c, "offset", 0)
	if err != nil {
		abort(c, invalid(err))
		return
	}
	limit, err := intParam(c, "limit", defaultPageSize)
	if err != nil {
		abort(c, invalid(err))
		return
	}
	recs, total := snap.Page(sel, offset, limit)
	c.JSON(http.StatusOK, gin.H{
		"total":   total,
		"offset":  offset,
		"limit":   limit,
		"records": recs,
	})
}

// handleFacets lists the values each facet filter can take.
func (s *Server) handleFacets(c *gin.Context) {
	snap, err := s.sess.Current()
	if err != nil {
		abort(c, err)
		return
	}
	ds := snap.Dataset
	out := gin.H{}
	for key, f := range map[string]analysis.Field{
		analysis.ParamDistrict:     analysis.FieldDistrict,
		analysis.ParamBusinessArea: analysis.FieldBusinessArea,
		analysis.ParamRooms:        analysis.FieldLayout,
		analysis.ParamFloor:        analysis.FieldFloor,
		analysis.ParamDecoration:   analysis.FieldDecoration,
	} {
		if ds.Fields.Has(f) {
			out[key] = analysis.DistinctValues(ds, f)
		}
	}
	c.JSON(http.StatusOK, out)
}

func intParam(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New(key + " must be a non-negative integer")
	}
	return n, nil
}
