package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eleven-am/fiadb/internal/export"
	"github.com/eleven-am/fiadb/internal/registry"
	"github.com/eleven-am/fiadb/internal/validate"
)

// TableSummary is one entry of the table listing
type TableSummary struct {
	Name    string `json:"name"`
	Title   string `json:"title,omitempty"`
	Columns int    `json:"columns"`
	Keys    int    `json:"keys"`
}

// LinkView is a registry link with its rendered join condition
type LinkView struct {
	registry.Link
	Condition string `json:"condition"`
}

// ValidateRequest carries either one row or a batch
type ValidateRequest struct {
	Row  validate.Row   `json:"row,omitempty"`
	Rows []validate.Row `json:"rows,omitempty"`
}

// ValidateResult is the reply to a validation request. Invalid maps the
// index of each failing batch row to its violations.
type ValidateResult struct {
	Valid      bool                        `json:"valid"`
	Violations validate.Violations         `json:"violations,omitempty"`
	Invalid    map[int]validate.Violations `json:"invalid,omitempty"`
}

func views(links []registry.Link) []LinkView {
	out := make([]LinkView, len(links))
	for i, l := range links {
		out[i] = LinkView{Link: l, Condition: l.Condition()}
	}
	return out
}

func (s *Server) listTables(c *gin.Context) {
	tables := s.reg.Tables()
	out := make([]TableSummary, len(tables))
	for i, def := range tables {
		out[i] = TableSummary{Name: def.Name, Title: def.Title, Columns: len(def.Columns), Keys: len(def.Keys)}
	}
	Success(c, http.StatusOK, out, "")
}

func (s *Server) loadOrder(c *gin.Context) {
	order, err := s.reg.LoadOrder()
	if err != nil {
		Fail(c, http.StatusConflict, err, "Tables have circular foreign keys")
		return
	}
	Success(c, http.StatusOK, order, "")
}

func (s *Server) getTable(c *gin.Context) {
	def, err := s.reg.Table(c.Param("name"))
	if err != nil {
		Fail(c, statusFor(err), err, "Table not found")
		return
	}
	Success(c, http.StatusOK, def, "")
}

func (s *Server) getColumn(c *gin.Context) {
	col, err := s.reg.Column(c.Param("name"), c.Param("column"))
	if err != nil {
		Fail(c, statusFor(err), err, "Column not found")
		return
	}
	Success(c, http.StatusOK, col, "")
}

func (s *Server) getReferences(c *gin.Context) {
	links, err := s.reg.References(c.Param("name"))
	if err != nil {
		Fail(c, statusFor(err), err, "Table not found")
		return
	}
	Success(c, http.StatusOK, views(links), "")
}

func (s *Server) getLinks(c *gin.Context) {
	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		Fail(c, http.StatusBadRequest, nil, "Both from and to are required")
		return
	}
	links, err := s.reg.Links(from, to)
	if err != nil {
		Fail(c, statusFor(err), err, "Table not found")
		return
	}
	Success(c, http.StatusOK, views(links), "")
}

func (s *Server) getPath(c *gin.Context) {
	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		Fail(c, http.StatusBadRequest, nil, "Both from and to are required")
		return
	}
	path, err := s.reg.JoinPath(from, to)
	if err != nil {
		Fail(c, statusFor(err), err, "No join path")
		return
	}
	Success(c, http.StatusOK, views(path), "")
}

func (s *Server) getColumnTables(c *gin.Context) {
	Success(c, http.StatusOK, s.reg.TablesWithColumn(c.Param("column")), "")
}

func (s *Server) validateRows(c *gin.Context) {
	var req ValidateRequest
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	table := c.Param("name")
	if req.Rows != nil {
		invalid, err := s.validator.ValidateRows(table, req.Rows)
		if err != nil {
			Fail(c, statusFor(err), err, "Table not found")
			return
		}
		Success(c, http.StatusOK, ValidateResult{Valid: len(invalid) == 0, Invalid: invalid}, "")
		return
	}

	if req.Row == nil {
		Fail(c, http.StatusBadRequest, nil, "Body needs a row or rows")
		return
	}
	vs, err := s.validator.Validate(table, req.Row)
	if err != nil {
		Fail(c, statusFor(err), err, "Table not found")
		return
	}
	Success(c, http.StatusOK, ValidateResult{Valid: len(vs) == 0, Violations: vs}, "")
}

func (s *Server) exportCatalog(c *gin.Context) {
	format, err := export.ParseFormat(c.Param("format"))
	if err != nil {
		Fail(c, http.StatusBadRequest, err, "Unknown format")
		return
	}

	opts := export.Options{Schema: c.Query("schema")}
	if tables := c.Query("tables"); tables != "" {
		opts.Tables = strings.Split(tables, ",")
	}

	out, err := export.Export(s.reg, format, opts)
	if err != nil {
		Fail(c, statusFor(err), err, "Export failed")
		return
	}
	c.Data(http.StatusOK, contentType(format), out)
}

func contentType(f export.Format) string {
	switch f {
	case export.FormatJSON:
		return "application/json; charset=utf-8"
	case export.FormatYAML:
		return "application/yaml; charset=utf-8"
	case export.FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"tables": s.reg.Len(),
	})
}
