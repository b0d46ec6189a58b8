package state

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/spk-docs/doctracker/internal/document"
)

// ErrInvalidQuery is returned by View for an out-of-range month or a filter
// expression that does not compile.
var ErrInvalidQuery = errors.New("invalid query")

// PageSize is the number of documents on one page of a View.
const PageSize = 15

// GroupAll disables the departmentGroup filter, as does an empty Group.
const GroupAll = "all"

// Query selects a page of documents. Zero values disable each filter.
type Query struct {
	Search string
	Group  string
	Month  int // 1-12
	// Expr is a boolean expr-lang expression over the fields in exprEnv,
	// e.g. `directorStatus == "อนุมัติ" && year == 2025`.
	Expr string
	Page int
}

type View struct {
	Documents  []document.Document `json:"documents"`
	Page       int                 `json:"page"`
	TotalPages int                 `json:"totalPages"`
	Total      int                 `json:"total"`
	PageSize   int                 `json:"pageSize"`
	Searching  bool                `json:"searching"`
}

// View filters the current collection and cuts out the requested page. The
// page is clamped into [1, TotalPages]; an empty result still has one page.
func (c *Controller) View(q Query) (View, error) {
	if q.Month < 0 || q.Month > 12 {
		return View{}, fmt.Errorf("%w: month %d out of range", ErrInvalidQuery, q.Month)
	}
	var program *vm.Program
	if strings.TrimSpace(q.Expr) != "" {
		p, err := CompileFilter(q.Expr)
		if err != nil {
			return View{}, err
		}
		program = p
	}

	search := strings.ToLower(strings.TrimSpace(q.Search))
	var matched []document.Document
	for _, d := range c.Documents() {
		if search != "" && !matchesSearch(d, search) {
			continue
		}
		if q.Group != "" && q.Group != GroupAll && d.DepartmentGroup != q.Group {
			continue
		}
		if q.Month != 0 && (d.SubmissionDate.IsZero() || int(d.SubmissionDate.Month()) != q.Month) {
			continue
		}
		if program != nil {
			ok, err := runFilter(program, d)
			if err != nil {
				return View{}, err
			}
			if !ok {
				continue
			}
		}
		matched = append(matched, d)
	}

	totalPages := (len(matched) + PageSize - 1) / PageSize
	if totalPages == 0 {
		totalPages = 1
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * PageSize
	end := start + PageSize
	if end > len(matched) {
		end = len(matched)
	}
	out := append([]document.Document{}, matched[start:end]...)

	return View{
		Documents:  out,
		Page:       page,
		TotalPages: totalPages,
		Total:      len(matched),
		PageSize:   PageSize,
		Searching:  search != "",
	}, nil
}

func matchesSearch(d document.Document, lower string) bool {
	return strings.Contains(strings.ToLower(d.Objective), lower) ||
		strings.Contains(strings.ToLower(d.Proposer), lower) ||
		strings.Contains(strings.ToLower(d.DepartmentGroup), lower)
}

// CompileFilter compiles a boolean filter expression against the document
// environment, so unknown fields fail at compile time.
func CompileFilter(expression string) (*vm.Program, error) {
	program, err := expr.Compile(expression, expr.Env(exprEnv(document.Document{})), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("%w: filter expression: %v", ErrInvalidQuery, err)
	}
	return program, nil
}

func runFilter(program *vm.Program, d document.Document) (bool, error) {
	out, err := expr.Run(program, exprEnv(d))
	if err != nil {
		return false, fmt.Errorf("evaluate filter: %w", err)
	}
	ok, _ := out.(bool)
	return ok, nil
}

func exprEnv(d document.Document) map[string]any {
	var year, month, day int
	if !d.SubmissionDate.IsZero() {
		year, month, day = d.SubmissionDate.Year(), int(d.SubmissionDate.Month()), d.SubmissionDate.Day()
	}
	return map[string]any{
		"id":              d.ID,
		"docNumber":       d.DocNumber,
		"submissionDate":  d.SubmissionDate.String(),
		"year":            year,
		"month":           month,
		"day":             day,
		"proposer":        d.Proposer,
		"departmentGroup": d.DepartmentGroup,
		"objective":       d.Objective,
		"statusDept1":     string(d.StatusDept1),
		"statusDept2":     string(d.StatusDept2),
		"statusDept3":     string(d.StatusDept3),
		"statusDept4":     string(d.StatusDept4),
		"directorStatus":  string(d.DirectorStatus),
		"notes":           d.Notes,
	}
}

// CalendarDays returns the sorted distinct days of the month that have at
// least one submission.
func (c *Controller) CalendarDays(year int, month time.Month) []int {
	seen := make(map[int]bool)
	var days []int
	for _, d := range c.Documents() {
		if d.SubmissionDate.IsZero() || d.SubmissionDate.Year() != year || d.SubmissionDate.Month() != month {
			continue
		}
		if day := d.SubmissionDate.Day(); !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}
	sort.Ints(days)
	if days == nil {
		days = []int{}
	}
	return days
}
