package state

import "github.com/spk-docs/doctracker/internal/document"

// chartOrder is the order status counts are reported in.
var chartOrder = []document.Status{
	document.StatusApproved,
	document.StatusRejected,
	document.StatusPending,
	document.StatusNotApplicable,
}

type StatusCount struct {
	Status document.Status `json:"status"`
	Count  int             `json:"count"`
}

type DepartmentStats struct {
	Department int           `json:"department"` // 1-4
	Counts     []StatusCount `json:"counts"`
}

// Stats summarizes the collection for the dashboard.
type Stats struct {
	Total              int               `json:"total"`
	DirectorApproved   int               `json:"directorApproved"`
	DirectorRejected   int               `json:"directorRejected"`
	DirectorInProgress int               `json:"directorInProgress"`
	StatusCounts       []StatusCount     `json:"statusCounts"`
	Departments        []DepartmentStats `json:"departments"`
}

func (c *Controller) Stats() Stats {
	docs := c.Documents()
	s := Stats{Total: len(docs)}

	all := make(map[document.Status]int)
	perDept := make([]map[document.Status]int, document.DepartmentCount)
	for i := range perDept {
		perDept[i] = make(map[document.Status]int)
	}
	for _, d := range docs {
		switch d.DirectorStatus {
		case document.DirectorApproved:
			s.DirectorApproved++
		case document.DirectorRejected:
			s.DirectorRejected++
		case document.DirectorInProgress:
			s.DirectorInProgress++
		}
		for i, st := range d.DepartmentStatuses() {
			all[st]++
			perDept[i][st]++
		}
	}

	s.StatusCounts = ordered(all)
	for i, m := range perDept {
		s.Departments = append(s.Departments, DepartmentStats{Department: i + 1, Counts: ordered(m)})
	}
	return s
}

func ordered(m map[document.Status]int) []StatusCount {
	out := make([]StatusCount, 0, len(chartOrder))
	for _, st := range chartOrder {
		out = append(out, StatusCount{Status: st, Count: m[st]})
	}
	return out
}
