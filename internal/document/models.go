package document

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDocument is returned when a document fails validation before it
// is handed to a backend.
var ErrInvalidDocument = errors.New("invalid document")

// Status is the review outcome of a single department. The string values are
// the wire representation shared with the spreadsheet backend and must not change.
type Status string

const (
	StatusPending       Status = "ยังไม่เริ่ม"
	StatusApproved      Status = "ผ่านการตรวจสอบเอกสาร"
	StatusRejected      Status = "ไม่ผ่าน มีการแก้ไข"
	StatusNotApplicable Status = "ไม่ต้องผ่านขั้นตอนนี้"
)

// Statuses lists every department status in display order.
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusNotApplicable}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// DirectorStatus is the final disposition of a document.
type DirectorStatus string

const (
	DirectorInProgress DirectorStatus = "กำลังดำเนินการ"
	DirectorApproved   DirectorStatus = "อนุมัติ"
	DirectorRejected   DirectorStatus = "ไม่อนุมัติ"
)

var DirectorStatuses = []DirectorStatus{DirectorInProgress, DirectorApproved, DirectorRejected}

func (s DirectorStatus) Valid() bool {
	for _, v := range DirectorStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// DepartmentCount is the number of review departments a document passes through.
const DepartmentCount = 4

// Document is a proposal tracked through the four department reviews and the
// director decision. ID and DocNumber are owned by the persistence layer.
type Document struct {
	ID              string         `json:"id"`
	SubmissionDate  Date           `json:"submissionDate"`
	DocNumber       string         `json:"docNumber"`
	Proposer        string         `json:"proposer"`
	DepartmentGroup string         `json:"departmentGroup"`
	Objective       string         `json:"objective"`
	StatusDept1     Status         `json:"statusDept1"` // planning & administration
	StatusDept2     Status         `json:"statusDept2"` // procurement
	StatusDept3     Status         `json:"statusDept3"` // finance
	StatusDept4     Status         `json:"statusDept4"` // budget
	DirectorStatus  DirectorStatus `json:"directorStatus"`
	Notes           string         `json:"notes,omitempty"`
}

// IsNew reports whether the document has not been assigned an id yet.
func (d *Document) IsNew() bool { return d.ID == "" }

// DepartmentStatuses returns the four department statuses in department order.
func (d *Document) DepartmentStatuses() [DepartmentCount]Status {
	return [DepartmentCount]Status{d.StatusDept1, d.StatusDept2, d.StatusDept3, d.StatusDept4}
}

// ApplyDefaults fills the fields a fresh submission form would preset.
func (d *Document) ApplyDefaults(today Date, group string) {
	if d.SubmissionDate.IsZero() {
		d.SubmissionDate = today
	}
	if strings.TrimSpace(d.DepartmentGroup) == "" {
		d.DepartmentGroup = group
	}
	for _, s := range []*Status{&d.StatusDept1, &d.StatusDept2, &d.StatusDept3, &d.StatusDept4} {
		if *s == "" {
			*s = StatusPending
		}
	}
	if d.DirectorStatus == "" {
		d.DirectorStatus = DirectorInProgress
	}
}

// Validate checks the caller-supplied fields. It does not look at ID or DocNumber.
func (d *Document) Validate() error {
	var problems []string
	if d.SubmissionDate.IsZero() {
		problems = append(problems, "submissionDate is required")
	}
	if strings.TrimSpace(d.Proposer) == "" {
		problems = append(problems, "proposer is required")
	}
	if strings.TrimSpace(d.Objective) == "" {
		problems = append(problems, "objective is required")
	}
	for i, s := range d.DepartmentStatuses() {
		if !s.Valid() {
			problems = append(problems, fmt.Sprintf("statusDept%d: unknown status %q", i+1, s))
		}
	}
	if !d.DirectorStatus.Valid() {
		problems = append(problems, fmt.Sprintf("directorStatus: unknown status %q", d.DirectorStatus))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(problems, "; "))
	}
	return nil
}
