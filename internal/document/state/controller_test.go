package state

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/spk-docs/doctracker/internal/document"
	"github.com/spk-docs/doctracker/internal/document/repository"
	"github.com/spk-docs/doctracker/internal/document/service"
)

var testNow = time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)

// flakyService wraps a local gateway and fails the named operations.
type flakyService struct {
	service.Service
	fail map[string]bool
}

func (f *flakyService) List(ctx context.Context) ([]document.Document, error) {
	if f.fail["list"] {
		return nil, fmt.Errorf("%w: connection refused", repository.ErrBackendUnavailable)
	}
	return f.Service.List(ctx)
}

func (f *flakyService) Save(ctx context.Context, doc document.Document) (document.Document, error) {
	if f.fail["save"] {
		return document.Document{}, fmt.Errorf("%w: connection refused", repository.ErrBackendUnavailable)
	}
	return f.Service.Save(ctx, doc)
}

func newController(t *testing.T) (*Controller, *flakyService) {
	t.Helper()
	store := repository.NewLocalStore(repository.NewMemorySlot(), "").WithClock(func() time.Time { return testNow })
	svc := &flakyService{Service: service.NewGateway(service.ModeLocal, store), fail: map[string]bool{}}
	c := NewController(svc, WithClock(func() time.Time { return testNow }), WithDefaultGroup("ศิลปะ"))
	require.NoError(t, c.Load(context.Background()))
	return c, svc
}

func doc(objective, proposer, group string, date document.Date) document.Document {
	return document.Document{
		SubmissionDate:  date,
		Proposer:        proposer,
		DepartmentGroup: group,
		Objective:       objective,
	}
}

func TestSaveAppliesDefaultsAndReloads(t *testing.T) {
	c, _ := newController(t)
	ctx := context.Background()

	saved, err := c.Save(ctx, document.Document{Proposer: "ครูสมชาย", Objective: "ขอซื้อกระดาษ"})
	require.NoError(t, err)
	require.Equal(t, "SPK-2025-001", saved.DocNumber)
	require.Equal(t, document.NewDate(2025, time.June, 10), saved.SubmissionDate)
	require.Equal(t, "ศิลปะ", saved.DepartmentGroup)
	require.Equal(t, document.StatusPending, saved.StatusDept3)
	require.Equal(t, document.DirectorInProgress, saved.DirectorStatus)

	got, ok := c.Get(saved.ID)
	require.True(t, ok)
	require.Empty(t, cmp.Diff(saved, got))
	require.NoError(t, c.LastError())
}

func TestSaveRejectsInvalidWithoutTouchingState(t *testing.T) {
	c, _ := newController(t)
	_, err := c.Save(context.Background(), document.Document{Objective: "no proposer"})
	require.ErrorIs(t, err, document.ErrInvalidDocument)
	require.NoError(t, c.LastError())
	require.Empty(t, c.Documents())
}

func TestDocumentsSortedNewestFirst(t *testing.T) {
	c, _ := newController(t)
	ctx := context.Background()
	for _, d := range []document.Date{
		document.NewDate(2025, time.January, 5),
		document.NewDate(2025, time.May, 1),
		document.NewDate(2025, time.March, 20),
	} {
		_, err := c.Save(ctx, doc("obj "+d.String(), "p", "g", d))
		require.NoError(t, err)
	}

	var dates []string
	for _, d := range c.Documents() {
		dates = append(dates, d.SubmissionDate.String())
	}
	want := []string{"2025-05-01", "2025-03-20", "2025-01-05"}
	if diff := cmp.Diff(want, dates); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestGatewayFailureKeepsState(t *testing.T) {
	c, svc := newController(t)
	ctx := context.Background()
	saved, err := c.Save(ctx, doc("kept", "p", "g", document.NewDate(2025, time.April, 1)))
	require.NoError(t, err)

	svc.fail["save"] = true
	_, err = c.Save(ctx, doc("lost", "p", "g", document.NewDate(2025, time.April, 2)))
	var oe *OpError
	require.ErrorAs(t, err, &oe)
	require.Equal(t, OpSave, oe.Op)
	require.Equal(t, "ไม่สามารถบันทึกเอกสารได้", oe.Message)
	require.ErrorIs(t, err, repository.ErrBackendUnavailable)
	require.Equal(t, oe, c.LastError())
	require.Len(t, c.Documents(), 1)

	svc.fail["save"] = false
	svc.fail["list"] = true
	require.Error(t, c.Load(ctx))
	require.Len(t, c.Documents(), 1)
	require.True(t, errors.As(c.LastError(), &oe))
	require.Equal(t, OpLoad, oe.Op)

	svc.fail["list"] = false
	require.NoError(t, c.Load(ctx))
	require.NoError(t, c.LastError())
	require.Equal(t, saved.ID, c.Documents()[0].ID)
}

func TestSaveSucceedsWhenReloadFails(t *testing.T) {
	c, svc := newController(t)
	svc.fail["list"] = true
	saved, err := c.Save(context.Background(), doc("x", "p", "g", document.NewDate(2025, time.April, 2)))
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)
	require.Error(t, c.LastError())
	require.Empty(t, c.Documents())
}

func TestDelete(t *testing.T) {
	c, _ := newController(t)
	ctx := context.Background()
	saved, err := c.Save(ctx, doc("x", "p", "g", document.NewDate(2025, time.April, 2)))
	require.NoError(t, err)

	res, err := c.Delete(ctx, saved.ID)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Empty(t, c.Documents())

	_, err = c.Delete(ctx, saved.ID)
	var oe *OpError
	require.ErrorAs(t, err, &oe)
	require.Equal(t, OpDelete, oe.Op)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestViewFiltersAndPaginates(t *testing.T) {
	c, _ := newController(t)
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		group := "Science"
		if i%2 == 0 {
			group = "Art"
		}
		month := time.March
		if i < 5 {
			month = time.May
		}
		_, err := c.Save(ctx, doc(fmt.Sprintf("Objective %02d", i), "Teacher", group, document.NewDate(2025, month, i+1)))
		require.NoError(t, err)
	}

	v, err := c.View(Query{})
	require.NoError(t, err)
	require.Equal(t, 20, v.Total)
	require.Equal(t, 2, v.TotalPages)
	require.Len(t, v.Documents, PageSize)
	require.False(t, v.Searching)

	v, err = c.View(Query{Page: 9})
	require.NoError(t, err)
	require.Equal(t, 2, v.Page)
	require.Len(t, v.Documents, 5)

	v, err = c.View(Query{Group: "Art"})
	require.NoError(t, err)
	require.Equal(t, 10, v.Total)

	v, err = c.View(Query{Group: GroupAll, Month: 5})
	require.NoError(t, err)
	require.Equal(t, 5, v.Total)

	v, err = c.View(Query{Search: "objective 1"})
	require.NoError(t, err)
	require.True(t, v.Searching)
	require.Equal(t, 10, v.Total) // 10..19

	v, err = c.View(Query{Search: "science", Month: 3})
	require.NoError(t, err)
	require.Equal(t, 8, v.Total)

	v, err = c.View(Query{Search: "nothing matches"})
	require.NoError(t, err)
	require.Equal(t, 1, v.TotalPages)
	require.Equal(t, 1, v.Page)
	require.Empty(t, v.Documents)
}

func TestViewExpression(t *testing.T) {
	c, _ := newController(t)
	ctx := context.Background()
	a := doc("a", "p", "g", document.NewDate(2024, time.December, 30))
	b := doc("b", "p", "g", document.NewDate(2025, time.January, 2))
	b.DirectorStatus = document.DirectorApproved
	for _, d := range []document.Document{a, b} {
		_, err := c.Save(ctx, d)
		require.NoError(t, err)
	}

	v, err := c.View(Query{Expr: `directorStatus == "อนุมัติ" && year == 2025`})
	require.NoError(t, err)
	require.Equal(t, 1, v.Total)
	require.Equal(t, "b", v.Documents[0].Objective)

	_, err = c.View(Query{Expr: `unknownField > 3`})
	require.ErrorIs(t, err, ErrInvalidQuery)
	_, err = c.View(Query{Expr: `year + 1`})
	require.ErrorIs(t, err, ErrInvalidQuery)
	_, err = c.View(Query{Month: 13})
	require.ErrorIs(t, err, ErrInvalidQuery)
}

func TestStats(t *testing.T) {
	c, _ := newController(t)
	ctx := context.Background()
	d1 := doc("a", "p", "g", document.NewDate(2025, time.June, 1))
	d1.StatusDept1 = document.StatusApproved
	d1.StatusDept2 = document.StatusRejected
	d1.DirectorStatus = document.DirectorApproved
	d2 := doc("b", "p", "g", document.NewDate(2025, time.June, 2))
	d2.StatusDept1 = document.StatusApproved
	d2.StatusDept4 = document.StatusNotApplicable
	d2.DirectorStatus = document.DirectorRejected
	d3 := doc("c", "p", "g", document.NewDate(2025, time.June, 3))
	for _, d := range []document.Document{d1, d2, d3} {
		_, err := c.Save(ctx, d)
		require.NoError(t, err)
	}

	s := c.Stats()
	require.Equal(t, 3, s.Total)
	require.Equal(t, 1, s.DirectorApproved)
	require.Equal(t, 1, s.DirectorRejected)
	require.Equal(t, 1, s.DirectorInProgress)
	require.Equal(t, []StatusCount{
		{Status: document.StatusApproved, Count: 2},
		{Status: document.StatusRejected, Count: 1},
		{Status: document.StatusPending, Count: 8},
		{Status: document.StatusNotApplicable, Count: 1},
	}, s.StatusCounts)
	require.Len(t, s.Departments, 4)
	require.Equal(t, 1, s.Departments[0].Department)
	require.Equal(t, 2, s.Departments[0].Counts[0].Count)
	require.Equal(t, 1, s.Departments[3].Counts[3].Count)
}

func TestCalendarDays(t *testing.T) {
	c, _ := newController(t)
	ctx := context.Background()
	for _, d := range []document.Date{
		document.NewDate(2025, time.June, 12),
		document.NewDate(2025, time.June, 3),
		document.NewDate(2025, time.June, 12),
		document.NewDate(2025, time.July, 1),
		document.NewDate(2024, time.June, 7),
	} {
		_, err := c.Save(ctx, doc("x", "p", "g", d))
		require.NoError(t, err)
	}
	require.Equal(t, []int{3, 12}, c.CalendarDays(2025, time.June))
	require.Equal(t, []int{}, c.CalendarDays(2025, time.August))
}
