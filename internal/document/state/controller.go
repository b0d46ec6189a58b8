// Package state holds the authoritative in-memory document collection and
// the views derived from it.
package state

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spk-docs/doctracker/internal/document"
	"github.com/spk-docs/doctracker/internal/document/repository"
	"github.com/spk-docs/doctracker/internal/document/service"
	"github.com/spk-docs/doctracker/pkg/logger"
	"github.com/spk-docs/doctracker/pkg/metrics"
)

var stateLog = logger.Named("state")

// Controller owns the document collection shown to clients. It never patches
// the collection itself: every successful mutation is followed by a full
// reload from the gateway.
type Controller struct {
	svc service.Service

	// op serializes mutations together with their reload.
	op sync.Mutex

	mu      sync.RWMutex
	docs    []document.Document
	lastErr error

	now          func() time.Time
	defaultGroup string
}

type Option func(*Controller)

// WithClock sets the clock used for form defaults.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithDefaultGroup sets the departmentGroup given to documents saved without one.
func WithDefaultGroup(group string) Option {
	return func(c *Controller) { c.defaultGroup = group }
}

func NewController(svc service.Service, opts ...Option) *Controller {
	c := &Controller{svc: svc, docs: []document.Document{}, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load replaces the collection with the gateway's. On failure the collection
// is left as it was and the error is kept as LastError.
func (c *Controller) Load(ctx context.Context) error {
	c.op.Lock()
	defer c.op.Unlock()
	return c.reload(ctx)
}

func (c *Controller) reload(ctx context.Context) error {
	docs, err := c.svc.List(ctx)
	if err != nil {
		return c.fail(OpLoad, err)
	}
	sortByDateDesc(docs)

	c.mu.Lock()
	c.docs = docs
	c.lastErr = nil
	c.mu.Unlock()

	metrics.DocumentsLoaded.Set(float64(len(docs)))
	stateLog.Debugf("loaded %d documents", len(docs))
	return nil
}

// Save fills form defaults, validates and persists doc, then reloads. A
// validation failure is returned as is and does not touch LastError. A reload
// failure after a successful save is only recorded.
func (c *Controller) Save(ctx context.Context, doc document.Document) (document.Document, error) {
	doc.ApplyDefaults(document.DateOf(c.now()), c.defaultGroup)
	if err := doc.Validate(); err != nil {
		return document.Document{}, err
	}

	c.op.Lock()
	defer c.op.Unlock()
	saved, err := c.svc.Save(ctx, doc)
	if err != nil {
		return document.Document{}, c.fail(OpSave, err)
	}
	if err := c.reload(ctx); err != nil {
		stateLog.Warnf("reload after save of %s: %v", saved.ID, err)
	}
	return saved, nil
}

// Delete removes the document and reloads.
func (c *Controller) Delete(ctx context.Context, id string) (repository.DeleteResult, error) {
	c.op.Lock()
	defer c.op.Unlock()
	res, err := c.svc.Delete(ctx, id)
	if err != nil {
		return repository.DeleteResult{}, c.fail(OpDelete, err)
	}
	if err := c.reload(ctx); err != nil {
		stateLog.Warnf("reload after delete of %s: %v", id, err)
	}
	return res, nil
}

func (c *Controller) fail(op Op, err error) error {
	oe := newOpError(op, err)
	c.mu.Lock()
	c.lastErr = oe
	c.mu.Unlock()
	stateLog.Errorf("%v", oe)
	return oe
}

// Documents returns a copy of the collection, newest submission first.
func (c *Controller) Documents() []document.Document {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]document.Document, len(c.docs))
	copy(out, c.docs)
	return out
}

func (c *Controller) Get(id string) (document.Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, d := range c.docs {
		if d.ID == id {
			return d, true
		}
	}
	return document.Document{}, false
}

// LastError is the most recent gateway failure, or nil after a successful load.
func (c *Controller) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Mode reports which backend the controller persists through.
func (c *Controller) Mode() service.Mode { return c.svc.Mode() }

// Today is the date new documents default to.
func (c *Controller) Today() document.Date { return document.DateOf(c.now()) }

func sortByDateDesc(docs []document.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[j].SubmissionDate.Before(docs[i].SubmissionDate)
	})
}

// Backend exposes the controller as a repository.Backend, so procedures
// served to other instances validate and reload like the HTTP routes. List
// reads through to the gateway.
func (c *Controller) Backend() repository.Backend { return controllerBackend{c} }

type controllerBackend struct{ c *Controller }

func (b controllerBackend) List(ctx context.Context) ([]document.Document, error) {
	return b.c.svc.List(ctx)
}

func (b controllerBackend) Save(ctx context.Context, doc document.Document) (document.Document, error) {
	return b.c.Save(ctx, doc)
}

func (b controllerBackend) Delete(ctx context.Context, id string) (repository.DeleteResult, error) {
	return b.c.Delete(ctx, id)
}
