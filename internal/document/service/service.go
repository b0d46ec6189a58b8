package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spk-docs/doctracker/internal/document"
	"github.com/spk-docs/doctracker/internal/document/repository"
	"github.com/spk-docs/doctracker/pkg/logger"
	"github.com/spk-docs/doctracker/pkg/metrics"
)

var gatewayLog = logger.Named("gateway")

// Mode names the backend a Gateway was built for.
type Mode string

const (
	ModeRemote Mode = "remote"
	ModeLocal  Mode = "local"
)

// ParseMode accepts "remote" or "local", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeRemote, ModeLocal:
		return m, nil
	}
	return "", fmt.Errorf("unknown backend mode %q", s)
}

// Service defines the persistence operations used by the state controller.
type Service interface {
	List(ctx context.Context) ([]document.Document, error)
	Save(ctx context.Context, doc document.Document) (document.Document, error)
	Delete(ctx context.Context, id string) (repository.DeleteResult, error)
	Mode() Mode
}

// Gateway routes every call to the one backend chosen at construction.
type Gateway struct {
	mode    Mode
	backend repository.Backend
}

func NewGateway(mode Mode, backend repository.Backend) *Gateway {
	return &Gateway{mode: mode, backend: backend}
}

func (g *Gateway) Mode() Mode { return g.mode }

func (g *Gateway) List(ctx context.Context) ([]document.Document, error) {
	start := time.Now()
	docs, err := g.backend.List(ctx)
	g.observe("list", start, err)
	if err != nil {
		return nil, err
	}
	gatewayLog.Debugf("list via %s: %d documents", g.mode, len(docs))
	return docs, nil
}

func (g *Gateway) Save(ctx context.Context, doc document.Document) (document.Document, error) {
	start := time.Now()
	saved, err := g.backend.Save(ctx, doc)
	g.observe("save", start, err)
	if err != nil {
		return document.Document{}, err
	}
	gatewayLog.Debugf("save via %s: id=%s docNumber=%s", g.mode, saved.ID, saved.DocNumber)
	return saved, nil
}

func (g *Gateway) Delete(ctx context.Context, id string) (repository.DeleteResult, error) {
	start := time.Now()
	res, err := g.backend.Delete(ctx, id)
	g.observe("delete", start, err)
	if err != nil {
		return repository.DeleteResult{}, err
	}
	gatewayLog.Debugf("delete via %s: id=%s", g.mode, id)
	return res, nil
}

func (g *Gateway) observe(op string, start time.Time, err error) {
	metrics.GatewayDuration.WithLabelValues(string(g.mode), op).Observe(time.Since(start).Seconds())
	metrics.GatewayOperations.WithLabelValues(string(g.mode), op, resultLabel(err)).Inc()
	if err != nil {
		gatewayLog.Debugf("%s via %s failed: %v", op, g.mode, err)
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	default:
		return "unavailable"
	}
}
