package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spk-docs/doctracker/internal/document"
	"github.com/spk-docs/doctracker/pkg/logger"
	"github.com/spk-docs/doctracker/pkg/metrics"
)

var localLog = logger.Named("local-store")

// LocalStore implements Backend on top of a single Slot holding the whole
// collection as a JSON array. Every write replaces the slot.
type LocalStore struct {
	mu     sync.Mutex
	slot   Slot
	prefix string
	now    func() time.Time
}

// NewLocalStore returns a store writing docNumbers with prefix (DefaultPrefix
// when empty).
func NewLocalStore(slot Slot, prefix string) *LocalStore {
	if prefix == "" {
		prefix = document.DefaultPrefix
	}
	return &LocalStore{slot: slot, prefix: prefix, now: time.Now}
}

// WithClock replaces the clock used for ids and docNumbers.
func (s *LocalStore) WithClock(now func() time.Time) *LocalStore {
	s.now = now
	return s
}

func (s *LocalStore) List(ctx context.Context) ([]document.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx)
}

func (s *LocalStore) Save(ctx context.Context, doc document.Document) (document.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, err := s.read(ctx)
	if err != nil {
		return document.Document{}, err
	}

	if doc.ID != "" {
		for i := range docs {
			if docs[i].ID == doc.ID {
				doc.DocNumber = docs[i].DocNumber
				docs[i] = doc
				if err := s.write(ctx, docs); err != nil {
					return document.Document{}, err
				}
				return doc, nil
			}
		}
	}

	now := s.now()
	doc.ID = newLocalID(now)
	doc.DocNumber = document.NextDocNumber(s.prefix, docs, now)
	docs = append(docs, doc)
	if err := s.write(ctx, docs); err != nil {
		return document.Document{}, err
	}
	return doc, nil
}

func (s *LocalStore) Delete(ctx context.Context, id string) (DeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, err := s.read(ctx)
	if err != nil {
		return DeleteResult{}, err
	}
	kept := docs[:0]
	for _, d := range docs {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	if len(kept) == len(docs) {
		return DeleteResult{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := s.write(ctx, kept); err != nil {
		return DeleteResult{}, err
	}
	return DeleteResult{Success: true, ID: id}, nil
}

// read decodes the slot. A slot that is not a JSON array of records is
// cleared and read as empty. A record whose submission date cannot be parsed
// is kept with a zero date.
func (s *LocalStore) read(ctx context.Context) ([]document.Document, error) {
	raw, err := s.slot.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load local slot: %w", ErrBackendUnavailable, err)
	}
	if len(raw) == 0 {
		return []document.Document{}, nil
	}
	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return s.reset(ctx, err)
	}
	docs := make([]document.Document, 0, len(records))
	for i, rec := range records {
		var d document.Document
		if err := json.Unmarshal(rec, &d); err != nil {
			d, err = decodeWithoutDate(rec)
			if err != nil {
				return s.reset(ctx, fmt.Errorf("record %d: %w", i, err))
			}
			localLog.Warnf("record %d (%s): unreadable submission date dropped", i, d.ID)
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func (s *LocalStore) reset(ctx context.Context, cause error) ([]document.Document, error) {
	localLog.Warnf("%v: %v; clearing slot", ErrCorruptedState, cause)
	metrics.LocalStateResets.Inc()
	if err := s.slot.Clear(ctx); err != nil {
		localLog.Errorf("clear corrupted slot: %v", err)
	}
	return []document.Document{}, nil
}

// decodeWithoutDate retries a record with its submissionDate removed.
func decodeWithoutDate(rec json.RawMessage) (document.Document, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(rec, &fields); err != nil {
		return document.Document{}, err
	}
	delete(fields, "submissionDate")
	b, err := json.Marshal(fields)
	if err != nil {
		return document.Document{}, err
	}
	var d document.Document
	if err := json.Unmarshal(b, &d); err != nil {
		return document.Document{}, err
	}
	return d, nil
}

func (s *LocalStore) write(ctx context.Context, docs []document.Document) error {
	b, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("encode documents: %w", err)
	}
	if err := s.slot.Store(ctx, b); err != nil {
		return fmt.Errorf("%w: store local slot: %w", ErrBackendUnavailable, err)
	}
	return nil
}

// newLocalID is the millisecond timestamp followed by nine random characters.
// Unique enough for a single-user fallback, not cryptographically.
func newLocalID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return strconv.FormatInt(now.UnixMilli(), 10) + suffix
}
