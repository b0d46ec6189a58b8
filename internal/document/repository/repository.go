package repository

import (
	"context"
	"errors"

	"github.com/spk-docs/doctracker/internal/document"
)

var (
	ErrNotFound           = errors.New("document not found")
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrCorruptedState is logged when the local slot cannot be decoded. The
	// local store recovers from it, so callers never receive it.
	ErrCorruptedState = errors.New("corrupted local state")
)

// DeleteResult mirrors the remote deleteDocument reply.
type DeleteResult struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// Backend is the persistence contract shared by the remote backend and the
// local store.
type Backend interface {
	// List returns every stored document in storage order.
	List(ctx context.Context) ([]document.Document, error)
	// Save updates the stored document with doc.ID when there is one, keeping
	// its id and docNumber; otherwise it stores doc as new and assigns both.
	Save(ctx context.Context, doc document.Document) (document.Document, error)
	// Delete removes the document or fails with ErrNotFound.
	Delete(ctx context.Context, id string) (DeleteResult, error)
}
