package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spk-docs/doctracker/internal/document"
	"github.com/spk-docs/doctracker/internal/rpc"
)

// Remote procedure names exposed by the spreadsheet backend.
const (
	ProcGetDocuments   = "getDocuments"
	ProcSaveDocument   = "saveDocument"
	ProcDeleteDocument = "deleteDocument"
)

// RemoteBackend calls the spreadsheet service through an rpc.Transport. The
// service assigns ids and docNumbers itself.
type RemoteBackend struct {
	transport rpc.Transport
}

func NewRemoteBackend(t rpc.Transport) *RemoteBackend {
	return &RemoteBackend{transport: t}
}

func (r *RemoteBackend) List(ctx context.Context) ([]document.Document, error) {
	var docs []document.Document
	if err := r.call(ctx, &docs, ProcGetDocuments); err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []document.Document{}
	}
	return docs, nil
}

func (r *RemoteBackend) Save(ctx context.Context, doc document.Document) (document.Document, error) {
	var out document.Document
	if err := r.call(ctx, &out, ProcSaveDocument, doc); err != nil {
		return document.Document{}, err
	}
	return out, nil
}

func (r *RemoteBackend) Delete(ctx context.Context, id string) (DeleteResult, error) {
	var out DeleteResult
	if err := r.call(ctx, &out, ProcDeleteDocument, id); err != nil {
		return DeleteResult{}, err
	}
	return out, nil
}

func (r *RemoteBackend) call(ctx context.Context, out any, function string, params ...any) error {
	raw, err := r.transport.Call(ctx, function, params...)
	if err != nil {
		return classifyRemote(function, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s result: %w", ErrBackendUnavailable, function, err)
	}
	return nil
}

func classifyRemote(function string, err error) error {
	var re *rpc.RemoteError
	if errors.As(err, &re) {
		switch re.Type {
		case rpc.ErrorTypeNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, re.Message)
		case rpc.ErrorTypeInvalidArgument:
			return fmt.Errorf("%w: %s", document.ErrInvalidDocument, re.Message)
		}
	}
	return fmt.Errorf("%w: %s: %w", ErrBackendUnavailable, function, err)
}
