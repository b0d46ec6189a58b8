package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spk-docs/doctracker/internal/document"
	"github.com/spk-docs/doctracker/internal/rpc"
)

// RegisterProcedures exposes b through d under the remote procedure names, so
// a doctracker instance can serve as the remote backend of another one. A
// serving instance passes its controller's Backend so the procedures share
// its validation and reload.
func RegisterProcedures(d *rpc.Dispatcher, b Backend) {
	d.Register(ProcGetDocuments, func(ctx context.Context, _ []json.RawMessage) (any, error) {
		docs, err := b.List(ctx)
		return docs, toRemote(err)
	})
	d.Register(ProcSaveDocument, func(ctx context.Context, params []json.RawMessage) (any, error) {
		var doc document.Document
		if err := decodeParam(params, 0, &doc); err != nil {
			return nil, err
		}
		saved, err := b.Save(ctx, doc)
		return saved, toRemote(err)
	})
	d.Register(ProcDeleteDocument, func(ctx context.Context, params []json.RawMessage) (any, error) {
		var id string
		if err := decodeParam(params, 0, &id); err != nil {
			return nil, err
		}
		res, err := b.Delete(ctx, id)
		return res, toRemote(err)
	})
}

func decodeParam(params []json.RawMessage, i int, v any) error {
	if len(params) <= i {
		return &rpc.RemoteError{Code: 3, Type: rpc.ErrorTypeInvalidArgument, Message: fmt.Sprintf("missing parameter %d", i)}
	}
	if err := json.Unmarshal(params[i], v); err != nil {
		return &rpc.RemoteError{Code: 3, Type: rpc.ErrorTypeInvalidArgument, Message: fmt.Sprintf("parameter %d: %v", i, err)}
	}
	return nil
}

func toRemote(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return &rpc.RemoteError{Code: 5, Type: rpc.ErrorTypeNotFound, Message: err.Error()}
	case errors.Is(err, document.ErrInvalidDocument):
		return &rpc.RemoteError{Code: 3, Type: rpc.ErrorTypeInvalidArgument, Message: err.Error()}
	}
	return err
}
