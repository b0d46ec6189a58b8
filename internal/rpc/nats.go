package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
)

// DefaultSubject is the subject prefix procedures are served under.
const DefaultSubject = "doctracker.rpc"

// NATSTransport sends each call as a request on <subject>.<function>.
type NATSTransport struct {
	nc      *nats.Conn
	subject string
}

func NewNATSTransport(nc *nats.Conn, subject string) *NATSTransport {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSTransport{nc: nc, subject: subject}
}

func (t *NATSTransport) Call(ctx context.Context, function string, params ...any) (json.RawMessage, error) {
	req, err := NewRequest(function, params...)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	msg, err := t.nc.RequestWithContext(ctx, t.subject+"."+function, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTransport, function, err)
	}
	return DecodeResponse(msg.Data)
}

// ServeNATS answers requests on <subject>.* with the dispatcher. A request
// without a function name is dispatched to the subject suffix.
func ServeNATS(nc *nats.Conn, subject string, d *Dispatcher) (*nats.Subscription, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	prefix := subject + "."
	return nc.Subscribe(prefix+"*", func(msg *nats.Msg) {
		body := msg.Data
		var req Request
		if json.Unmarshal(body, &req) == nil && req.Function == "" {
			req.Function = strings.TrimPrefix(msg.Subject, prefix)
			if b, err := json.Marshal(req); err == nil {
				body = b
			}
		}
		_ = msg.Respond(d.HandleBytes(context.Background(), body))
	})
}
