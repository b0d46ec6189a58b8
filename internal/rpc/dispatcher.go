package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/gin-gonic/gin"
)

// Procedure handles one named remote function.
type Procedure func(ctx context.Context, params []json.RawMessage) (any, error)

// Dispatcher serves registered procedures. It is safe for concurrent use.
type Dispatcher struct {
	mu    sync.RWMutex
	procs map[string]Procedure
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{procs: make(map[string]Procedure)}
}

func (d *Dispatcher) Register(name string, p Procedure) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.procs[name] = p
}

// Functions lists the registered procedure names.
func (d *Dispatcher) Functions() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.procs))
	for name := range d.procs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Handle runs the requested procedure and always returns an envelope.
func (d *Dispatcher) Handle(ctx context.Context, req Request) Response {
	d.mu.RLock()
	p, ok := d.procs[req.Function]
	d.mu.RUnlock()
	if !ok {
		return Failure(&RemoteError{Code: 5, Type: ErrorTypeUnknownFunction, Message: fmt.Sprintf("function %q is not defined", req.Function)})
	}
	result, err := p(ctx, req.Parameters)
	if err != nil {
		return Failure(err)
	}
	resp, err := Success(result)
	if err != nil {
		return Failure(err)
	}
	return resp
}

// HandleBytes decodes a request body, dispatches it and encodes the reply.
func (d *Dispatcher) HandleBytes(ctx context.Context, body []byte) []byte {
	var req Request
	var resp Response
	if err := json.Unmarshal(body, &req); err != nil {
		resp = Failure(&RemoteError{Code: 3, Type: ErrorTypeInvalidArgument, Message: "malformed request: " + err.Error()})
	} else {
		resp = d.Handle(ctx, req)
	}
	out, err := json.Marshal(resp)
	if err != nil {
		out, _ = json.Marshal(Failure(err))
	}
	return out
}

// GinHandler accepts POSTed envelopes. Procedure failures are reported in
// the body with status 200, as the execution API does.
func (d *Dispatcher) GinHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, Failure(&RemoteError{Code: 3, Type: ErrorTypeInvalidArgument, Message: "malformed request: " + err.Error()}))
			return
		}
		c.JSON(http.StatusOK, d.Handle(c.Request.Context(), req))
	}
}
