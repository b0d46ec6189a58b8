package rpc

import (
	"context"
	"errors"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
)

func runNATS(t *testing.T) *nats.Conn {
	t.Helper()
	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	s := natsserver.RunServer(&opts)
	t.Cleanup(s.Shutdown)

	nc, err := nats.Connect(s.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)
	return nc
}

func TestNATSTransportRoundTrip(t *testing.T) {
	nc := runNATS(t)
	sub, err := ServeNATS(nc, "", echoDispatcher())
	require.NoError(t, err)
	defer func() { _ = sub.Unsubscribe() }()
	require.NoError(t, nc.Flush())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tr := NewNATSTransport(nc, "")

	raw, err := tr.Call(ctx, "echo", "hello")
	require.NoError(t, err)
	require.JSONEq(t, `{"echo":"hello"}`, string(raw))

	_, err = tr.Call(ctx, "missing")
	var re *RemoteError
	require.True(t, errors.As(err, &re))
	require.Equal(t, ErrorTypeNotFound, re.Type)
	require.False(t, errors.Is(err, ErrTransport))
}

func TestServeNATSTakesFunctionFromSubject(t *testing.T) {
	nc := runNATS(t)
	sub, err := ServeNATS(nc, "spk.docs", echoDispatcher())
	require.NoError(t, err)
	defer func() { _ = sub.Unsubscribe() }()
	require.NoError(t, nc.Flush())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	msg, err := nc.RequestWithContext(ctx, "spk.docs.echo", []byte(`{"parameters":["from subject"]}`))
	require.NoError(t, err)
	raw, err := DecodeResponse(msg.Data)
	require.NoError(t, err)
	require.JSONEq(t, `{"echo":"from subject"}`, string(raw))

	// an explicit function name wins over the subject
	msg, err = nc.RequestWithContext(ctx, "spk.docs.echo", []byte(`{"function":"missing"}`))
	require.NoError(t, err)
	_, err = DecodeResponse(msg.Data)
	var re *RemoteError
	require.True(t, errors.As(err, &re))
	require.Equal(t, ErrorTypeNotFound, re.Type)
}

func TestNATSTransportWithoutResponder(t *testing.T) {
	nc := runNATS(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := NewNATSTransport(nc, "nobody.home").Call(ctx, "echo", "x")
	require.ErrorIs(t, err, ErrTransport)
}
