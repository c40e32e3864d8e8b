package hostbridge

import (
	"context"
	"testing"
	"time"

	"github.com/specialistvlad/opgrid/internal/boundary"
	"github.com/specialistvlad/opgrid/internal/engineerr"
	"github.com/specialistvlad/opgrid/internal/layout"
	"github.com/specialistvlad/opgrid/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// The socket.io client starts process-wide signal and timer goroutines
	// when its packages load.
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("github.com/zishang520/engine.io-client-go/engine.setupSignalHandling.func1"),
		goleak.IgnoreTopFunction("os/signal.NotifyContext.func1"),
		goleak.IgnoreTopFunction("github.com/zishang520/engine.io/v2/utils.SetInterval.func1"),
	)
}

// memEngine keeps scalars in a map, enough to exercise the protocol.
type memEngine struct {
	values    map[string][]float64
	finalized bool
}

func newMemEngine() *memEngine { return &memEngine{values: make(map[string][]float64)} }

func (m *memEngine) Initialize(context.Context) error { return nil }

func (m *memEngine) Finalize(context.Context) error {
	m.finalized = true
	return nil
}

func (m *memEngine) Compute(_ context.Context, name string) error {
	if name != "Double" {
		return &engineerr.UnknownOperationError{Name: name, Available: []string{"Double"}}
	}
	for i, v := range m.values["x"] {
		m.values["x"][i] = 2 * v
	}
	return nil
}

func (m *memEngine) ImportData(_ context.Context, name string, buf *shared.Buffer) error {
	m.values[name] = append([]float64(nil), buf.Values...)
	return nil
}

func (m *memEngine) ExportData(_ context.Context, name string, buf *shared.Buffer) error {
	buf.Values = append([]float64(nil), m.values[name]...)
	return nil
}

func (m *memEngine) ExportDataMap(l layout.Layout) ([]int, error) {
	if l != layout.NodeField {
		return nil, engineerr.Configf("no map")
	}
	return []int{0, 1}, nil
}

type sent struct {
	event string
	resp  Response
}

func serve(t *testing.T, br *Bridge) (chan sent, chan error) {
	t.Helper()
	out := make(chan sent, 32)
	errc := make(chan error, 1)
	go func() {
		errc <- br.Serve(context.Background(), func(event string, payload any) {
			out <- sent{event: event, resp: payload.(Response)}
		})
	}()
	return out, errc
}

func next(t *testing.T, out chan sent) sent {
	t.Helper()
	select {
	case s := <-out:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a response")
		return sent{}
	}
}

func TestBridge_Session(t *testing.T) {
	// Arrange
	eng := newMemEngine()
	br := New(context.Background(), boundary.New(context.Background(), eng))
	out, errc := serve(t, br)

	// Act & Assert
	br.Deliver(EventInitialize, map[string]any{"id": "1"})
	s := next(t, out)
	assert.Equal(t, "initialize_result", s.event)
	assert.Equal(t, Response{ID: "1", Status: boundary.StatusOK}, s.resp)

	br.Deliver(EventImportData, map[string]any{"id": "2", "name": "x", "layout": "scalar", "values": []any{1.5, 2.0}})
	s = next(t, out)
	assert.Equal(t, boundary.StatusOK, s.resp.Status)

	br.Deliver(EventCompute, map[string]any{"id": "3", "name": "Double"})
	assert.Equal(t, boundary.StatusOK, next(t, out).resp.Status)

	br.Deliver(EventExportData, map[string]any{"id": "4", "name": "x", "layout": "scalar"})
	s = next(t, out)
	assert.Equal(t, "export_data_result", s.event)
	assert.Equal(t, []float64{3, 4}, s.resp.Values)

	br.Deliver(EventExportDataMap, map[string]any{"id": "5", "layout": "nodal_field"})
	assert.Equal(t, []int{0, 1}, next(t, out).resp.IDs)

	br.Deliver(EventCompute, map[string]any{"id": "6", "name": "Missing"})
	assert.Equal(t, boundary.StatusConfiguration, next(t, out).resp.Status)

	br.Deliver(EventFinalize, map[string]any{"id": "7"})
	s = next(t, out)
	assert.Equal(t, "finalize_result", s.event)

	require.NoError(t, <-errc)
	assert.True(t, eng.finalized)

	// Events after the bridge stopped are dropped without blocking.
	br.Deliver(EventCompute, map[string]any{"id": "8"})
}

func TestBridge_Disconnect(t *testing.T) {
	br := New(context.Background(), boundary.New(context.Background(), newMemEngine()))
	_, errc := serve(t, br)

	br.Deliver(eventDisconnect, nil)

	assert.ErrorIs(t, <-errc, ErrDisconnected)
}

func TestBridge_ContextCancel(t *testing.T) {
	br := New(context.Background(), boundary.New(context.Background(), newMemEngine()))
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- br.Serve(ctx, func(string, any) {}) }()

	cancel()

	assert.ErrorIs(t, <-errc, context.Canceled)
}

func TestHandle_BadLayout(t *testing.T) {
	t.Parallel()

	b := boundary.New(context.Background(), newMemEngine())

	resp, stop := Handle(b, EventImportData, Request{ID: "9", Layout: "cube"})

	assert.False(t, stop)
	assert.Equal(t, boundary.StatusConfiguration, resp.Status)
	assert.NotEmpty(t, resp.Error)

	resp, _ = Handle(b, "bogus", Request{ID: "10"})
	assert.Equal(t, boundary.StatusFailure, resp.Status)
}

func TestDecodeRequest(t *testing.T) {
	t.Parallel()

	req, err := decodeRequest(map[string]any{"id": "a", "values": []any{1, 2.5}})
	require.NoError(t, err)
	assert.Equal(t, Request{ID: "a", Values: []float64{1, 2.5}}, req)

	_, err = decodeRequest(map[string]any{"values": "nope"})
	assert.Error(t, err)

	req, err = decodeRequest(nil)
	require.NoError(t, err)
	assert.Equal(t, Request{}, req)
}

func TestResultEvent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "compute_result", ResultEvent(EventCompute))
	assert.Len(t, Events, 6)
}
