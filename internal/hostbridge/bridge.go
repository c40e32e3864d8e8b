package hostbridge

import (
	"context"
	"errors"
	"log/slog"

	"github.com/specialistvlad/opgrid/internal/boundary"
	"github.com/specialistvlad/opgrid/internal/ctxlog"
)

// ErrDisconnected is returned by Serve when the controller goes away
// before finalizing.
var ErrDisconnected = errors.New("host controller disconnected")

const eventDisconnect = "disconnect"

type call struct {
	event   string
	payload any
}

// Bridge queues incoming events and serves them sequentially.
type Bridge struct {
	boundary *boundary.Boundary
	calls    chan call
	done     chan struct{}
	logger   *slog.Logger
}

// New creates a bridge serving b.
func New(ctx context.Context, b *boundary.Boundary) *Bridge {
	return &Bridge{
		boundary: b,
		calls:    make(chan call, 16),
		done:     make(chan struct{}),
		logger:   ctxlog.FromContext(ctx).With("component", "hostbridge"),
	}
}

// Deliver queues an event. It is safe to call from any goroutine and
// returns immediately once Serve has stopped.
func (br *Bridge) Deliver(event string, payload any) {
	select {
	case br.calls <- call{event: event, payload: payload}:
	case <-br.done:
		br.logger.Debug("Dropping event after bridge stopped.", "event", event)
	}
}

// Serve answers queued events through send until a finalize request has
// been answered, the controller disconnects, or ctx is done.
func (br *Bridge) Serve(ctx context.Context, send func(event string, payload any)) error {
	defer close(br.done)
	br.logger.Info("Bridge serving.")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c := <-br.calls:
			if c.event == eventDisconnect {
				return ErrDisconnected
			}
			stop := br.serveOne(c, send)
			if stop {
				br.logger.Info("Bridge finalized.")
				return nil
			}
		}
	}
}

func (br *Bridge) serveOne(c call, send func(string, any)) bool {
	logger := br.logger.With("event", c.event)

	req, err := decodeRequest(c.payload)
	if err != nil {
		logger.Warn("Malformed request.", "error", err)
		send(ResultEvent(c.event), failed(Response{}, boundary.StatusFailure, err))
		return false
	}

	resp, stop := Handle(br.boundary, c.event, req)
	logger.Debug("Request served.", "id", req.ID, "status", resp.Status)
	send(ResultEvent(c.event), resp)
	return stop
}
