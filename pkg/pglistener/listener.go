// Package pglistener is the change-notification pipeline: it owns one
// dedicated Postgres connection in LISTEN mode, installs the row trigger
// that serializes message changes into notification payloads, decodes the
// payloads into ChangeEvents and republishes them on the in-process event
// bus. Lost connections are recovered automatically; only the first connect
// is the caller's problem.
package pglistener

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
)

// ConnState models the connection lifecycle. Overlapping reconnects are
// unrepresentable: the only transition into StateReconnecting happens under
// the listener mutex from StateListening.
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateListening
	StateReconnecting
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateListening:
		return "listening"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

var errSuppressed = errors.New("listener explicitly disconnected")

type Listener struct {
	opts Options
	m    *metrics

	mu         sync.Mutex
	state      ConnState
	conn       Conn
	loopCancel context.CancelFunc
	// suppress is set by Disconnect before any timers are observed, so a
	// reconnect that is already scheduled aborts instead of reopening a
	// connection the caller believes closed.
	suppress bool
}

func New(opts Options) (*Listener, error) {
	if opts.Bus == nil {
		return nil, invalidConfig("event bus is required")
	}
	if opts.ConnString == "" && opts.Dial == nil {
		return nil, invalidConfig("connection string is required")
	}
	opts.setDefaults()

	return &Listener{
		opts:  opts,
		m:     getMetrics(),
		state: StateDisconnected,
	}, nil
}

// Connect dials the dedicated connection, installs the notify trigger and
// starts listening. A failure here is returned to the caller and nothing is
// retried: startup decides whether to abort or degrade. Auto-reconnect only
// guards connections that were once established.
func (l *Listener) Connect(ctx context.Context) error {
	l.mu.Lock()
	if l.state != StateDisconnected {
		l.mu.Unlock()
		return ErrAlreadyConnected
	}
	l.state = StateConnecting
	l.suppress = false
	l.mu.Unlock()

	if err := l.establish(ctx); err != nil {
		l.mu.Lock()
		l.state = StateDisconnected
		l.mu.Unlock()
		return err
	}
	return nil
}

// establish runs the full connect sequence: dial, reinstall trigger, LISTEN,
// spawn the receive loop. Shared by Connect and the reconnect path, so a
// reconnect also self-heals a manually dropped trigger.
func (l *Listener) establish(ctx context.Context) error {
	conn, err := l.opts.Dial(ctx)
	if err != nil {
		return errors.Wrap(err, "dial listener connection")
	}

	if err := InstallTrigger(ctx, conn, l.opts.Channel, l.opts.Table); err != nil {
		_ = conn.Close(ctx)
		return err
	}

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.opts.Channel}.Sanitize()); err != nil {
		_ = conn.Close(ctx)
		return errors.Wrap(err, "listen on channel")
	}

	loopCtx, cancel := context.WithCancel(context.Background())

	l.mu.Lock()
	if l.suppress {
		l.mu.Unlock()
		cancel()
		_ = conn.Close(context.Background())
		return errSuppressed
	}
	l.conn = conn
	l.loopCancel = cancel
	l.state = StateListening
	l.mu.Unlock()

	l.m.listening.Set(1)
	l.opts.Logger.WithField("channel", l.opts.Channel).Info("listening for change notifications")

	go l.receive(loopCtx, conn)
	return nil
}

// receive blocks on the dedicated connection for notification frames. A
// malformed frame is dropped; a connection error hands over to the
// reconnect path and ends this loop.
func (l *Listener) receive(ctx context.Context, conn Conn) {
	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				// Explicit disconnect canceled the loop.
				return
			}
			l.m.listening.Set(0)
			l.opts.Logger.WithError(err).Warn("listener connection lost")
			l.beginReconnect(conn)
			return
		}
		l.handlePayload(notification.Payload)
	}
}

func (l *Listener) handlePayload(payload string) {
	event, err := DecodeChangeEvent([]byte(payload))
	if err != nil {
		l.m.decodeErrors.Inc()
		l.opts.Logger.WithError(err).WithField("payload", payload).Warn("dropping malformed notification payload")
		return
	}
	l.m.events.WithLabelValues(string(event.Operation)).Inc()
	l.opts.Bus.Publish(l.opts.Topic, event)
}

// beginReconnect transitions Listening -> Reconnecting exactly once; a
// second error signal for the same outage finds the state already moved and
// returns.
func (l *Listener) beginReconnect(conn Conn) {
	l.mu.Lock()
	if l.suppress || l.state != StateListening {
		l.mu.Unlock()
		return
	}
	l.state = StateReconnecting
	l.conn = nil
	l.loopCancel = nil
	l.mu.Unlock()

	_ = conn.Close(context.Background())
	go l.reconnectLoop()
}

// reconnectLoop waits ReconnectDelay, then re-runs the full connect
// sequence. A failed attempt reschedules after RetryDelay, indefinitely:
// outages are assumed transient and recovery is mandatory for real-time
// delivery. The state leaves Reconnecting only on success or explicit
// disconnect.
func (l *Listener) reconnectLoop() {
	delay := l.opts.ReconnectDelay
	for {
		time.Sleep(delay)

		l.mu.Lock()
		if l.suppress || l.state != StateReconnecting {
			l.mu.Unlock()
			return
		}
		l.mu.Unlock()

		l.m.reconnects.Inc()
		err := l.establish(context.Background())
		if err == nil {
			l.opts.Logger.Info("listener reconnected")
			return
		}
		if errors.Is(err, errSuppressed) {
			return
		}
		l.opts.Logger.WithError(err).Warnf("reconnect attempt failed, retrying in %s", l.opts.RetryDelay)
		delay = l.opts.RetryDelay
	}
}

// Disconnect issues UNLISTEN, closes the connection and suppresses any
// scheduled reconnect. Safe to call in any state.
func (l *Listener) Disconnect(ctx context.Context) error {
	l.mu.Lock()
	l.suppress = true
	conn := l.conn
	cancel := l.loopCancel
	l.conn = nil
	l.loopCancel = nil
	l.state = StateDisconnected
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	l.m.listening.Set(0)
	if conn == nil {
		return nil
	}

	if _, err := conn.Exec(ctx, "UNLISTEN "+pgx.Identifier{l.opts.Channel}.Sanitize()); err != nil {
		l.opts.Logger.WithError(err).Debug("unlisten failed during disconnect")
	}
	if err := conn.Close(ctx); err != nil {
		return errors.Wrap(err, "close listener connection")
	}
	l.opts.Logger.Info("listener disconnected")
	return nil
}

// TestNotification sends a synthetic TEST payload through the real channel
// to verify the pipeline end to end without touching table data. It uses a
// short-lived second connection: the dedicated one is reserved for LISTEN.
func (l *Listener) TestNotification(ctx context.Context) error {
	if l.State() != StateListening {
		return ErrNotListening
	}

	payload, err := json.Marshal(&ChangeEvent{
		Operation: OpTest,
		Table:     l.opts.Table,
		Message:   "listener connectivity check",
	})
	if err != nil {
		return errors.Wrap(err, "encode test notification")
	}

	conn, err := l.opts.Dial(ctx)
	if err != nil {
		return errors.Wrap(err, "dial for test notification")
	}
	defer func() { _ = conn.Close(ctx) }()

	if _, err := conn.Exec(ctx, "SELECT pg_notify($1, $2)", l.opts.Channel, string(payload)); err != nil {
		return errors.Wrap(err, "send test notification")
	}
	return nil
}

func (l *Listener) State() ConnState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// IsListening is the health-check probe: true only while the pipeline can
// actually deliver events. It never mutates state.
func (l *Listener) IsListening() bool {
	return l.State() == StateListening
}
