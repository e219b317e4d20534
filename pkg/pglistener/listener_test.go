package pglistener

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chathub-dev/chathub/pkg/eventbus"
)

type waitResult struct {
	notification *pgconn.Notification
	err          error
}

// fakeConn scripts the dedicated connection: Exec calls are recorded and
// WaitForNotification replays whatever the test pushes into frames.
type fakeConn struct {
	mu     sync.Mutex
	execs  []string
	closed bool

	// execErr fails any Exec whose SQL contains the key.
	execErr map[string]error

	frames chan waitResult
}

func newFakeConn() *fakeConn {
	return &fakeConn{frames: make(chan waitResult, 16)}
}

func (c *fakeConn) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	c.mu.Lock()
	c.execs = append(c.execs, sql)
	c.mu.Unlock()
	for substr, err := range c.execErr {
		if strings.Contains(sql, substr) {
			return pgconn.CommandTag{}, err
		}
	}
	return pgconn.CommandTag{}, nil
}

func (c *fakeConn) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-c.frames:
		return r.notification, r.err
	}
}

func (c *fakeConn) Close(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) execLog() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.execs...)
}

func (c *fakeConn) pushPayload(payload string) {
	c.frames <- waitResult{notification: &pgconn.Notification{Channel: "message_changes", Payload: payload}}
}

func (c *fakeConn) pushError(err error) {
	c.frames <- waitResult{err: err}
}

// fakeDialer hands out a scripted sequence of connections and errors.
type fakeDialer struct {
	mu    sync.Mutex
	queue []func() (Conn, error)
	dials int
}

func (d *fakeDialer) expectConn(conn *fakeConn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = append(d.queue, func() (Conn, error) { return conn, nil })
}

func (d *fakeDialer) expectError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = append(d.queue, func() (Conn, error) { return nil, err })
}

func (d *fakeDialer) dial(context.Context) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if len(d.queue) == 0 {
		return nil, io.EOF
	}
	next := d.queue[0]
	d.queue = d.queue[1:]
	return next()
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newTestListener(t *testing.T, dialer *fakeDialer) (*Listener, eventbus.EventBus) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	bus := eventbus.NewEventPublisher(log)
	listener, err := New(Options{
		Bus:            bus,
		Dial:           dialer.dial,
		Logger:         quietLogger(),
		ReconnectDelay: 5 * time.Millisecond,
		RetryDelay:     10 * time.Millisecond,
	})
	require.NoError(t, err)
	return listener, bus
}

func TestNew_RequiresBusAndConnection(t *testing.T) {
	_, err := New(Options{ConnString: "postgres://localhost"})
	require.ErrorIs(t, err, ErrInvalidConfig)

	log := logrus.New()
	log.SetOutput(io.Discard)
	_, err = New(Options{Bus: eventbus.NewEventPublisher(log)})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConnect_InstallsTriggerAndListens(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{}
	dialer.expectConn(conn)

	listener, _ := newTestListener(t, dialer)
	require.NoError(t, listener.Connect(context.Background()))
	t.Cleanup(func() { _ = listener.Disconnect(context.Background()) })

	assert.Equal(t, StateListening, listener.State())
	assert.True(t, listener.IsListening())

	execs := conn.execLog()
	require.Len(t, execs, 3)
	assert.Contains(t, execs[0], "CREATE OR REPLACE FUNCTION")
	assert.Contains(t, execs[1], "DROP TRIGGER IF EXISTS")
	assert.Contains(t, execs[1], "AFTER INSERT OR UPDATE OR DELETE")
	assert.Contains(t, execs[2], `LISTEN "message_changes"`)
}

func TestConnect_DialFailureIsNotRetried(t *testing.T) {
	dialer := &fakeDialer{}
	dialer.expectError(io.ErrUnexpectedEOF)

	listener, _ := newTestListener(t, dialer)
	err := listener.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateDisconnected, listener.State())

	// First-connect failures belong to the caller; no background retry.
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, dialer.dialCount())
}

func TestConnect_InstallFailureIsFatal(t *testing.T) {
	conn := newFakeConn()
	conn.execErr = map[string]error{"CREATE OR REPLACE FUNCTION": io.ErrClosedPipe}
	dialer := &fakeDialer{}
	dialer.expectConn(conn)

	listener, _ := newTestListener(t, dialer)
	err := listener.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateDisconnected, listener.State())
	assert.True(t, conn.isClosed())
}

func TestConnect_Twice(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{}
	dialer.expectConn(conn)

	listener, _ := newTestListener(t, dialer)
	require.NoError(t, listener.Connect(context.Background()))
	t.Cleanup(func() { _ = listener.Disconnect(context.Background()) })

	require.ErrorIs(t, listener.Connect(context.Background()), ErrAlreadyConnected)
}

func TestListener_PublishesDecodedEvents(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{}
	dialer.expectConn(conn)

	listener, bus := newTestListener(t, dialer)

	events := make(chan *ChangeEvent, 4)
	bus.Subscribe(TopicMessageChange, func(event any) {
		events <- event.(*ChangeEvent)
	})

	require.NoError(t, listener.Connect(context.Background()))
	t.Cleanup(func() { _ = listener.Disconnect(context.Background()) })

	conn.pushPayload(`{"operation":"INSERT","table":"messages","id":7,"content":"hi","is_deleted":false}`)

	select {
	case event := <-events:
		assert.Equal(t, OpInsert, event.Operation)
		assert.Equal(t, int64(7), event.ID)
		assert.Equal(t, "hi", event.Content)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change event")
	}
}

func TestListener_MalformedPayloadIsDroppedNotFatal(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{}
	dialer.expectConn(conn)

	listener, bus := newTestListener(t, dialer)

	events := make(chan *ChangeEvent, 4)
	bus.Subscribe(TopicMessageChange, func(event any) {
		events <- event.(*ChangeEvent)
	})

	require.NoError(t, listener.Connect(context.Background()))
	t.Cleanup(func() { _ = listener.Disconnect(context.Background()) })

	conn.pushPayload(`this is not json`)
	conn.pushPayload(`{"operation":"NO_SUCH_OP","table":"messages"}`)
	conn.pushPayload(`{"operation":"DELETE","table":"messages","id":3}`)

	select {
	case event := <-events:
		assert.Equal(t, OpDelete, event.Operation)
		assert.Equal(t, int64(3), event.ID)
	case <-time.After(time.Second):
		t.Fatal("valid event after malformed frames was not delivered")
	}
	assert.Empty(t, events, "malformed frames must not produce events")
	assert.True(t, listener.IsListening())
}

func TestListener_ReconnectsAfterConnectionLoss(t *testing.T) {
	first := newFakeConn()
	second := newFakeConn()
	dialer := &fakeDialer{}
	dialer.expectConn(first)
	dialer.expectError(io.ErrUnexpectedEOF) // first reconnect attempt fails
	dialer.expectConn(second)

	listener, bus := newTestListener(t, dialer)

	events := make(chan *ChangeEvent, 4)
	bus.Subscribe(TopicMessageChange, func(event any) {
		events <- event.(*ChangeEvent)
	})

	require.NoError(t, listener.Connect(context.Background()))
	t.Cleanup(func() { _ = listener.Disconnect(context.Background()) })

	first.pushError(io.ErrUnexpectedEOF)

	require.Eventually(t, listener.IsListening, time.Second, 2*time.Millisecond,
		"listener should reach Listening again without manual intervention")
	assert.True(t, first.isClosed())
	assert.Equal(t, 3, dialer.dialCount())

	// The replacement connection went through the full connect sequence.
	execs := second.execLog()
	require.Len(t, execs, 3)
	assert.Contains(t, execs[0], "CREATE OR REPLACE FUNCTION")

	// Subscribers were not re-registered: one frame, one delivery.
	second.pushPayload(`{"operation":"INSERT","table":"messages","id":1,"content":"back"}`)
	select {
	case <-events:
	case <-time.After(time.Second):
		t.Fatal("event after reconnect was not delivered")
	}
	assert.Empty(t, events)
}

func TestDisconnect_StopsListeningAndUnlistens(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{}
	dialer.expectConn(conn)

	listener, _ := newTestListener(t, dialer)
	require.NoError(t, listener.Connect(context.Background()))
	require.NoError(t, listener.Disconnect(context.Background()))

	assert.Equal(t, StateDisconnected, listener.State())
	assert.False(t, listener.IsListening())
	assert.True(t, conn.isClosed())

	execs := conn.execLog()
	assert.Contains(t, execs[len(execs)-1], `UNLISTEN "message_changes"`)

	// No reconnect after an explicit disconnect.
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, dialer.dialCount())
}

func TestDisconnect_SuppressesPendingReconnect(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{}
	dialer.expectConn(conn)

	log := logrus.New()
	log.SetOutput(io.Discard)
	listener, err := New(Options{
		Bus:            eventbus.NewEventPublisher(log),
		Dial:           dialer.dial,
		Logger:         quietLogger(),
		ReconnectDelay: 100 * time.Millisecond,
		RetryDelay:     100 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, listener.Connect(context.Background()))

	conn.pushError(io.ErrUnexpectedEOF)
	require.Eventually(t, func() bool {
		return listener.State() == StateReconnecting
	}, time.Second, time.Millisecond)

	// Disconnect lands inside the backoff window; the scheduled reconnect
	// must observe the suppression and never dial.
	require.NoError(t, listener.Disconnect(context.Background()))

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, StateDisconnected, listener.State())
	assert.Equal(t, 1, dialer.dialCount())
}

func TestTestNotification_RequiresListening(t *testing.T) {
	dialer := &fakeDialer{}
	listener, _ := newTestListener(t, dialer)

	err := listener.TestNotification(context.Background())
	require.ErrorIs(t, err, ErrNotListening)
	assert.Equal(t, 0, dialer.dialCount(), "probe must not dial while not ready")
}

func TestTestNotification_UsesSeparateConnection(t *testing.T) {
	listenConn := newFakeConn()
	probeConn := newFakeConn()
	dialer := &fakeDialer{}
	dialer.expectConn(listenConn)
	dialer.expectConn(probeConn)

	listener, _ := newTestListener(t, dialer)
	require.NoError(t, listener.Connect(context.Background()))
	t.Cleanup(func() { _ = listener.Disconnect(context.Background()) })

	require.NoError(t, listener.TestNotification(context.Background()))

	execs := probeConn.execLog()
	require.Len(t, execs, 1)
	assert.Contains(t, execs[0], "pg_notify")
	assert.True(t, probeConn.isClosed(), "probe connection is short-lived")

	// The dedicated LISTEN connection saw no extra traffic.
	assert.Len(t, listenConn.execLog(), 3)
}

func TestConnState_String(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "listening", StateListening.String())
	assert.Equal(t, "reconnecting", StateReconnecting.String())
}
