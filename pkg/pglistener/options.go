package pglistener

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/chathub-dev/chathub/pkg/eventbus"
	"github.com/chathub-dev/chathub/pkg/serrors"
)

// TopicMessageChange is the event-bus topic decoded ChangeEvents are
// published under.
const TopicMessageChange eventbus.Topic = "message_change"

var (
	ErrInvalidConfig    = serrors.NewError("PGLISTENER_INVALID_CONFIG", "invalid listener configuration", "")
	ErrNotListening     = serrors.NewError("PGLISTENER_NOT_READY", "listener connection is not ready", "")
	ErrAlreadyConnected = serrors.NewError("PGLISTENER_ALREADY_CONNECTED", "listener is already connected", "")
)

func invalidConfig(msg string, args ...any) error {
	return fmt.Errorf("%w: "+msg, append([]any{ErrInvalidConfig}, args...)...)
}

// Conn is the slice of pgx.Conn the listener needs. The connection is owned
// exclusively by the listener and must never be borrowed for ordinary
// queries: notification delivery shares the same socket.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

// DialFunc opens a new dedicated connection. Swapped out in tests.
type DialFunc func(ctx context.Context) (Conn, error)

type Options struct {
	// ConnString is the Postgres DSN for the dedicated LISTEN connection.
	// Ignored when Dial is set.
	ConnString string

	// Channel is the notification channel to LISTEN on.
	Channel string
	// Table is the table the notify trigger is installed on.
	Table string

	// Bus receives decoded ChangeEvents under Topic.
	Bus   eventbus.EventBus
	Topic eventbus.Topic

	// ReconnectDelay is the wait before the first reconnect attempt after a
	// lost connection; RetryDelay is the wait between subsequent attempts.
	ReconnectDelay time.Duration
	RetryDelay     time.Duration

	Logger *logrus.Entry

	Dial DialFunc
}

func (o *Options) setDefaults() {
	if o.Channel == "" {
		o.Channel = "message_changes"
	}
	if o.Table == "" {
		o.Table = "messages"
	}
	if o.Topic == "" {
		o.Topic = TopicMessageChange
	}
	if o.ReconnectDelay == 0 {
		o.ReconnectDelay = 5 * time.Second
	}
	if o.RetryDelay == 0 {
		o.RetryDelay = 10 * time.Second
	}
	if o.Logger == nil {
		o.Logger = logrusNop()
	}
	if o.Dial == nil {
		connString := o.ConnString
		o.Dial = func(ctx context.Context) (Conn, error) {
			return pgx.Connect(ctx, connString)
		}
	}
}

func logrusNop() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}
