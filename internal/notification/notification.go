package notification

import (
	"context"
	"log/slog"
	"sync"

	"github.com/neuro21/neuro21/internal/session"
)

// Event kinds derived from session state changes.
const (
	KindSignedIn           = "signed_in"
	KindSignedOut          = "signed_out"
	KindWalletConnected    = "wallet_connected"
	KindWalletDisconnected = "wallet_disconnected"
	KindSessionError       = "session_error"
)

// Message describes a session event.
type Message struct {
	Kind      string
	SessionID string
	UserID    string
	Body      string
}

// Notifier delivers session events to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes events to the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("session event",
		slog.String("kind", message.Kind),
		slog.String("session_id", message.SessionID),
		slog.String("user_id", message.UserID),
		slog.String("body", message.Body),
	)
	return nil
}

// Events compares two settled snapshots and lists what happened between them.
func Events(sid string, prev, next session.State) []Message {
	var out []Message
	msg := func(kind string, user *session.User, body string) {
		m := Message{Kind: kind, SessionID: sid, Body: body}
		if user != nil {
			m.UserID = user.ID
		}
		out = append(out, m)
	}

	if next.Error != "" && next.Error != prev.Error {
		msg(KindSessionError, next.User, next.Error)
	}

	prevUser, nextUser := prev.User, next.User
	switch {
	case nextUser != nil && (prevUser == nil || prevUser.ID != nextUser.ID):
		msg(KindSignedIn, nextUser, nextUser.Email)
	case nextUser == nil && prevUser != nil:
		msg(KindSignedOut, prevUser, "")
	}

	wasConnected := prevUser != nil && prevUser.WalletConnected
	isConnected := nextUser != nil && nextUser.WalletConnected
	switch {
	case isConnected && (!wasConnected || prevUser.WalletAddress != nextUser.WalletAddress):
		msg(KindWalletConnected, nextUser, nextUser.WalletAddress)
	case wasConnected && !isConnected && nextUser != nil:
		msg(KindWalletDisconnected, nextUser, prevUser.WalletAddress)
	}
	return out
}

// Watch sends the events of store to n until the returned function is called.
// Loading snapshots are skipped so events compare settled states. A store
// still loading when watched only reports changes after it first settles, so
// rehydrating a record is not mistaken for a sign in.
func Watch(sid string, store *session.Store, n Notifier) func() {
	var (
		mu     sync.Mutex
		prev   = store.Snapshot()
		primed = !prev.IsLoading
	)
	return store.Subscribe(func(st session.State) {
		if st.IsLoading {
			return
		}
		mu.Lock()
		var events []Message
		if primed {
			events = Events(sid, prev, st)
		}
		prev, primed = st, true
		mu.Unlock()
		for _, e := range events {
			_ = n.Send(context.Background(), e)
		}
	})
}
