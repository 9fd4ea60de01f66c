// Package notify publishes rendered revisions to NATS so other tools can
// react to a new page without watching the file system.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/pagepress/internal/logfields"
	"git.home.luguber.info/inful/pagepress/internal/pipeline"
)

// Event is the JSON payload published for every rendered revision.
type Event struct {
	Session     string    `json:"session"`
	Revision    uint64    `json:"revision"`
	HTMLPath    string    `json:"html_path"`
	Fingerprint string    `json:"fingerprint"`
	Finished    time.Time `json:"finished"`
}

// Publisher is the subset of *nats.Conn used by Notifier.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Notifier implements pipeline.Sink.
type Notifier struct {
	pub     Publisher
	subject string
	session string
	logger  *slog.Logger
	conn    *nats.Conn
}

// New creates a Notifier on top of an existing publisher.
func New(pub Publisher, subject, session string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{pub: pub, subject: subject, session: session, logger: logger}
}

// Connect dials url and returns a Notifier owning the connection.
func Connect(url, subject, session string, logger *slog.Logger) (*Notifier, error) {
	conn, err := nats.Connect(url,
		nats.Name("pagepress"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	n := New(conn, subject, session, logger)
	n.conn = conn
	n.logger.Info("NATS notifier connected", slog.String("url", url), slog.String("subject", subject))
	return n, nil
}

// RevisionFinished publishes rendered revisions and ignores every other state.
func (n *Notifier) RevisionFinished(_ context.Context, r pipeline.Result) {
	if r.State != pipeline.StateRendered {
		return
	}
	data, err := json.Marshal(Event{
		Session:     n.session,
		Revision:    uint64(r.Revision),
		HTMLPath:    r.HTMLPath,
		Fingerprint: r.Fingerprint,
		Finished:    r.Finished,
	})
	if err != nil {
		n.logger.Warn("Failed to marshal revision event", logfields.Error(err))
		return
	}
	if err := n.pub.Publish(n.subject, data); err != nil {
		n.logger.Warn("Failed to publish revision event",
			logfields.Revision(uint64(r.Revision)),
			logfields.Error(err))
		return
	}
	n.logger.Debug("Published revision event", logfields.Revision(uint64(r.Revision)), slog.String("subject", n.subject))
}

// Close drains the owned connection, if any.
func (n *Notifier) Close() {
	if n.conn == nil {
		return
	}
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
	}
}
