package refresh

import (
	"context"
	"fmt"

	"github.com/fluxo-dev/fluxo/internal/log"
)

// Publisher sends change messages to other processes.
type Publisher interface {
	Publish(ctx context.Context, msg ChangeMessage) error
}

// Consumer delivers change messages from other processes until ctx ends.
type Consumer interface {
	Consume(ctx context.Context, handler func(ChangeMessage) error) error
}

// Notifier records writes: the local tracker is invalidated right away and
// the change is published when a Publisher is configured.
type Notifier struct {
	tracker   *Tracker
	publisher Publisher
	logger    *log.Logger
}

// NewNotifier creates a Notifier. publisher may be nil.
func NewNotifier(tracker *Tracker, publisher Publisher, logger *log.Logger) *Notifier {
	if logger == nil {
		logger = log.Discard()
	}
	return &Notifier{tracker: tracker, publisher: publisher, logger: logger.WithComponent(log.ComponentRefresh)}
}

// Changed invalidates the company's data and announces the write. A failed
// publish is logged, not returned: the write itself already succeeded.
func (n *Notifier) Changed(ctx context.Context, companyID, table, op string) {
	if n == nil {
		return
	}
	version := n.tracker.Invalidate(companyID)
	if n.publisher == nil {
		return
	}
	if err := n.publisher.Publish(ctx, NewChangeMessage(companyID, table, op)); err != nil {
		n.logger.WarnContext(ctx, "publishing change failed",
			log.FieldCompany, companyID,
			log.FieldTable, table,
			log.FieldVersion, version,
			log.FieldError, err,
		)
	}
}

// Listen invalidates the tracker for every change message received until
// ctx is cancelled.
func Listen(ctx context.Context, c Consumer, tracker *Tracker, logger *log.Logger) error {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentRefresh)
	err := c.Consume(ctx, func(m ChangeMessage) error {
		version := tracker.Invalidate(m.CompanyID)
		logger.InfoContext(ctx, "data changed",
			log.FieldCompany, m.CompanyID,
			log.FieldTable, m.Table,
			log.FieldOperation, m.Op,
			log.FieldVersion, version,
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("listening for changes: %w", err)
	}
	return nil
}
