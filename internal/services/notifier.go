package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/delivery"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/metrics"
)

const mailTimeout = 30 * time.Second

// Notifier sends mail off the request path. Wait blocks until queued sends
// finish.
type Notifier struct {
	mailer delivery.Mailer
	wg     sync.WaitGroup
}

func NewNotifier(mailer delivery.Mailer) *Notifier {
	return &Notifier{mailer: mailer}
}

func (n *Notifier) Notify(kind string, msg delivery.Message) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()

		err := n.mailer.Send(ctx, msg)
		metrics.RecordMail(kind, err)
		if err != nil {
			slog.Error("failed to send notification",
				"component", "mailer",
				"kind", kind,
				"to", msg.To,
				"error", err,
			)
		}
	}()
}

func (n *Notifier) Wait() {
	n.wg.Wait()
}
