// Package queue fans interview invitations out to delivery workers.
package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/crediblehealth/clinic-console/internal/api/metrics"
	"github.com/crediblehealth/clinic-console/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
)

// Dispatcher routes interview invitations to a fixed set of delivery workers
// using consistent hashing on the recipient email, so invitations for the
// same applicant are delivered in order.
type Dispatcher struct {
	workers  []chan ports.InterviewInvitation
	notifier ports.InterviewNotifier
	log      zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, notifier ports.InterviewNotifier, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan ports.InterviewInvitation, numWorkers),
		notifier: notifier,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.InterviewInvitation, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands an invitation to the worker responsible for its recipient.
// The call is non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Enqueue(inv ports.InterviewInvitation) {
	d.workers[d.shardIndex(inv.RecipientEmail)] <- inv
	metrics.InvitationsDispatchedTotal.Inc()
}

// shardIndex maps a recipient email deterministically to a worker index.
func (d *Dispatcher) shardIndex(email string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(email))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.InterviewInvitation) {
	for {
		select {
		case <-ctx.Done():
			return
		case inv, ok := <-ch:
			if !ok {
				return
			}
			if err := d.notifier.Send(ctx, inv); err != nil {
				metrics.NotificationsSentTotal.WithLabelValues("error").Inc()
				d.log.Error().Err(err).
					Str("recipient", inv.RecipientEmail).
					Int("worker_id", id).
					Msg("invitation delivery failed")
				continue
			}
			metrics.NotificationsSentTotal.WithLabelValues("ok").Inc()
			d.log.Info().
				Str("recipient", inv.RecipientEmail).
				Int("worker_id", id).
				Msg("invitation delivered")
		}
	}
}
