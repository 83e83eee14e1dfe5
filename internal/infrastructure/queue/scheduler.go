package queue

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dispatchgrid/fulfillment-engine/internal/core/ports"
)

const defaultRefreshBatch = 1000

// Scheduler periodically sweeps non-terminal shipments and enqueues a
// prediction refresh for each, keeping stored ETAs current between
// on-demand requests.
type Scheduler struct {
	shipments  ports.ShipmentRepository
	dispatcher *Dispatcher
	interval   time.Duration
	batchSize  int
	log        zerolog.Logger
}

// NewScheduler creates a Scheduler sweeping every interval. A non-positive
// batchSize falls back to the default sweep size.
func NewScheduler(shipments ports.ShipmentRepository, dispatcher *Dispatcher, interval time.Duration, batchSize int, log zerolog.Logger) *Scheduler {
	if batchSize <= 0 {
		batchSize = defaultRefreshBatch
	}
	return &Scheduler{
		shipments:  shipments,
		dispatcher: dispatcher,
		interval:   interval,
		batchSize:  batchSize,
		log:        log,
	}
}

// Start runs the sweep loop until ctx is cancelled. A zero or negative
// interval disables the scheduler.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.log.Info().Msg("prediction refresh scheduler disabled")
		return
	}
	go s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep enqueues a refresh for every active shipment, paging through the
// collection in batches.
func (s *Scheduler) sweep(ctx context.Context) {
	offset := 0
	enqueued := 0
	for {
		shipments, err := s.shipments.ListForPrediction(ctx, ports.ListShipmentsFilter{
			Limit:  s.batchSize,
			Offset: offset,
		})
		if err != nil {
			s.log.Error().Err(err).Msg("refresh sweep query failed")
			return
		}
		if len(shipments) == 0 {
			break
		}

		awbs := make([]string, 0, len(shipments))
		for _, sh := range shipments {
			awbs = append(awbs, sh.AWB)
		}
		s.dispatcher.EnqueueBatch(awbs)
		enqueued += len(awbs)

		if len(shipments) < s.batchSize {
			break
		}
		offset += s.batchSize
	}

	s.log.Debug().Int("enqueued", enqueued).Msg("prediction refresh sweep completed")
}
