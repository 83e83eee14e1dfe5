package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/dispatchgrid/fulfillment-engine/internal/api/metrics"
	"github.com/dispatchgrid/fulfillment-engine/internal/core/domain"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// PredictionRefresher is the slice of the prediction service the dispatcher
// drives.
type PredictionRefresher interface {
	RefreshPrediction(ctx context.Context, awb string) (*domain.ETAPrediction, error)
}

// Dispatcher routes prediction-refresh jobs to a fixed set of workers using
// consistent hashing on the AWB. Sharding keeps supersession writes for one
// shipment ordered: two refreshes of the same AWB never race each other.
type Dispatcher struct {
	workers []chan string
	service PredictionRefresher
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service PredictionRefresher, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan string, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan string, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue schedules a refresh for the worker responsible for the AWB.
// Non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Enqueue(awb string) {
	idx := d.shardIndex(awb)
	d.workers[idx] <- awb
	metrics.RefreshQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

// EnqueueBatch schedules refreshes for multiple shipments, preserving
// per-shipment ordering.
func (d *Dispatcher) EnqueueBatch(awbs []string) {
	for _, awb := range awbs {
		d.Enqueue(awb)
	}
}

// shardIndex maps an AWB deterministically to a worker index.
func (d *Dispatcher) shardIndex(awb string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(awb))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan string) {
	gauge := metrics.RefreshQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case awb, ok := <-ch:
			if !ok {
				return
			}
			gauge.Set(float64(len(ch)))
			if _, err := d.service.RefreshPrediction(ctx, awb); err != nil {
				// Terminal shipments slip into the queue when they complete
				// between scheduling and processing; not a failure.
				if errors.Is(err, domain.ErrShipmentTerminal) {
					continue
				}
				metrics.PredictionFailuresTotal.WithLabelValues("refresh").Inc()
				d.log.Error().Err(err).
					Str("awb", awb).
					Int("worker_id", id).
					Msg("prediction refresh failed")
			}
		}
	}
}
