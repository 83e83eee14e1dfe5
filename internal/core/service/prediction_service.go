package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/dispatchgrid/fulfillment-engine/internal/core/domain"
	"github.com/dispatchgrid/fulfillment-engine/internal/core/ports"
)

type predictionService struct {
	shipments   ports.ShipmentRepository
	predictions ports.PredictionRepository
	transit     ports.TransitTimeService
	risk        ports.RiskScorer
	cfg         EngineConfig
	clock       clockwork.Clock
	log         zerolog.Logger
}

// NewPredictionService returns a PredictionService combining the transit-time
// estimator and the risk scorer.
func NewPredictionService(
	shipments ports.ShipmentRepository,
	predictions ports.PredictionRepository,
	transit ports.TransitTimeService,
	risk ports.RiskScorer,
	cfg EngineConfig,
	clock clockwork.Clock,
	log zerolog.Logger,
) ports.PredictionService {
	return &predictionService{
		shipments:   shipments,
		predictions: predictions,
		transit:     transit,
		risk:        risk,
		cfg:         cfg,
		clock:       clock,
		log:         log,
	}
}

// GeneratePrediction computes a fresh ETA snapshot for one shipment. The base
// expected time is the stored delivery commitment, or now plus the route's
// mean transit time when no commitment exists.
func (s *predictionService) GeneratePrediction(ctx context.Context, shipment *domain.Shipment) (*domain.ETAPrediction, error) {
	transit, err := s.transit.CalculateTransitTime(ctx, shipment.OriginPincode, shipment.DestinationPincode)
	if err != nil {
		return nil, fmt.Errorf("generate prediction %s: %w", shipment.AWB, err)
	}

	assessment := s.risk.CalculateDelayRisk(ctx, shipment, transit)

	now := s.clock.Now().UTC()
	baseExpected := now.Add(time.Duration(transit.AvgTransitMinutes) * time.Minute)
	if shipment.ExpectedDeliveryDate != nil {
		baseExpected = shipment.ExpectedDeliveryDate.UTC()
	}

	predicted := baseExpected.Add(time.Duration(assessment.PredictedDelayMinutes) * time.Minute)

	stdDev := transit.StdDevMinutes
	if stdDev <= 0 {
		stdDev = s.cfg.DefaultStdDevMinutes
	}
	interval := time.Duration(stdDev) * time.Minute

	delayMinutes := predicted.Sub(baseExpected).Minutes()
	if delayMinutes < 0 {
		delayMinutes = 0
	}

	return &domain.ETAPrediction{
		AWB:                   shipment.AWB,
		PredictedDeliveryTime: predicted,
		DelayMinutes:          delayMinutes,
		RiskScore:             assessment.RiskScore,
		DelayRisk:             assessment.DelayRisk,
		ConfidenceLow:         predicted.Add(-interval),
		ConfidenceHigh:        predicted.Add(interval),
		ConfidencePercent:     s.cfg.ConfidencePercent,
		TransitSource:         transit.Source,
		Factors:               assessment.Factors,
		CalculatedAt:          now,
		IsActive:              true,
	}, nil
}

// RefreshPrediction generates and stores a prediction for the AWB, superseding
// the previous active snapshot.
func (s *predictionService) RefreshPrediction(ctx context.Context, awb string) (*domain.ETAPrediction, error) {
	shipment, err := s.shipments.FindByAWB(ctx, awb)
	if err != nil {
		return nil, fmt.Errorf("refresh prediction %s: %w", awb, err)
	}
	if shipment.Status.IsTerminal() {
		return nil, fmt.Errorf("refresh prediction %s: %w", awb, domain.ErrShipmentTerminal)
	}

	prediction, err := s.GeneratePrediction(ctx, shipment)
	if err != nil {
		return nil, err
	}
	if err := s.StorePrediction(ctx, prediction); err != nil {
		return nil, err
	}
	return prediction, nil
}

// batchOutcome carries one worker result back to the collector.
type batchOutcome struct {
	prediction *domain.ETAPrediction
	failed     bool
}

// GenerateBatchPredictions predicts for every selected non-terminal shipment.
// Per-shipment work fans out across a bounded worker pool — shipments carry
// no ordering dependency on each other — and a single shipment's failure is
// logged and skipped, never aborting its siblings. Results are sorted by
// descending risk score only after all predictions are in.
func (s *predictionService) GenerateBatchPredictions(ctx context.Context, input ports.BatchPredictionInput) (*ports.BatchPredictionResult, error) {
	limit := input.Limit
	if limit <= 0 || limit > s.cfg.MaxBatchLimit {
		limit = s.cfg.MaxBatchLimit
	}

	shipments, err := s.shipments.ListForPrediction(ctx, ports.ListShipmentsFilter{
		AWBs:     input.AWBs,
		Statuses: input.Statuses,
		Limit:    limit,
		Offset:   input.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("batch predictions: %w", err)
	}

	workers := s.cfg.BatchWorkers
	if workers <= 0 {
		workers = 1
	}

	jobs := make(chan *domain.Shipment)
	var (
		mu          sync.Mutex
		predictions []*domain.ETAPrediction
		failed      int
	)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for shipment := range jobs {
				outcome := s.predictOne(ctx, shipment)
				mu.Lock()
				if outcome.failed {
					failed++
				} else {
					predictions = append(predictions, outcome.prediction)
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, shipment := range shipments {
		select {
		case jobs <- shipment:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch predictions: %w", err)
	}

	predictions = filterByRisk(predictions, input.RiskLevels)
	sort.Slice(predictions, func(i, j int) bool {
		if predictions[i].RiskScore != predictions[j].RiskScore {
			return predictions[i].RiskScore > predictions[j].RiskScore
		}
		return predictions[i].AWB < predictions[j].AWB
	})

	result := &ports.BatchPredictionResult{
		Predictions: predictions,
		Summary:     summarize(predictions, failed),
	}

	s.log.Info().
		Int("shipments", len(shipments)).
		Int("predicted", len(predictions)).
		Int("failed", failed).
		Msg("batch predictions completed")

	return result, nil
}

// predictOne generates and stores a single prediction, converting any failure
// into a logged, skipped outcome.
func (s *predictionService) predictOne(ctx context.Context, shipment *domain.Shipment) batchOutcome {
	prediction, err := s.GeneratePrediction(ctx, shipment)
	if err != nil {
		s.log.Error().Err(err).Str("awb", shipment.AWB).Msg("prediction failed, shipment skipped")
		return batchOutcome{failed: true}
	}
	if err := s.StorePrediction(ctx, prediction); err != nil {
		s.log.Error().Err(err).Str("awb", shipment.AWB).Msg("prediction store failed, shipment skipped")
		return batchOutcome{failed: true}
	}
	return batchOutcome{prediction: prediction}
}

// StorePrediction persists p, flipping the shipment's previous active
// prediction to inactive in the same logical operation.
func (s *predictionService) StorePrediction(ctx context.Context, p *domain.ETAPrediction) error {
	if err := s.predictions.StoreActive(ctx, p); err != nil {
		return fmt.Errorf("store prediction %s: %w", p.AWB, err)
	}
	s.log.Debug().
		Str("awb", p.AWB).
		Float64("risk_score", p.RiskScore).
		Str("delay_risk", string(p.DelayRisk)).
		Time("predicted", p.PredictedDeliveryTime).
		Msg("prediction stored")
	return nil
}

// GetActivePrediction returns the current active snapshot for the AWB.
func (s *predictionService) GetActivePrediction(ctx context.Context, awb string) (*domain.ETAPrediction, error) {
	return s.predictions.FindActiveByAWB(ctx, awb)
}

func filterByRisk(predictions []*domain.ETAPrediction, levels []domain.DelayRiskLevel) []*domain.ETAPrediction {
	if len(levels) == 0 {
		return predictions
	}
	wanted := make(map[domain.DelayRiskLevel]bool, len(levels))
	for _, l := range levels {
		wanted[l] = true
	}
	filtered := predictions[:0]
	for _, p := range predictions {
		if wanted[p.DelayRisk] {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

func summarize(predictions []*domain.ETAPrediction, failed int) ports.BatchPredictionSummary {
	summary := ports.BatchPredictionSummary{Total: len(predictions), Failed: failed}
	totalDelay := 0.0
	for _, p := range predictions {
		totalDelay += p.DelayMinutes
		switch p.DelayRisk {
		case domain.RiskHigh:
			summary.HighRisk++
		case domain.RiskMedium:
			summary.MediumRisk++
		default:
			summary.LowRisk++
		}
	}
	if len(predictions) > 0 {
		summary.AvgDelayMinutes = totalDelay / float64(len(predictions))
	}
	return summary
}
