package job

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type OutcomeRefresher interface {
	RefreshOutcomes(ctx context.Context) error
}

// OutcomePoller periodically refreshes stored daily moves during the day so
// the evaluation run is not left empty-handed if the data source is down at
// run time.
type OutcomePoller struct {
	tracer       trace.Tracer
	service      OutcomeRefresher
	pollInterval time.Duration
}

func NewOutcomePoller(tracer trace.Tracer, service OutcomeRefresher, pollIntervalSecs int) *OutcomePoller {
	if pollIntervalSecs <= 0 {
		pollIntervalSecs = 900
	}
	return &OutcomePoller{
		tracer:       tracer,
		service:      service,
		pollInterval: time.Duration(pollIntervalSecs) * time.Second,
	}
}

// Start blocks until ctx is cancelled.
func (p *OutcomePoller) Start(ctx context.Context) {
	log.Println("Outcome poller starting...")

	// Run immediately on start
	if err := p.service.RefreshOutcomes(ctx); err != nil {
		log.Printf("outcome poller initial run error: %v", err)
	}

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Outcome poller stopped")
			return
		case <-ticker.C:
			if err := p.service.RefreshOutcomes(ctx); err != nil {
				log.Printf("outcome poller error: %v", err)
			}
		}
	}
}
