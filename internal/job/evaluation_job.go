package job

import (
	"context"
	"log"
	"time"

	"mover-brief/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type DailyRunner interface {
	RunDaily(ctx context.Context, now time.Time) (domain.DailyRunResult, error)
}

// EvaluationJob triggers the daily evaluation cycle once per day at a fixed
// UTC hour, after US markets close.
type EvaluationJob struct {
	tracer  trace.Tracer
	service DailyRunner
	runHour int
}

func NewEvaluationJob(tracer trace.Tracer, service DailyRunner, runHourUTC int) *EvaluationJob {
	if runHourUTC < 0 || runHourUTC > 23 {
		runHourUTC = 21
	}
	return &EvaluationJob{tracer: tracer, service: service, runHour: runHourUTC}
}

func (j *EvaluationJob) Start(ctx context.Context) {
	if j.service == nil {
		log.Println("Evaluation job disabled: no service")
		<-ctx.Done()
		return
	}
	for {
		next := nextRunUTC(time.Now().UTC(), j.runHour)
		wait := time.Until(next)
		if wait < time.Second {
			wait = time.Second
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			j.runOnce(ctx)
		}
	}
}

func (j *EvaluationJob) runOnce(ctx context.Context) {
	_, span := j.tracer.Start(ctx, "evaluation-job.run-once")
	defer span.End()

	result, err := j.service.RunDaily(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("Daily evaluation error: %v", err)
		return
	}
	log.Printf("Daily evaluation done: outcomes=%d evaluated=%d correct=%d brief=%v errors=%d",
		result.OutcomesCollected, result.Report.PredictionsEvaluated,
		result.Report.CorrectPredictions, result.BriefGenerated, len(result.Errors))
}

func nextRunUTC(now time.Time, hour int) time.Time {
	run := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !run.After(now) {
		run = run.Add(24 * time.Hour)
	}
	return run
}
