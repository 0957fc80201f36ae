package handler

import (
	"mover-brief/internal/domain"
	"mover-brief/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// HistoryReader exposes the bounded evaluation window and the all-time
// running averages.
type HistoryReader interface {
	Window() []domain.EvaluationResult
	RunningAverages() map[string]domain.RunningAverage
	SampleSize() int
}

type Handler struct {
	tracer  trace.Tracer
	daily   *service.DailyService
	history HistoryReader
	apiKey  string
}

func New(tracer trace.Tracer, daily *service.DailyService, history HistoryReader, apiKey string) *Handler {
	return &Handler{
		tracer:  tracer,
		daily:   daily,
		history: history,
		apiKey:  apiKey,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/evaluation/latest", h.GetLatestEvaluation)
	r.GET("/api/evaluation/history", h.GetEvaluationHistory)
	r.GET("/api/weights", h.GetWeights)
	r.GET("/api/movers", h.GetMovers)
	r.GET("/api/brief", h.GetBrief)

	authed := r.Group("/api", APIKeyAuth(h.apiKey))
	authed.POST("/predictions", h.PostPredictions)
	authed.POST("/evaluate", h.TriggerEvaluation)
}
