package handler

import (
	"net/http"
	"time"

	"mover-brief/internal/domain"

	"github.com/gin-gonic/gin"
)

// GetLatestEvaluation godoc
// @Summary      Latest evaluation report
// @Description  Returns the report from the most recent daily evaluation run
// @Tags         evaluation
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/evaluation/latest [get]
func (h *Handler) GetLatestEvaluation(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-latest-evaluation")
	defer span.End()

	report, err := h.daily.LatestReport(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no evaluation has run yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"evaluation": report})
}

// GetEvaluationHistory godoc
// @Summary      Evaluation history window
// @Description  Returns the rolling window of past evaluation results and all-time running averages
// @Tags         evaluation
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/evaluation/history [get]
func (h *Handler) GetEvaluationHistory(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-evaluation-history")
	defer span.End()

	window := h.history.Window()
	c.JSON(http.StatusOK, gin.H{
		"history":          window,
		"window_size":      len(window),
		"running_averages": h.history.RunningAverages(),
		"sample_size":      h.history.SampleSize(),
	})
}

// GetWeights godoc
// @Summary      Current category weights
// @Description  Returns the confidence weight table currently in force
// @Tags         weights
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /api/weights [get]
func (h *Handler) GetWeights(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-weights")
	defer span.End()

	table, err := h.daily.CurrentWeights(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"weights": table})
}

// GetMovers godoc
// @Summary      Significant movers for a day
// @Description  Returns gainers and losers whose move met the significance threshold
// @Tags         movers
// @Produce      json
// @Param        date  query  string  false  "Day (YYYY-MM-DD), defaults to today"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/movers [get]
func (h *Handler) GetMovers(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-movers")
	defer span.End()

	day := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
			return
		}
		day = parsed
	}

	summary, err := h.daily.MoversFor(ctx, day)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetBrief godoc
// @Summary      Latest daily brief
// @Description  Returns the most recently generated narrative brief
// @Tags         brief
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/brief [get]
func (h *Handler) GetBrief(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-brief")
	defer span.End()

	brief, err := h.daily.LatestBrief(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if brief == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no brief has been generated yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"brief": brief})
}

type predictionRequest struct {
	Ticker             string  `json:"ticker" binding:"required"`
	PredictedDirection string  `json:"predicted_direction" binding:"required"`
	PredictedMagnitude float64 `json:"predicted_magnitude"`
	Category           string  `json:"category"`
}

type snapshotRequest struct {
	AsOfDate    string              `json:"as_of_date" binding:"required"`
	Predictions []predictionRequest `json:"predictions"`
}

// PostPredictions godoc
// @Summary      Ingest a prediction snapshot
// @Description  Stores the upstream classifier's prediction set for a day, replacing any earlier set for the same day
// @Tags         predictions
// @Accept       json
// @Produce      json
// @Param        snapshot  body  snapshotRequest  true  "Prediction snapshot"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/predictions [post]
func (h *Handler) PostPredictions(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.post-predictions")
	defer span.End()

	var req snapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	asOf, err := time.Parse("2006-01-02", req.AsOfDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid as_of_date, expected YYYY-MM-DD"})
		return
	}

	snapshot := domain.PredictionSnapshot{AsOfDate: asOf}
	for _, p := range req.Predictions {
		snapshot.Predictions = append(snapshot.Predictions, domain.Prediction{
			Ticker:             p.Ticker,
			PredictedDirection: domain.MoveDirection(p.PredictedDirection),
			PredictedMagnitude: p.PredictedMagnitude,
			Category:           domain.ParseCategory(p.Category),
			AsOfDate:           asOf,
		})
	}

	if err := h.daily.IngestSnapshot(ctx, snapshot); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"status":      "stored",
		"as_of_date":  req.AsOfDate,
		"predictions": len(snapshot.Predictions),
	})
}

// TriggerEvaluation godoc
// @Summary      Trigger a daily evaluation run manually
// @Description  Runs the full daily cycle immediately instead of waiting for the scheduled hour
// @Tags         evaluation
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/evaluate [post]
func (h *Handler) TriggerEvaluation(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.trigger-evaluation")
	defer span.End()

	result, err := h.daily.RunDaily(ctx, time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
