package brief

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mover-brief/internal/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// LLMClient abstracts the OpenAI chat completions API for testability.
type LLMClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// Generator turns an evaluation report and the day's movers into a short
// narrative brief.
type Generator struct {
	tracer trace.Tracer
	llm    LLMClient
	model  string
}

func NewGenerator(tracer trace.Tracer, llm LLMClient, model string) *Generator {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Generator{tracer: tracer, llm: llm, model: model}
}

func (g *Generator) Generate(
	ctx context.Context,
	briefDate time.Time,
	report domain.EvaluationReport,
	movers domain.MoverSummary,
) (domain.Brief, error) {
	ctx, span := g.tracer.Start(ctx, "brief.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", g.model),
		attribute.Int("movers.gainers", len(movers.Gainers)),
		attribute.Int("movers.losers", len(movers.Losers)),
	)

	systemPrompt := BuildSystemPrompt()
	userPrompt := FormatEvaluationContext(report, movers)

	completion, err := g.llm.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		span.RecordError(err)
		return domain.Brief{}, fmt.Errorf("generate brief: %w", err)
	}
	if len(completion.Choices) == 0 {
		return domain.Brief{}, fmt.Errorf("no choices in LLM response")
	}

	content := completion.Choices[0].Message.Content
	span.SetAttributes(attribute.Int("llm.reply_length", len(content)))

	resultJSON, err := json.Marshal(report)
	if err != nil {
		return domain.Brief{}, fmt.Errorf("marshal report: %w", err)
	}

	return domain.Brief{
		BriefDate:  briefDate.UTC().Truncate(24 * time.Hour),
		Content:    content,
		Model:      g.model,
		ResultJSON: string(resultJSON),
	}, nil
}

// openaiClient wraps the official SDK's chat completions service.
type openaiClient struct {
	client openai.Client
}

func NewOpenAIClient(apiKey string) LLMClient {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &openaiClient{client: client}
}

func (c *openaiClient) CreateChatCompletion(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
