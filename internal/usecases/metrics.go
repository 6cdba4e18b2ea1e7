package usecases

import (
	"context"

	"github.com/shelfsight/matchengine/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	meter         = otel.Meter("usecases")
	LLMTokensUsed metric.Int64Counter
	MatchOutcomes metric.Int64Counter
	ImportRows    metric.Int64Counter
)

func init() {
	var err error
	// Tokens consumed by the chat/embedding models (input + output)
	LLMTokensUsed, err = meter.Int64Counter(
		"llm_tokens_used_total",
		metric.WithDescription("Total LLM tokens consumed"),
	)
	if err != nil {
		panic(err)
	}

	MatchOutcomes, err = meter.Int64Counter(
		"match_outcomes_total",
		metric.WithDescription("Match results by confidence tier"),
	)
	if err != nil {
		panic(err)
	}

	ImportRows, err = meter.Int64Counter(
		"import_rows_processed_total",
		metric.WithDescription("Bulk import rows processed by review status"),
	)
	if err != nil {
		panic(err)
	}
}

// RecordLLMTokensUsed records the number of tokens used in an LLM chat operation.
func RecordLLMTokensUsed(ctx context.Context, promptTokens, completionTokens int) {
	LLMTokensUsed.Add(ctx, int64(promptTokens), metric.WithAttributes(
		attribute.String("token_type", "prompt"),
	))
	LLMTokensUsed.Add(ctx, int64(completionTokens), metric.WithAttributes(
		attribute.String("token_type", "completion"),
	))
}

// RecordLLMTokensEmbedding records the number of tokens used in an embedding operation.
func RecordLLMTokensEmbedding(ctx context.Context, totalTokens int) {
	LLMTokensUsed.Add(ctx, int64(totalTokens), metric.WithAttributes(
		attribute.String("token_type", "embedding"),
	))
}

// RecordMatchOutcome records the confidence tier of one scored result set.
func RecordMatchOutcome(ctx context.Context, tier domain.ConfidenceTier, degraded bool) {
	MatchOutcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tier", string(tier)),
		attribute.Bool("degraded", degraded),
	))
}

// RecordImportRow records the review status assigned to one import row.
func RecordImportRow(ctx context.Context, status domain.ReviewStatus) {
	ImportRows.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", string(status)),
	))
}
