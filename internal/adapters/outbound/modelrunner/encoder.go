package modelrunner

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cleitonmarx/symbiont/depend"
	"github.com/shelfsight/matchengine/internal/domain"
	"github.com/shelfsight/matchengine/internal/telemetry"
	"go.opentelemetry.io/otel/trace"
)

// Encoder adapts DRMAPIClient to the domain.SemanticEncoder interface. Image
// and text inputs are embedded with the same model so the resulting vectors
// share one embedding space and can be fused.
type Encoder struct {
	client  DRMAPIClient
	model   string
	timeout time.Duration
}

// NewEncoder creates a new Encoder.
func NewEncoder(client DRMAPIClient, model string, timeout time.Duration) Encoder {
	return Encoder{
		client:  client,
		model:   model,
		timeout: timeout,
	}
}

// EmbedText generates a semantic vector for a title/description pair.
func (e Encoder) EmbedText(ctx context.Context, input domain.TextEmbeddingInput) (domain.EmbeddingVector, error) {
	spanCtx, span := telemetry.Start(ctx)
	defer span.End()

	text := strings.TrimSpace(strings.TrimSpace(input.Title) + "\n" + strings.TrimSpace(input.Description))
	if text == "" {
		err := domain.NewValidationErr("text embedding input is empty")
		telemetry.RecordErrorAndStatus(span, err)
		return domain.EmbeddingVector{}, err
	}

	if input.Instruction != "" {
		text = input.Instruction + "\n" + text
	}

	return e.embed(spanCtx, span, text)
}

// EmbedImage generates a semantic vector for one product image.
func (e Encoder) EmbedImage(ctx context.Context, input domain.ImageEmbeddingInput) (domain.EmbeddingVector, error) {
	spanCtx, span := telemetry.Start(ctx)
	defer span.End()

	ref := input.URL
	if ref == "" && len(input.Data) > 0 {
		ref = "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(input.Data)
	}
	if ref == "" {
		err := domain.NewValidationErr("image embedding input is empty")
		telemetry.RecordErrorAndStatus(span, err)
		return domain.EmbeddingVector{}, err
	}

	if input.Instruction != "" {
		ref = input.Instruction + "\n" + ref
	}

	return e.embed(spanCtx, span, ref)
}

func (e Encoder) embed(ctx context.Context, span trace.Span, input string) (domain.EmbeddingVector, error) {
	reqCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.Embeddings(reqCtx, EmbeddingsRequest{
		Model: e.model,
		Input: input,
	})
	if telemetry.RecordErrorAndStatus(span, err) {
		return domain.EmbeddingVector{}, err
	}

	if len(resp.Data) == 0 {
		err := errors.New("no embedding data in response")
		telemetry.RecordErrorAndStatus(span, err)
		return domain.EmbeddingVector{}, err
	}

	return domain.EmbeddingVector{
		Vector:      resp.Data[0].Embedding,
		TotalTokens: resp.Usage.TotalTokens,
	}, nil
}

// InitSemanticEncoder initializes the SemanticEncoder dependency.
type InitSemanticEncoder struct {
	HttpClient     *http.Client  `resolve:""`
	EmbeddingHost  string        `config:"EMBEDDING_MODEL_HOST"`
	EmbeddingModel string        `config:"EMBEDDING_MODEL"`
	Timeout        time.Duration `config:"EMBEDDING_TIMEOUT" default:"30s"`
}

// Initialize registers the SemanticEncoder in the dependency container.
func (i InitSemanticEncoder) Initialize(ctx context.Context) (context.Context, error) {
	depend.Register[domain.SemanticEncoder](NewEncoder(
		NewDRMAPIClient(i.EmbeddingHost, "", i.HttpClient),
		i.EmbeddingModel,
		i.Timeout,
	))
	return ctx, nil
}
