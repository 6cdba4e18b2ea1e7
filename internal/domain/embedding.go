package domain

import "context"

// Modality identifies the signal type an embedding vector was computed from.
type Modality string

const (
	// Modality_Image marks vectors computed from product photos.
	Modality_Image Modality = "IMAGE"
	// Modality_Text marks vectors computed from titles/descriptions.
	Modality_Text Modality = "TEXT"
)

// EmbeddingVector is a semantic vector plus token accounting.
type EmbeddingVector struct {
	Vector      []float64
	TotalTokens int
}

// ModalityVector pairs a raw embedding vector with the modality it came from.
// Vectors of different modalities may only be fused when they live in the
// same embedding space; that precondition is the caller's to guarantee.
type ModalityVector struct {
	Modality Modality
	Vector   []float64
}

// ModalityWeight records how much one modality contributed to a fused vector.
type ModalityWeight struct {
	Modality Modality
	Weight   float64
}

// FusedEmbedding is a single unit-normalized search vector derived from one
// or more modality vectors, with provenance of the contributing modalities.
// ZeroNormInputs counts input vectors that could not be normalized (an
// upstream embedding failure the caller should log).
type FusedEmbedding struct {
	Vector         []float64
	Provenance     []ModalityWeight
	ZeroNormInputs int
}

// TextEmbeddingInput is the typed input for text vectorization.
type TextEmbeddingInput struct {
	Title       string
	Description string
	Instruction string
}

// ImageEmbeddingInput is the typed input for image vectorization. Either URL
// or Data is set.
type ImageEmbeddingInput struct {
	URL         string
	Data        []byte
	Instruction string
}

// SemanticEncoder defines embedding/vectorization behavior in domain terms.
// Implementations must return vectors of a fixed, provider-declared dimension.
type SemanticEncoder interface {
	// EmbedText generates a semantic vector for a title/description pair.
	EmbedText(ctx context.Context, input TextEmbeddingInput) (EmbeddingVector, error)
	// EmbedImage generates a semantic vector for one product image.
	EmbedImage(ctx context.Context, input ImageEmbeddingInput) (EmbeddingVector, error)
}
