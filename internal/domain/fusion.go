package domain

import "github.com/shelfsight/matchengine/internal/common"

// FusionWeights controls modality weighting for image+text fusion.
type FusionWeights struct {
	Image float64 `toml:"image"`
	Text  float64 `toml:"text"`
}

// Validate checks the fusion weights are usable.
func (fw FusionWeights) Validate() error {
	if fw.Image <= 0 || fw.Text <= 0 {
		return NewValidationErr("fusion weights must be positive")
	}
	return nil
}

// FuseModalities combines one or more modality vectors into one fused
// unit-normalized vector.
//
//   - No vectors: validation error.
//   - One vector: the normalized input unchanged.
//   - Multiple image vectors: equal-weight mean of the normalized vectors,
//     re-normalized (several photos of one product).
//   - Image + text: weighted sum of the per-modality vectors using the
//     configured weights, re-normalized.
//
// All inputs must share one embedding space; fusing incompatible spaces is a
// logic error upstream, surfaced here only as a dimension mismatch.
// Zero-norm inputs pass through unnormalized and are counted in
// FusedEmbedding.ZeroNormInputs so the caller can log them.
func FuseModalities(inputs []ModalityVector, weights FusionWeights) (FusedEmbedding, error) {
	if len(inputs) == 0 {
		return FusedEmbedding{}, NewValidationErr("at least one modality vector is required for fusion")
	}
	if err := weights.Validate(); err != nil {
		return FusedEmbedding{}, err
	}

	dim := len(inputs[0].Vector)
	if dim == 0 {
		return FusedEmbedding{}, NewValidationErr("modality vectors cannot be empty")
	}
	for _, in := range inputs {
		if len(in.Vector) != dim {
			return FusedEmbedding{}, NewValidationErr("modality vectors must share one embedding space dimension")
		}
	}

	zeroNorm := 0
	normalizeCounted := func(v []float64) []float64 {
		out, ok := common.Normalize(v)
		if !ok {
			zeroNorm++
		}
		return out
	}

	if len(inputs) == 1 {
		return FusedEmbedding{
			Vector:         normalizeCounted(inputs[0].Vector),
			Provenance:     []ModalityWeight{{Modality: inputs[0].Modality, Weight: 1}},
			ZeroNormInputs: zeroNorm,
		}, nil
	}

	// Collapse each modality to a single vector first: images average with
	// equal weight, text vectors likewise.
	perModality := map[Modality][]float64{}
	counts := map[Modality]int{}
	order := []Modality{}
	for _, in := range inputs {
		normalized := normalizeCounted(in.Vector)
		if _, seen := perModality[in.Modality]; !seen {
			perModality[in.Modality] = make([]float64, dim)
			order = append(order, in.Modality)
		}
		for i, x := range normalized {
			perModality[in.Modality][i] += x
		}
		counts[in.Modality]++
	}
	for modality, sum := range perModality {
		n := float64(counts[modality])
		for i := range sum {
			sum[i] /= n
		}
	}

	if len(order) == 1 {
		// Several vectors, one modality: mean of normalized inputs, re-normalized.
		fusedVec, ok := common.Normalize(perModality[order[0]])
		if !ok {
			zeroNorm++
		}
		return FusedEmbedding{
			Vector:         fusedVec,
			Provenance:     []ModalityWeight{{Modality: order[0], Weight: 1}},
			ZeroNormInputs: zeroNorm,
		}, nil
	}

	fused := make([]float64, dim)
	provenance := make([]ModalityWeight, 0, len(order))
	for _, modality := range order {
		weight := weights.Text
		if modality == Modality_Image {
			weight = weights.Image
		}
		for i, x := range perModality[modality] {
			fused[i] += weight * x
		}
		provenance = append(provenance, ModalityWeight{Modality: modality, Weight: weight})
	}

	fusedVec, ok := common.Normalize(fused)
	if !ok {
		zeroNorm++
	}
	return FusedEmbedding{
		Vector:         fusedVec,
		Provenance:     provenance,
		ZeroNormInputs: zeroNorm,
	}, nil
}
