package config

import (
	"context"
	"fmt"
	"os"

	"github.com/cleitonmarx/symbiont/depend"
	"github.com/pelletier/go-toml/v2"
	"github.com/shelfsight/matchengine/internal/domain"
)

// LoadScoringPolicy reads a TOML policy file and lays it over the calibrated
// defaults, so a partial file only overrides the tables it names. An empty
// path returns the defaults unchanged. An invalid policy is an error, never a
// silent fallback.
func LoadScoringPolicy(path string) (domain.ScoringPolicy, error) {
	policy := domain.DefaultScoringPolicy()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return domain.ScoringPolicy{}, fmt.Errorf("failed to read scoring policy file: %w", err)
		}
		if err := toml.Unmarshal(data, &policy); err != nil {
			return domain.ScoringPolicy{}, fmt.Errorf("failed to parse scoring policy file: %w", err)
		}
	}
	if err := policy.Validate(); err != nil {
		return domain.ScoringPolicy{}, fmt.Errorf("invalid scoring policy: %w", err)
	}
	return policy, nil
}

// InitScoringPolicy initializes the ScoringPolicy dependency.
type InitScoringPolicy struct {
	PolicyPath string `config:"SCORING_POLICY_PATH" default:""`
}

// Initialize loads the scoring policy and registers it in the dependency container.
func (i InitScoringPolicy) Initialize(ctx context.Context) (context.Context, error) {
	policy, err := LoadScoringPolicy(i.PolicyPath)
	if err != nil {
		return ctx, err
	}
	depend.Register(policy)
	return ctx, nil
}
