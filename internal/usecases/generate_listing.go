package usecases

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cleitonmarx/symbiont/depend"
	"github.com/google/uuid"
	"github.com/shelfsight/matchengine/internal/domain"
	"github.com/shelfsight/matchengine/internal/telemetry"
	"github.com/toon-format/toon-go"
	"go.yaml.in/yaml/v3"
)

// GenerateListing defines the interface for the final session stage:
// listing copy is drafted for every selected candidate and the session
// completes.
type GenerateListing interface {
	Execute(ctx context.Context, sessionID uuid.UUID) (domain.RecognitionSession, error)
}

// GenerateListingImpl is the implementation of the GenerateListing use case.
type GenerateListingImpl struct {
	store        domain.SessionStore
	llmClient    domain.LLMClient
	timeProvider domain.CurrentTimeProvider
	model        string
}

// NewGenerateListingImpl creates a new instance of GenerateListingImpl.
func NewGenerateListingImpl(
	store domain.SessionStore,
	llmClient domain.LLMClient,
	timeProvider domain.CurrentTimeProvider,
	model string,
) GenerateListingImpl {
	return GenerateListingImpl{
		store:        store,
		llmClient:    llmClient,
		timeProvider: timeProvider,
		model:        model,
	}
}

// listingFacts is the TOON-encoded fact sheet handed to the chat model.
// Only verified candidate data goes in; the prompt forbids invention.
type listingFacts struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	SourceURL   string   `json:"source_url,omitempty"`
}

// Execute drafts listing copy for each selected candidate, in source index
// order, and moves the session to COMPLETED.
func (gl GenerateListingImpl) Execute(ctx context.Context, sessionID uuid.UUID) (domain.RecognitionSession, error) {
	spanCtx, span := telemetry.Start(ctx)
	defer span.End()

	session, err := gl.store.Update(spanCtx, sessionID, func(session *domain.RecognitionSession) error {
		if err := session.EnsureStage(domain.SessionStage_Generate); err != nil {
			return err
		}
		if len(session.Selected) == 0 {
			return domain.NewValidationErr("no selected candidates to generate listings from")
		}

		indexes := make([]int, 0, len(session.Selected))
		for index := range session.Selected {
			indexes = append(indexes, index)
		}
		sort.Ints(indexes)

		now := gl.timeProvider.Now()
		session.Generated = make([]domain.GeneratedListing, 0, len(indexes))
		for _, index := range indexes {
			if err := spanCtx.Err(); err != nil {
				return err
			}

			listing, err := gl.draftListing(spanCtx, index, session.Selected[index], now)
			if err != nil {
				return err
			}
			session.Generated = append(session.Generated, listing)
		}

		session.Stage = domain.SessionStage_Completed
		session.UpdatedAt = now
		return nil
	})
	if telemetry.RecordErrorAndStatus(span, err) {
		return domain.RecognitionSession{}, err
	}
	return session, nil
}

func (gl GenerateListingImpl) draftListing(ctx context.Context, index int, candidate domain.RankedCandidate, now time.Time) (domain.GeneratedListing, error) {
	messages, err := buildListingPrompt(candidate)
	if err != nil {
		return domain.GeneratedListing{}, err
	}

	resp, err := gl.llmClient.Chat(ctx, domain.LLMChatRequest{
		Model:    gl.model,
		Messages: messages,
	})
	if err != nil {
		return domain.GeneratedListing{}, fmt.Errorf("listing generation for source %d failed: %w", index, err)
	}
	RecordLLMTokensUsed(ctx, resp.PromptTokens, resp.CompletionTokens)

	title, description := parseListingResponse(resp.Content)
	if title == "" {
		// Model ignored the format; keep the verified catalog title.
		title = candidate.Title
	}

	return domain.GeneratedListing{
		SourceIndex: index,
		Title:       title,
		Description: description,
		Model:       gl.model,
		CreatedAt:   now,
	}, nil
}

//go:embed prompts/listing.yml
var listingPrompt embed.FS

// buildListingPrompt loads the prompt template and substitutes the
// TOON-encoded candidate facts.
func buildListingPrompt(candidate domain.RankedCandidate) ([]domain.LLMChatMessage, error) {
	facts, err := toon.MarshalString(listingFacts{
		Title:       candidate.Title,
		Description: candidate.Description,
		Price:       candidate.Price,
		ImageURL:    candidate.ImageURL,
		SourceURL:   candidate.SourceURL,
	}, toon.WithLengthMarkers(true))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal listing facts: %w", err)
	}

	file, err := listingPrompt.Open("prompts/listing.yml")
	if err != nil {
		return nil, fmt.Errorf("failed to open listing prompt: %w", err)
	}
	defer file.Close() //nolint:errcheck

	messages := []domain.LLMChatMessage{}
	if err := yaml.NewDecoder(file).Decode(&messages); err != nil {
		return nil, fmt.Errorf("failed to decode listing prompt: %w", err)
	}

	for i, msg := range messages {
		if strings.Contains(msg.Content, "%s") {
			msg.Content = fmt.Sprintf(msg.Content, facts)
			messages[i] = msg
		}
	}
	return messages, nil
}

// parseListingResponse splits the model output into title and description,
// tolerating missing markers.
func parseListingResponse(content string) (string, string) {
	title := ""
	var descriptionLines []string
	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "TITLE:"):
			title = strings.TrimSpace(strings.TrimPrefix(line, "TITLE:"))
		case strings.HasPrefix(line, "DESCRIPTION:"):
			descriptionLines = append(descriptionLines, strings.TrimSpace(strings.TrimPrefix(line, "DESCRIPTION:")))
		case line != "" && title == "":
			title = line
		case line != "":
			descriptionLines = append(descriptionLines, line)
		}
	}
	return title, strings.Join(descriptionLines, " ")
}

// InitGenerateListing initializes the GenerateListing use case and registers
// it in the dependency container.
type InitGenerateListing struct {
	Store        domain.SessionStore        `resolve:""`
	LLMClient    domain.LLMClient           `resolve:""`
	TimeProvider domain.CurrentTimeProvider `resolve:""`
	Model        string                     `config:"LLM_LISTING_MODEL"`
}

// Initialize registers the GenerateListing implementation in the dependency container.
func (igl InitGenerateListing) Initialize(ctx context.Context) (context.Context, error) {
	depend.Register[GenerateListing](NewGenerateListingImpl(igl.Store, igl.LLMClient, igl.TimeProvider, igl.Model))
	return ctx, nil
}
