package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionStage is the recognition session's state machine position. Stages
// advance forward only: recognize -> match -> generate -> completed.
type SessionStage string

const (
	// SessionStage_Recognize is the initial stage.
	SessionStage_Recognize SessionStage = "RECOGNIZE"
	// SessionStage_Match follows a completed recognize stage.
	SessionStage_Match SessionStage = "MATCH"
	// SessionStage_Generate follows a completed match stage.
	SessionStage_Generate SessionStage = "GENERATE"
	// SessionStage_Completed is terminal.
	SessionStage_Completed SessionStage = "COMPLETED"
)

// SourceKind tags the recognition input union.
type SourceKind string

const (
	// SourceKind_Image is one or more product photos of one item.
	SourceKind_Image SourceKind = "IMAGE"
	// SourceKind_Link is a product page URL.
	SourceKind_Link SourceKind = "LINK"
	// SourceKind_Text is a bare text query.
	SourceKind_Text SourceKind = "TEXT"
)

// SourceInput is one recognition input source, validated at the boundary so
// downstream code works over a closed, typed shape.
type SourceInput struct {
	Kind      SourceKind
	ImageURLs []string
	LinkURL   string
	Text      string
}

// Validate checks that exactly the field matching Kind is populated.
func (s SourceInput) Validate() error {
	switch s.Kind {
	case SourceKind_Image:
		if len(s.ImageURLs) == 0 {
			return NewValidationErr("image source requires at least one image url")
		}
		if s.LinkURL != "" || s.Text != "" {
			return NewValidationErr("image source cannot carry link or text payloads")
		}
	case SourceKind_Link:
		if s.LinkURL == "" {
			return NewValidationErr("link source requires a url")
		}
		if len(s.ImageURLs) > 0 || s.Text != "" {
			return NewValidationErr("link source cannot carry image or text payloads")
		}
	case SourceKind_Text:
		if s.Text == "" {
			return NewValidationErr("text source requires a query")
		}
		if len(s.ImageURLs) > 0 || s.LinkURL != "" {
			return NewValidationErr("text source cannot carry image or link payloads")
		}
	default:
		return NewValidationErr("unknown source kind")
	}
	return nil
}

// SourceOutcome states explicitly which path produced a source's result.
type SourceOutcome string

const (
	// SourceOutcome_OK means the primary scoring path succeeded.
	SourceOutcome_OK SourceOutcome = "OK"
	// SourceOutcome_Degraded means a fallback fired (reranker down, external search used).
	SourceOutcome_Degraded SourceOutcome = "DEGRADED"
	// SourceOutcome_Failed means the source itself could not be processed.
	SourceOutcome_Failed SourceOutcome = "FAILED"
)

// SourceResult is the per-source output of the recognize or match stage.
// Index always equals the source's position in the session input, regardless
// of completion order.
type SourceResult struct {
	Index       int
	Query       string
	Outcome     SourceOutcome
	Tier        ConfidenceTier
	Action      SystemAction
	Candidates  []RankedCandidate
	External    []ExternalResult
	Explanation string
}

// SourceSelection is a user's explicit override for one source during the
// match stage; it bypasses scoring entirely.
type SourceSelection struct {
	SourceIndex int
	AcceptRank  *int
	RejectAll   bool
}

// GeneratedListing is the generate stage's output for one source.
type GeneratedListing struct {
	SourceIndex int
	Title       string
	Description string
	Model       string
	CreatedAt   time.Time
}

// RecognitionSession is the ephemeral, in-memory state of one multi-stage
// recognition flow. Not durable: a process restart loses in-flight sessions.
type RecognitionSession struct {
	ID         uuid.UUID
	SellerID   uuid.UUID
	Stage      SessionStage
	Sources    []SourceInput
	Recognized []SourceResult
	Matched    []SourceResult
	Selected   map[int]RankedCandidate
	Generated  []GeneratedListing
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Clone returns a copy that shares no mutable state with the receiver, so a
// caller can modify the copy without the original observing partial writes.
func (s RecognitionSession) Clone() RecognitionSession {
	out := s
	out.Sources = append([]SourceInput(nil), s.Sources...)
	out.Recognized = cloneSourceResults(s.Recognized)
	out.Matched = cloneSourceResults(s.Matched)
	out.Generated = append([]GeneratedListing(nil), s.Generated...)
	if s.Selected != nil {
		out.Selected = make(map[int]RankedCandidate, len(s.Selected))
		for idx, candidate := range s.Selected {
			out.Selected[idx] = candidate
		}
	}
	return out
}

func cloneSourceResults(results []SourceResult) []SourceResult {
	if results == nil {
		return nil
	}
	out := make([]SourceResult, len(results))
	for i, r := range results {
		r.Candidates = append([]RankedCandidate(nil), r.Candidates...)
		r.External = append([]ExternalResult(nil), r.External...)
		out[i] = r
	}
	return out
}

// EnsureStage rejects a stage call made out of order.
func (s *RecognitionSession) EnsureStage(expected SessionStage) error {
	if s.Stage != expected {
		return NewStageOrderErr("session " + s.ID.String() + " is in stage " + string(s.Stage) + ", expected " + string(expected))
	}
	return nil
}

// SessionStore is the keyed, lock-guarded session map. Update applies fn
// under single-writer discipline for the session id; a concurrent second
// writer receives ConflictErr.
type SessionStore interface {
	Create(ctx context.Context, session RecognitionSession) error
	Get(ctx context.Context, id uuid.UUID) (RecognitionSession, bool, error)
	Update(ctx context.Context, id uuid.UUID, fn func(*RecognitionSession) error) (RecognitionSession, error)
	// SweepExpired removes sessions untouched since the cutoff, returning
	// how many were dropped.
	SweepExpired(ctx context.Context, cutoff time.Time) (int, error)
}
