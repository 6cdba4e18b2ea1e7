package http

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shelfsight/matchengine/internal/domain"
	"github.com/shelfsight/matchengine/internal/usecases"
)

// Batch is the REST shape of an import batch.
type Batch struct {
	ID             uuid.UUID `json:"id"`
	SellerID       uuid.UUID `json:"seller_id"`
	SourceName     string    `json:"source_name"`
	Status         string    `json:"status"`
	TotalRows      int       `json:"total_rows"`
	ProcessedRows  int       `json:"processed_rows"`
	MatchedCount   int       `json:"matched_count"`
	AmbiguousCount int       `json:"ambiguous_count"`
	NoMatchCount   int       `json:"no_match_count"`
	Progress       int       `json:"progress"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RowError is one rejected upload row.
type RowError struct {
	RowNumber int    `json:"row_number"`
	Message   string `json:"message"`
}

// UploadBatchResp is the response of a batch upload: the stored batch plus
// any rows the parser rejected.
type UploadBatchResp struct {
	Batch    Batch      `json:"batch"`
	Rejected []RowError `json:"rejected"`
}

// MatchCandidate is the REST shape of one persisted match outcome.
type MatchCandidate struct {
	ID           uuid.UUID  `json:"id"`
	ImportItemID uuid.UUID  `json:"import_item_id"`
	VariantID    *uuid.UUID `json:"variant_id,omitempty"`
	MatchType    string     `json:"match_type"`
	Confidence   float64    `json:"confidence"`
	Status       string     `json:"status"`
	Explanation  string     `json:"explanation,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ListMatchCandidatesResp wraps a batch's match outcomes.
type ListMatchCandidatesResp struct {
	Items []MatchCandidate `json:"items"`
}

// SourceReq is one recognition input in a session start request.
type SourceReq struct {
	Kind      string   `json:"kind"`
	ImageURLs []string `json:"image_urls,omitempty"`
	LinkURL   string   `json:"link_url,omitempty"`
	Text      string   `json:"text,omitempty"`
}

// StartRecognitionReq starts a recognition session.
type StartRecognitionReq struct {
	SellerID uuid.UUID   `json:"seller_id"`
	Sources  []SourceReq `json:"sources"`
}

// SelectionReq is one explicit user override in a match request.
type SelectionReq struct {
	SourceIndex int  `json:"source_index"`
	AcceptRank  *int `json:"accept_rank,omitempty"`
	RejectAll   bool `json:"reject_all,omitempty"`
}

// MatchSessionReq advances a session through the match stage.
type MatchSessionReq struct {
	Selections []SelectionReq `json:"selections"`
}

// RankedCandidate is the REST shape of one scored catalog candidate.
type RankedCandidate struct {
	ProductID     uuid.UUID `json:"product_id"`
	VariantID     uuid.UUID `json:"variant_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Price         *float64  `json:"price,omitempty"`
	ImageURL      string    `json:"image_url,omitempty"`
	SourceURL     string    `json:"source_url,omitempty"`
	CombinedScore float64   `json:"combined_score"`
	ImageScore    float64   `json:"image_score"`
	TextScore     float64   `json:"text_score"`
	AdjustedScore float64   `json:"adjusted_score"`
	Rank          int       `json:"rank"`
	Explanation   string    `json:"explanation,omitempty"`
}

// ExternalResult is one external search hit returned as a fallback.
type ExternalResult struct {
	Title   string   `json:"title"`
	URL     string   `json:"url"`
	Snippet string   `json:"snippet,omitempty"`
	Price   *float64 `json:"price,omitempty"`
}

// SourceResult is the per-source output of a session stage.
type SourceResult struct {
	Index       int               `json:"index"`
	Query       string            `json:"query,omitempty"`
	Outcome     string            `json:"outcome"`
	Tier        string            `json:"tier"`
	Action      string            `json:"action"`
	Candidates  []RankedCandidate `json:"candidates,omitempty"`
	External    []ExternalResult  `json:"external,omitempty"`
	Explanation string            `json:"explanation,omitempty"`
}

// GeneratedListing is the generate stage's output for one source.
type GeneratedListing struct {
	SourceIndex int       `json:"source_index"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Model       string    `json:"model"`
	CreatedAt   time.Time `json:"created_at"`
}

// Session is the REST shape of a recognition session.
type Session struct {
	ID         uuid.UUID                  `json:"id"`
	SellerID   uuid.UUID                  `json:"seller_id"`
	Stage      string                     `json:"stage"`
	Recognized []SourceResult             `json:"recognized,omitempty"`
	Matched    []SourceResult             `json:"matched,omitempty"`
	Selected   map[string]RankedCandidate `json:"selected,omitempty"`
	Generated  []GeneratedListing         `json:"generated,omitempty"`
	CreatedAt  time.Time                  `json:"created_at"`
	UpdatedAt  time.Time                  `json:"updated_at"`
}

func toError(err error) ErrorResp {
	switch e := err.(type) {
	case *domain.ValidationErr:
		return newErrorResp(ErrorCode_BadRequest, e.Error())
	case *domain.NotFoundErr:
		return newErrorResp(ErrorCode_NotFound, e.Error())
	case *domain.ConflictErr:
		return newErrorResp(ErrorCode_Conflict, e.Error())
	case *domain.StageOrderErr:
		return newErrorResp(ErrorCode_Conflict, e.Error())
	default:
		return newErrorResp(ErrorCode_InternalError, "internal server error")
	}
}

func toBatch(b domain.ImportBatch) Batch {
	return Batch{
		ID:             b.ID,
		SellerID:       b.SellerID,
		SourceName:     b.SourceName,
		Status:         string(b.Status),
		TotalRows:      b.TotalRows,
		ProcessedRows:  b.ProcessedRows,
		MatchedCount:   b.MatchedCount,
		AmbiguousCount: b.AmbiguousCount,
		NoMatchCount:   b.NoMatchCount,
		Progress:       b.Progress,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

func toRowErrors(rejected []usecases.RowError) []RowError {
	out := make([]RowError, 0, len(rejected))
	for _, r := range rejected {
		out = append(out, RowError{RowNumber: r.RowNumber, Message: r.Message})
	}
	return out
}

func toMatchCandidate(c domain.MatchCandidate) MatchCandidate {
	return MatchCandidate{
		ID:           c.ID,
		ImportItemID: c.ImportItemID,
		VariantID:    c.VariantID,
		MatchType:    string(c.MatchType),
		Confidence:   c.Confidence,
		Status:       string(c.Status),
		Explanation:  c.Explanation,
		CreatedAt:    c.CreatedAt,
	}
}

func toSourceInput(s SourceReq) domain.SourceInput {
	return domain.SourceInput{
		Kind:      domain.SourceKind(s.Kind),
		ImageURLs: s.ImageURLs,
		LinkURL:   s.LinkURL,
		Text:      s.Text,
	}
}

func toSourceSelection(s SelectionReq) domain.SourceSelection {
	return domain.SourceSelection{
		SourceIndex: s.SourceIndex,
		AcceptRank:  s.AcceptRank,
		RejectAll:   s.RejectAll,
	}
}

func toRankedCandidate(c domain.RankedCandidate) RankedCandidate {
	return RankedCandidate{
		ProductID:     c.Ref.ProductID,
		VariantID:     c.Ref.VariantID,
		Title:         c.Title,
		Description:   c.Description,
		Price:         c.Price,
		ImageURL:      c.ImageURL,
		SourceURL:     c.SourceURL,
		CombinedScore: c.CombinedScore,
		ImageScore:    c.ImageScore,
		TextScore:     c.TextScore,
		AdjustedScore: c.AdjustedScore,
		Rank:          c.Rank,
		Explanation:   c.Explanation,
	}
}

func toSourceResults(results []domain.SourceResult) []SourceResult {
	if len(results) == 0 {
		return nil
	}
	out := make([]SourceResult, 0, len(results))
	for _, r := range results {
		sr := SourceResult{
			Index:       r.Index,
			Query:       r.Query,
			Outcome:     string(r.Outcome),
			Tier:        string(r.Tier),
			Action:      string(r.Action),
			Explanation: r.Explanation,
		}
		for _, c := range r.Candidates {
			sr.Candidates = append(sr.Candidates, toRankedCandidate(c))
		}
		for _, e := range r.External {
			sr.External = append(sr.External, ExternalResult{
				Title:   e.Title,
				URL:     e.URL,
				Snippet: e.Snippet,
				Price:   e.Price,
			})
		}
		out = append(out, sr)
	}
	return out
}

func toSession(s domain.RecognitionSession) Session {
	resp := Session{
		ID:         s.ID,
		SellerID:   s.SellerID,
		Stage:      string(s.Stage),
		Recognized: toSourceResults(s.Recognized),
		Matched:    toSourceResults(s.Matched),
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
	if len(s.Selected) > 0 {
		resp.Selected = make(map[string]RankedCandidate, len(s.Selected))
		for idx, c := range s.Selected {
			resp.Selected[strconv.Itoa(idx)] = toRankedCandidate(c)
		}
	}
	for _, g := range s.Generated {
		resp.Generated = append(resp.Generated, GeneratedListing{
			SourceIndex: g.SourceIndex,
			Title:       g.Title,
			Description: g.Description,
			Model:       g.Model,
			CreatedAt:   g.CreatedAt,
		})
	}
	return resp
}
