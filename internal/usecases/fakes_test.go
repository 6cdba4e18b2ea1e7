package usecases

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shelfsight/matchengine/internal/domain"
)

// Hand-rolled fakes for the domain collaborators. Function fields default to
// zero-value returns so each test only wires what it cares about.

type fakeReranker struct {
	rerankFn func(ctx context.Context, query string, documents []domain.RerankDocument, topK int) ([]domain.RerankScore, error)
	calls    int
}

func (f *fakeReranker) Rerank(ctx context.Context, query string, documents []domain.RerankDocument, topK int) ([]domain.RerankScore, error) {
	f.calls++
	if f.rerankFn == nil {
		return nil, nil
	}
	return f.rerankFn(ctx, query, documents, topK)
}

type fakeEncoder struct {
	embedTextFn  func(ctx context.Context, input domain.TextEmbeddingInput) (domain.EmbeddingVector, error)
	embedImageFn func(ctx context.Context, input domain.ImageEmbeddingInput) (domain.EmbeddingVector, error)
}

func (f *fakeEncoder) EmbedText(ctx context.Context, input domain.TextEmbeddingInput) (domain.EmbeddingVector, error) {
	if f.embedTextFn == nil {
		return domain.EmbeddingVector{}, nil
	}
	return f.embedTextFn(ctx, input)
}

func (f *fakeEncoder) EmbedImage(ctx context.Context, input domain.ImageEmbeddingInput) (domain.EmbeddingVector, error) {
	if f.embedImageFn == nil {
		return domain.EmbeddingVector{}, nil
	}
	return f.embedImageFn(ctx, input)
}

type fakeVectorIndex struct {
	queryFn func(ctx context.Context, query domain.VectorQuery) ([]domain.Candidate, error)
	queries []domain.VectorQuery
}

func (f *fakeVectorIndex) QuerySimilar(ctx context.Context, query domain.VectorQuery) ([]domain.Candidate, error) {
	f.queries = append(f.queries, query)
	if f.queryFn == nil {
		return nil, nil
	}
	return f.queryFn(ctx, query)
}

type fakeSearcher struct {
	searchFn  func(ctx context.Context, query string) ([]domain.ExternalResult, error)
	extractFn func(ctx context.Context, urls []string, fields []string) ([]domain.ExternalRecord, error)
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]domain.ExternalResult, error) {
	if f.searchFn == nil {
		return nil, nil
	}
	return f.searchFn(ctx, query)
}

func (f *fakeSearcher) Extract(ctx context.Context, urls []string, fields []string) ([]domain.ExternalRecord, error) {
	if f.extractFn == nil {
		return nil, nil
	}
	return f.extractFn(ctx, urls, fields)
}

type fakeSessionStore struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]domain.RecognitionSession
	createErr error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[uuid.UUID]domain.RecognitionSession{}}
}

func (f *fakeSessionStore) Create(_ context.Context, session domain.RecognitionSession) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeSessionStore) Get(_ context.Context, id uuid.UUID) (domain.RecognitionSession, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, found := f.sessions[id]
	return session, found, nil
}

func (f *fakeSessionStore) Update(_ context.Context, id uuid.UUID, fn func(*domain.RecognitionSession) error) (domain.RecognitionSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, found := f.sessions[id]
	if !found {
		return domain.RecognitionSession{}, domain.NewNotFoundErr("session " + id.String() + " not found")
	}
	if err := fn(&session); err != nil {
		return domain.RecognitionSession{}, err
	}
	f.sessions[id] = session
	return session, nil
}

func (f *fakeSessionStore) SweepExpired(_ context.Context, cutoff time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	dropped := 0
	for id, session := range f.sessions {
		if session.UpdatedAt.Before(cutoff) {
			delete(f.sessions, id)
			dropped++
		}
	}
	return dropped, nil
}

type fakeLLM struct {
	chatFn   func(ctx context.Context, req domain.LLMChatRequest) (domain.LLMChatResponse, error)
	requests []domain.LLMChatRequest
}

func (f *fakeLLM) Chat(ctx context.Context, req domain.LLMChatRequest) (domain.LLMChatResponse, error) {
	f.requests = append(f.requests, req)
	if f.chatFn == nil {
		return domain.LLMChatResponse{}, nil
	}
	return f.chatFn(ctx, req)
}

type fakePublisher struct {
	publishFn func(ctx context.Context, event domain.OutboxEvent) error
	published []domain.OutboxEvent
}

func (f *fakePublisher) PublishEvent(ctx context.Context, event domain.OutboxEvent) error {
	f.published = append(f.published, event)
	if f.publishFn == nil {
		return nil
	}
	return f.publishFn(ctx, event)
}

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time { return f.now }

type fakeCatalog struct {
	skus       map[string]domain.CatalogVariant
	barcodes   map[string]domain.CatalogVariant
	titles     map[string][]domain.TitleMatch
	skuErr     error
	barcodeErr error
	titleErr   error
}

func (f *fakeCatalog) FindBySKU(_ context.Context, _ domain.SellerScope, sku string) (domain.CatalogVariant, bool, error) {
	if f.skuErr != nil {
		return domain.CatalogVariant{}, false, f.skuErr
	}
	variant, found := f.skus[sku]
	return variant, found, nil
}

func (f *fakeCatalog) FindByBarcode(_ context.Context, _ domain.SellerScope, barcode string) (domain.CatalogVariant, bool, error) {
	if f.barcodeErr != nil {
		return domain.CatalogVariant{}, false, f.barcodeErr
	}
	variant, found := f.barcodes[barcode]
	return variant, found, nil
}

func (f *fakeCatalog) FindSimilarTitles(_ context.Context, _ domain.SellerScope, title string, _ int) ([]domain.TitleMatch, error) {
	if f.titleErr != nil {
		return nil, f.titleErr
	}
	return f.titles[title], nil
}

type outboxUpdate struct {
	eventID    uuid.UUID
	status     domain.OutboxStatus
	retryCount int
	lastError  string
}

type fakeOutbox struct {
	created   []domain.ImportBatchEvent
	pending   []domain.OutboxEvent
	updates   []outboxUpdate
	deleted   []uuid.UUID
	createErr error
	fetchErr  error
	updateErr error
	deleteErr error
}

func (f *fakeOutbox) CreateBatchEvent(_ context.Context, event domain.ImportBatchEvent) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, event)
	return nil
}

func (f *fakeOutbox) FetchPendingEvents(_ context.Context, _ int) ([]domain.OutboxEvent, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.pending, nil
}

func (f *fakeOutbox) UpdateEvent(_ context.Context, eventID uuid.UUID, status domain.OutboxStatus, retryCount int, lastError string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, outboxUpdate{eventID, status, retryCount, lastError})
	return nil
}

func (f *fakeOutbox) DeleteEvent(_ context.Context, eventID uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, eventID)
	return nil
}

type fakeImports struct {
	batches        map[uuid.UUID]domain.ImportBatch
	items          map[uuid.UUID][]domain.RawImportItem
	saved          []domain.MatchCandidate
	progress       []domain.ImportBatch
	candidates     map[uuid.UUID][]domain.MatchCandidate
	createErr      error
	addItemsErr    error
	getBatchErr    error
	listItemsErr   error
	progressErr    error
	saveErr        error
	listMatchErr   error
	addedItems     []domain.RawImportItem
	createdBatches []domain.ImportBatch
}

func newFakeImports() *fakeImports {
	return &fakeImports{
		batches:    map[uuid.UUID]domain.ImportBatch{},
		items:      map[uuid.UUID][]domain.RawImportItem{},
		candidates: map[uuid.UUID][]domain.MatchCandidate{},
	}
}

func (f *fakeImports) CreateBatch(_ context.Context, batch domain.ImportBatch) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.batches[batch.ID] = batch
	f.createdBatches = append(f.createdBatches, batch)
	return nil
}

func (f *fakeImports) AddItems(_ context.Context, items []domain.RawImportItem) error {
	if f.addItemsErr != nil {
		return f.addItemsErr
	}
	f.addedItems = append(f.addedItems, items...)
	for _, item := range items {
		f.items[item.BatchID] = append(f.items[item.BatchID], item)
	}
	return nil
}

func (f *fakeImports) GetBatch(_ context.Context, id uuid.UUID) (domain.ImportBatch, bool, error) {
	if f.getBatchErr != nil {
		return domain.ImportBatch{}, false, f.getBatchErr
	}
	batch, found := f.batches[id]
	return batch, found, nil
}

func (f *fakeImports) ListItems(_ context.Context, batchID uuid.UUID) ([]domain.RawImportItem, error) {
	if f.listItemsErr != nil {
		return nil, f.listItemsErr
	}
	return f.items[batchID], nil
}

func (f *fakeImports) UpdateBatchProgress(_ context.Context, batch domain.ImportBatch) error {
	if f.progressErr != nil {
		return f.progressErr
	}
	f.batches[batch.ID] = batch
	f.progress = append(f.progress, batch)
	return nil
}

func (f *fakeImports) SaveMatchCandidates(_ context.Context, candidates []domain.MatchCandidate) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, candidates...)
	return nil
}

func (f *fakeImports) ListMatchCandidates(_ context.Context, batchID uuid.UUID) ([]domain.MatchCandidate, error) {
	if f.listMatchErr != nil {
		return nil, f.listMatchErr
	}
	return f.candidates[batchID], nil
}

type fakeActivity struct {
	records []domain.ActivityRecord
	err     error
}

func (f *fakeActivity) Record(_ context.Context, record domain.ActivityRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeActivity) ListRecent(_ context.Context, _ uuid.UUID, _ int) ([]domain.ActivityRecord, error) {
	return f.records, nil
}

type fakeUow struct {
	catalog    *fakeCatalog
	imports    *fakeImports
	outbox     *fakeOutbox
	activity   *fakeActivity
	executeErr error
}

func newFakeUow() *fakeUow {
	return &fakeUow{
		catalog:  &fakeCatalog{},
		imports:  newFakeImports(),
		outbox:   &fakeOutbox{},
		activity: &fakeActivity{},
	}
}

func (f *fakeUow) Execute(_ context.Context, fn func(uow domain.UnitOfWork) error) error {
	if f.executeErr != nil {
		return f.executeErr
	}
	return fn(f)
}

func (f *fakeUow) Catalog() domain.CatalogRepository   { return f.catalog }
func (f *fakeUow) Imports() domain.ImportRepository    { return f.imports }
func (f *fakeUow) Outbox() domain.OutboxRepository     { return f.outbox }
func (f *fakeUow) Activity() domain.ActivityRepository { return f.activity }
