package workers

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	pubsubV2 "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"cloud.google.com/go/pubsub/v2/pstest"
	"github.com/cleitonmarx/symbiont"
	"github.com/google/uuid"
	"github.com/shelfsight/matchengine/internal/domain"
	"github.com/stretchr/testify/assert"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// setupPubSubServer creates a pstest server with topic and subscription.
func setupPubSubServer(t *testing.T, ctx context.Context, topicID, subscriptionID string) (*pubsubV2.Client, string) {
	server := pstest.NewServer()
	t.Cleanup(func() {
		server.Close() //nolint:errcheck
	})

	conn, err := grpc.NewClient(server.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	assert.NoError(t, err)
	t.Cleanup(func() {
		conn.Close() //nolint:errcheck
	})

	projectID := "test-project"
	client, err := pubsubV2.NewClient(ctx, projectID, option.WithGRPCConn(conn))
	assert.NoError(t, err)
	t.Cleanup(func() {
		client.Close() //nolint:errcheck
	})

	// Create topic
	topicName := "projects/" + projectID + "/topics/" + topicID
	topic, err := client.TopicAdminClient.CreateTopic(ctx, &pubsubpb.Topic{Name: topicName})
	assert.NoError(t, err)

	// Create subscription
	subName := "projects/" + projectID + "/subscriptions/" + subscriptionID
	_, err = client.SubscriptionAdminClient.CreateSubscription(
		ctx,
		&pubsubpb.Subscription{
			Name:  subName,
			Topic: topic.GetName(),
		},
	)
	assert.NoError(t, err)

	return client, topicName
}

// publishMessages sends many payloads to the same Pub/Sub topic.
func publishMessages(ctx context.Context, client *pubsubV2.Client, topicName string, payloads [][]byte) error {
	for _, payload := range payloads {
		result := client.Publisher(topicName).Publish(ctx, &pubsubV2.Message{
			Data: payload,
		})
		_, err := result.Get(ctx) // Wait for the publish result to ensure message is sent
		if err != nil {
			return err
		}
	}
	return nil
}

// run starts the runnable and returns a cancel function and done channel.
func run(
	t *testing.T,
	ctx context.Context,
	subscriber symbiont.Runnable,
) (context.CancelFunc, chan struct{}) {
	t.Helper()

	runCtx, cancel := context.WithCancel(ctx)
	doneChan := make(chan struct{}, 1)

	go func() {
		err := subscriber.Run(runCtx)
		assert.NoError(t, err)
		doneChan <- struct{}{}
	}()

	return cancel, doneChan
}

// waitRunnableStop waits until the runnable goroutine exits.
func waitRunnableStop(t *testing.T, doneChan chan struct{}) {
	t.Helper()

	select {
	case <-doneChan:
	case <-time.After(1 * time.Second):
		t.Fatal("runnable did not shut down in time")
	}
}

// waitForSignals waits for the expected number of worker execution signals or timeout.
func waitForSignals(t *testing.T, signalChan chan struct{}, expected int, timeout time.Duration) {
	t.Helper()

	received := 0
	for received < expected {
		select {
		case <-signalChan:
			received++
		case <-time.After(timeout):
			t.Fatalf("timeout waiting for worker executions; got %d, expected %d", received, expected)
		}
	}
}

// batchEventPayload marshals an ImportBatchEvent into JSON bytes for Pub/Sub publishing.
func batchEventPayload(t *testing.T, event domain.ImportBatchEvent) []byte {
	t.Helper()
	data, err := json.Marshal(event)
	assert.NoError(t, err)
	return data
}

type fakeRelayOutbox struct {
	executeFn func(ctx context.Context) error
}

func (f *fakeRelayOutbox) Execute(ctx context.Context) error {
	return f.executeFn(ctx)
}

type fakeRunImportBatch struct {
	mu        sync.Mutex
	executeFn func(ctx context.Context, batchID uuid.UUID) (domain.ImportBatch, error)
	batchIDs  []uuid.UUID
}

func (f *fakeRunImportBatch) Execute(ctx context.Context, batchID uuid.UUID) (domain.ImportBatch, error) {
	f.mu.Lock()
	f.batchIDs = append(f.batchIDs, batchID)
	f.mu.Unlock()
	if f.executeFn == nil {
		return domain.ImportBatch{ID: batchID}, nil
	}
	return f.executeFn(ctx, batchID)
}

func (f *fakeRunImportBatch) executedBatchIDs() []uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uuid.UUID(nil), f.batchIDs...)
}

type fakeSweepStore struct {
	mu      sync.Mutex
	cutoffs []time.Time
	dropped int
}

func (f *fakeSweepStore) Create(context.Context, domain.RecognitionSession) error {
	return nil
}

func (f *fakeSweepStore) Get(context.Context, uuid.UUID) (domain.RecognitionSession, bool, error) {
	return domain.RecognitionSession{}, false, nil
}

func (f *fakeSweepStore) Update(context.Context, uuid.UUID, func(*domain.RecognitionSession) error) (domain.RecognitionSession, error) {
	return domain.RecognitionSession{}, nil
}

func (f *fakeSweepStore) SweepExpired(_ context.Context, cutoff time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.dropped, nil
}

func (f *fakeSweepStore) sweepCutoffs() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.cutoffs...)
}

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time {
	return f.now
}
