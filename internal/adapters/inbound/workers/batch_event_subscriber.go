package workers

import (
	"context"
	"encoding/json"
	"log"

	"cloud.google.com/go/pubsub/v2"
	"github.com/shelfsight/matchengine/internal/domain"
	"github.com/shelfsight/matchengine/internal/usecases"
)

// BatchEventSubscriber consumes import-batch events from Pub/Sub and runs the
// matching cascade for every freshly uploaded batch.
type BatchEventSubscriber struct {
	Logger              *log.Logger             `resolve:""`
	Client              *pubsub.Client          `resolve:""`
	SubscriptionID      string                  `config:"PUBSUB_SUBSCRIPTION_ID"`
	RunImportBatch      usecases.RunImportBatch `resolve:""`
	workerExecutionChan chan struct{}
}

// Run starts the subscriber worker. It blocks until the context is canceled.
func (s BatchEventSubscriber) Run(ctx context.Context) error {
	s.Logger.Println("BatchEventSubscriber: running...")

	err := s.Client.Subscriber(s.SubscriptionID).Receive(ctx, s.handle)
	if err != nil {
		return err
	}

	s.Logger.Println("BatchEventSubscriber: stopping...")
	return nil
}

func (s BatchEventSubscriber) handle(ctx context.Context, msg *pubsub.Message) {
	defer func() {
		if s.workerExecutionChan != nil {
			s.workerExecutionChan <- struct{}{}
		}
	}()

	var event domain.ImportBatchEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		s.Logger.Printf("BatchEventSubscriber: dropping malformed event: %v", err)
		msg.Ack()
		return
	}

	// Completion events are informational for downstream consumers.
	if event.Type != domain.EventType_BATCH_UPLOADED {
		msg.Ack()
		return
	}

	if _, err := s.RunImportBatch.Execute(ctx, event.BatchID); err != nil {
		s.Logger.Printf("BatchEventSubscriber: matching batch %s failed: %v", event.BatchID, err)
		msg.Nack()
		return
	}

	msg.Ack()
}
