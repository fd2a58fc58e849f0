package service

import (
	"context"
	"encoding/json"
	"log"

	"ai-slidegen-be/internal/websocket"
	"ai-slidegen-be/pkg/events"
	"ai-slidegen-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IProgressConsumerService interface {
	Consume(ctx context.Context) error
}

type progressConsumerService struct {
	pubSub    *gochannel.GoChannel
	hub       *websocket.Hub
	publisher *nats.Publisher
}

func NewProgressConsumerService(
	pubSub *gochannel.GoChannel,
	hub *websocket.Hub,
	publisher *nats.Publisher,
) IProgressConsumerService {
	return &progressConsumerService{
		pubSub:    pubSub,
		hub:       hub,
		publisher: publisher,
	}
}

func (cs *progressConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, events.ProgressTopic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *progressConsumerService) processMessage(ctx context.Context, msg *message.Message) {
	var event events.ProgressEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		log.Printf("[ERROR] Failed to unmarshal progress event: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.hub.Notify(event)

	// Terminal events also go to JetStream so other systems can react to
	// finished or failed runs. Progress ticks stay in-process.
	if cs.publisher != nil && event.Type != events.ProgressTypeProgress {
		if err := cs.publisher.Publish(ctx, &event); err != nil {
			log.Printf("[WARN] Failed to publish %s to NATS: %v", event.EventType(), err)
		}
	}

	msg.Ack()
}
