package notification

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/krobus00/arbitrage-service/internal/config"
	"github.com/krobus00/arbitrage-service/internal/constant"
	"github.com/krobus00/arbitrage-service/internal/entity"
	"github.com/krobus00/arbitrage-service/internal/util"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

const relayTimeoutHandlerKey = "relay_event"

type Broadcaster interface {
	Broadcast(ctx context.Context, event entity.NotificationEvent)
}

// JetstreamRelay feeds events published by other processes into the local
// bus, so a gateway pushes detections made by a worker to its clients.
type JetstreamRelay struct {
	js          nats.JetStreamContext
	origin      string
	broadcaster Broadcaster
	sub         *nats.Subscription
}

var _ entity.Subscriber = (*JetstreamRelay)(nil)

func NewJetstreamRelay(js nats.JetStreamContext, origin string, broadcaster Broadcaster) *JetstreamRelay {
	return &JetstreamRelay{js: js, origin: origin, broadcaster: broadcaster}
}

func (r *JetstreamRelay) JetstreamEventSubscribe(ctx context.Context) error {
	if err := initArbitrageStream(ctx, r.js); err != nil {
		return err
	}

	sub, err := r.js.Subscribe(
		constant.ArbitrageStreamSubjectAll,
		func(msg *nats.Msg) {
			err := util.ProcessWithTimeout(config.Env.NatsJetstream.TimeoutHandler[relayTimeoutHandlerKey], msg, r.handleEvent)
			if err != nil {
				logrus.Errorf("error processing message: %v", err)
			}

			// relayed events are best effort; a bad payload is never redelivered
			if err := msg.Ack(); err != nil {
				logrus.Errorf("failed to acknowledge message: %v", err)
			}
		},
		nats.ManualAck(),
		nats.DeliverNew(),
	)
	if err != nil {
		return err
	}
	r.sub = sub

	return nil
}

func (r *JetstreamRelay) handleEvent(ctx context.Context, msg *nats.Msg) error {
	var event entity.NotificationEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return err
	}

	if event.Origin == r.origin {
		return nil
	}

	r.broadcaster.Broadcast(ctx, event)

	return nil
}

func (r *JetstreamRelay) Close() error {
	if r.sub == nil {
		return nil
	}
	return r.sub.Unsubscribe()
}
