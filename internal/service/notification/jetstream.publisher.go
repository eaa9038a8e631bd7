package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/krobus00/arbitrage-service/internal/constant"
	"github.com/krobus00/arbitrage-service/internal/entity"
	"github.com/krobus00/arbitrage-service/internal/util"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// JetstreamPublisher is a bus listener that forwards events produced by this
// process onto the arbitrage stream.
type JetstreamPublisher struct {
	js     nats.JetStreamContext
	origin string
}

var _ entity.Publisher = (*JetstreamPublisher)(nil)

func NewJetstreamPublisher(js nats.JetStreamContext, origin string) *JetstreamPublisher {
	return &JetstreamPublisher{js: js, origin: origin}
}

func (p *JetstreamPublisher) JetstreamEventInit(ctx context.Context) error {
	return initArbitrageStream(ctx, p.js)
}

// Notify never reports an error so a broker outage does not unsubscribe the
// publisher. Relayed events from other processes are not republished.
func (p *JetstreamPublisher) Notify(ctx context.Context, event entity.NotificationEvent) error {
	if event.Origin != p.origin {
		return nil
	}

	msgID := fmt.Sprintf("%s:%s:%d", event.Type, event.OpportunityID, event.Timestamp.UnixNano())
	err := util.PublishEvent(ctx, p.js, constant.GetArbitrageStreamSubject(event.Type), msgID, event)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"event":          event.Type,
			"opportunity_id": event.OpportunityID,
		}).Errorf("failed to publish event: %v", err)
	}

	return nil
}

func initArbitrageStream(ctx context.Context, js nats.JetStreamContext) error {
	streamConfig := &nats.StreamConfig{
		Name:       constant.ArbitrageStreamName,
		Subjects:   []string{constant.ArbitrageStreamSubjectAll},
		Storage:    nats.FileStorage,
		Retention:  nats.LimitsPolicy,
		MaxAge:     24 * time.Hour,
		Duplicates: 2 * time.Minute,
		Replicas:   1,
	}

	stream, err := js.StreamInfo(constant.ArbitrageStreamName, nats.Context(ctx))
	if err != nil && !errors.Is(err, nats.ErrStreamNotFound) {
		logrus.Error(err)
		return err
	}

	if stream == nil {
		logrus.Infof("creating stream: %s", constant.ArbitrageStreamName)
		_, err = js.AddStream(streamConfig, nats.Context(ctx))
		return err
	}

	logrus.Infof("updating stream: %s", constant.ArbitrageStreamName)
	_, err = js.UpdateStream(streamConfig, nats.Context(ctx))
	if err != nil {
		logrus.Error(err)
		return err
	}

	logrus.Infof("stream %s is ready", constant.ArbitrageStreamName)

	return nil
}
