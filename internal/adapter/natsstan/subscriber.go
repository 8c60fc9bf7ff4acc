package natsstan

import (
	"context"
	"errors"
	"time"

	"github.com/example/reservation-service/internal/domain"
	"github.com/google/uuid"
	stan "github.com/nats-io/stan.go"
	"github.com/sirupsen/logrus"
)

const (
	queueGroup     = "reservation-workers"
	handlerTimeout = 5 * time.Second
	ackWait        = 10 * time.Second
)

// Subscriber — durable-подписка NATS Streaming на входящие резервации с ручным ack.
type Subscriber struct {
	ClusterID string
	ClientID  string
	URL       string
	Subject   string
	Durable   string
	Logger    logrus.FieldLogger
}

func (s *Subscriber) Subscribe(ctx context.Context, handler func(ctx context.Context, raw []byte) error) error {
	clientID := s.ClientID
	if clientID == "" {
		clientID = "reservation-svc-" + uuid.NewString()
	}
	sc, err := stan.Connect(s.ClusterID, clientID, stan.NatsURL(s.URL))
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		sc.Close()
	}()
	_, err = sc.QueueSubscribe(s.Subject, queueGroup, func(m *stan.Msg) {
		hCtx, cancel := context.WithTimeout(ctx, handlerTimeout)
		defer cancel()
		s.deliver(hCtx, m.Sequence, m.Data, handler, m.Ack)
	}, stan.DurableName(s.Durable), stan.SetManualAckMode(), stan.AckWait(ackWait), stan.DeliverAllAvailable())
	if err != nil {
		sc.Close()
		return err
	}
	s.logger().WithFields(logrus.Fields{"subject": s.Subject, "durable": s.Durable}).Info("stan subscribed")
	return nil
}

// deliver вызывает обработчик и решает судьбу сообщения:
// успех и неразбираемое сообщение подтверждаются, прочие ошибки оставляют его на переотправку.
func (s *Subscriber) deliver(ctx context.Context, seq uint64, data []byte, handler func(context.Context, []byte) error, ack func() error) {
	log := s.logger().WithField("seq", seq)
	err := handler(ctx, data)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrBadInput):
		log.WithError(err).Warn("dropping malformed reservation message")
	default:
		// не подтверждаем, даём сообщению переотправиться
		log.WithError(err).Error("reservation message not applied")
		return
	}
	if err := ack(); err != nil {
		log.WithError(err).Error("ack failed")
	}
}

func (s *Subscriber) logger() logrus.FieldLogger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}

var _ domain.MessageSubscriber = (*Subscriber)(nil)
