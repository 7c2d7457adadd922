package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/itsManeka/gibipromo-sub001/internal/cfg"
	"github.com/itsManeka/gibipromo-sub001/internal/usecase"
	"github.com/itsManeka/gibipromo-sub001/pkg/e"
	"github.com/itsManeka/gibipromo-sub001/pkg/logger"
	"github.com/google/uuid"
	"github.com/jimlawless/whereami"
	"github.com/segmentio/kafka-go"
)

// Producer публикует уведомления о снижении цены в топик Kafka.
// Сообщения ключуются идентификатором получателя, чтобы уведомления одного
// пользователя попадали в одну партицию и доставлялись по порядку.
// Дальнейшая доставка в мессенджер — забота консьюмера топика.
type Producer struct {
	writer *kafka.Writer
	logger logger.Logger
	cfg    *cfg.KafkaCfg
}

func NewProducer(logger logger.Logger, cfg *cfg.KafkaCfg) (*Producer, error) {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    10,
		BatchTimeout: 500 * time.Millisecond,
		WriteTimeout: cfg.WriteTimeout,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warnf("Kafka producer error: %s", err.Error())
			}
		},
	}

	return &Producer{
		writer: writer,
		logger: logger,
		cfg:    cfg,
	}, nil
}

// notifyEvent — сериализуемое событие уведомления.
type notifyEvent struct {
	EventID          string `json:"event_id"`
	EventTimestamp   int64  `json:"event_timestamp"`
	UserID           string `json:"user_id"`
	ProductID        string `json:"product_id"`
	Title            string `json:"title"`
	URL              string `json:"url"`
	Image            string `json:"image"`
	OldPrice         string `json:"old_price"`
	NewPrice         string `json:"new_price"`
	PercentageChange string `json:"percentage_change"`
}

// Send публикует одно уведомление. Цены сериализуются строками,
// чтобы консьюмер не зависел от представления чисел в JSON.
func (p *Producer) Send(ctx context.Context, req *usecase.NotifyMessageReq) error {
	event := notifyEvent{
		EventID:          uuid.NewString(),
		EventTimestamp:   time.Now().UnixNano(),
		UserID:           req.UserID,
		ProductID:        req.ProductID,
		Title:            req.Title,
		URL:              req.URL,
		Image:            req.Image,
		OldPrice:         req.OldPrice.String(),
		NewPrice:         req.NewPrice.String(),
		PercentageChange: req.PercentageChange.StringFixed(2),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(req.UserID),
		Value: value,
	})
}

// EnsureTopic создаёт топик уведомлений, если его ещё нет.
func (p *Producer) EnsureTopic(timeout time.Duration) error {
	conn, err := kafka.Dial(p.cfg.NetworkMode, p.cfg.Brokers[0])
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions(p.cfg.Topic)
	if err == nil && len(partitions) > 0 {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		err := conn.CreateTopics(kafka.TopicConfig{
			Topic:             p.cfg.Topic,
			NumPartitions:     p.cfg.Partitions,
			ReplicationFactor: p.cfg.ReplicationFactor,
		})
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), fmt.Errorf("failed to create topic %s: %w", p.cfg.Topic, err))
		}
		return nil
	case <-time.After(timeout):
		_ = conn.Close()
		return e.Wrap(whereami.WhereAmI(), fmt.Errorf("timeout: %v, topic: %s", timeout, p.cfg.Topic))
	}
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
