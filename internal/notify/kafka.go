package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// KafkaNotifier publishes usage events to a Kafka topic with an async
// producer. Delivery errors are drained to a warning log; there is no retry
// beyond sarama's own and no success tracking, matching the at-most-once
// contract.
type KafkaNotifier struct {
	producer sarama.AsyncProducer
	topic    string
	logger   *zap.Logger
	done     chan struct{}
}

// NewKafkaNotifier creates a notifier publishing to topic on brokers.
func NewKafkaNotifier(brokers []string, topic, clientID string, logger *zap.Logger) (*KafkaNotifier, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers is empty")
	}
	if strings.TrimSpace(topic) == "" {
		return nil, errors.New("kafka topic is empty")
	}

	sc := sarama.NewConfig()
	sc.Version = sarama.V2_8_0_0
	sc.Producer.RequiredAcks = sarama.WaitForLocal
	sc.Producer.Return.Successes = false
	sc.Producer.Return.Errors = true
	sc.Producer.Partitioner = sarama.NewHashPartitioner
	sc.ClientID = strings.TrimSpace(clientID)

	producer, err := sarama.NewAsyncProducer(brokers, sc)
	if err != nil {
		return nil, err
	}

	n := &KafkaNotifier{
		producer: producer,
		topic:    topic,
		logger:   logger,
		done:     make(chan struct{}),
	}
	go n.drainErrors()
	return n, nil
}

func (n *KafkaNotifier) drainErrors() {
	defer close(n.done)
	for perr := range n.producer.Errors() {
		n.logger.Warn("usage notification dropped", zap.Error(perr.Err))
	}
}

// NotifyUsage enqueues a usage event. The send is not awaited.
func (n *KafkaNotifier) NotifyUsage(ctx context.Context, walletAddress string) error {
	value, err := json.Marshal(usageEvent{WalletAddress: walletAddress})
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: n.topic,
		Key:   sarama.StringEncoder(walletAddress),
		Value: sarama.ByteEncoder(value),
	}
	select {
	case n.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close shuts down the producer and waits for the error drain to finish.
func (n *KafkaNotifier) Close() error {
	n.producer.AsyncClose()
	<-n.done
	return nil
}
