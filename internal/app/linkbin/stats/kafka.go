package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/segmentio/kafka-go"
)

// KafkaCollector publishes visit events instead of buffering in-process;
// use it when more than one instance serves resolves.
type KafkaCollector struct {
	writer *kafka.Writer
}

func NewKafkaCollector(brokers []string, topic string) *KafkaCollector {
	return &KafkaCollector{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
			Async:    true,
		},
	}
}

func (k *KafkaCollector) Collect(event VisitEvent) {
	data, _ := json.Marshal(event)
	if err := k.writer.WriteMessages(context.Background(), kafka.Message{Value: data}); err != nil {
		slog.Error("kafka write failed", "err", err)
	}
}

func (k *KafkaCollector) Close() {
	k.writer.Close()
}

type KafkaConsumer struct {
	reader    *kafka.Reader
	begin     beginFunc
	batchSize int
	interval  time.Duration
}

func NewKafkaConsumer(brokers []string, topic string, db *pgxpool.Pool) *KafkaConsumer {
	return &KafkaConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  "visit-stats-consumer",
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
		begin:     poolBeginner(db),
		batchSize: 100,
		interval:  time.Second,
	}
}

func (k *KafkaConsumer) Run(ctx context.Context) {
	batch := make([]VisitEvent, 0, k.batchSize)
	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	msgCh := make(chan VisitEvent, k.batchSize)
	go func() {
		for {
			msg, err := k.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					close(msgCh)
					return
				}
				slog.Error("kafka read failed", "err", err)
				continue
			}
			var event VisitEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				slog.Error("unmarshal visit event failed", "err", err)
				continue
			}
			msgCh <- event
		}
	}()

	for {
		select {
		case <-ctx.Done():
			flush(k.begin, batch)
			return
		case event, ok := <-msgCh:
			if !ok {
				flush(k.begin, batch)
				return
			}
			batch = append(batch, event)
			if len(batch) >= k.batchSize {
				flush(k.begin, batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				flush(k.begin, batch)
				batch = batch[:0]
			}
		}
	}
}

func (k *KafkaConsumer) Close() {
	k.reader.Close()
}
