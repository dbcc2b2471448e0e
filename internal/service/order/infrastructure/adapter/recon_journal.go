package adapter

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"meridian/internal/pkg/logger"
	"meridian/internal/service/order/port"
)

// ReconKafkaJournal 把对账缺口异步写入 Kafka 供带外对账进程消费。
// 写入失败只记日志,绝不反过来拖垮主流程。
type ReconKafkaJournal struct {
	writer *kafka.Writer
}

func NewReconKafkaJournal(brokers []string, topic string) *ReconKafkaJournal {
	return &ReconKafkaJournal{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        true,
		},
	}
}

func (j *ReconKafkaJournal) Record(ctx context.Context, entry port.ReconciliationEntry) {
	value, err := json.Marshal(entry)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("reconciliation entry could not be encoded")
		return
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(entry.OrderID, 10)),
		Value: value,
		Time:  time.Now(),
	}
	if err := j.writer.WriteMessages(ctx, msg); err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("entry_id", entry.ID).
			Msg("reconciliation entry could not be published")
	}
}

func (j *ReconKafkaJournal) Close() error { return j.writer.Close() }

// LogJournal 在未配置 Kafka 时兜底,把缺口完整打进结构化日志。
type LogJournal struct{}

func (LogJournal) Record(ctx context.Context, entry port.ReconciliationEntry) {
	logger.Ctx(ctx).Error().
		Str("entry_id", entry.ID).
		Uint64("order_id", entry.OrderID).
		Int64("item_id", entry.ItemID).
		Int("quantity", entry.Quantity).
		Str("direction", string(entry.Direction)).
		Str("reason", entry.Reason).
		Time("occurred_at", entry.OccurredAt).
		Msg("reconciliation gap (no journal configured)")
}
