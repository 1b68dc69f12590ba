// Package messaging 记录变更事件的发布实现
package messaging

import (
	"context"
	"strconv"

	"github.com/wyfcoding/marketquery/internal/marketdata/domain"
	"github.com/wyfcoding/marketquery/pkg/logger"
)

// MessageSender 消息发送接口，由 mq.KafkaProducer 实现
type MessageSender interface {
	SendMessage(ctx context.Context, topic, key string, value any) error
}

// KafkaPublisher 将事件发送到 <prefix>.<entity> 主题，以业务主键作为消息 key
type KafkaPublisher struct {
	sender      MessageSender
	topicPrefix string
}

// NewKafkaPublisher 创建 Kafka 事件发布者
func NewKafkaPublisher(sender MessageSender, topicPrefix string) *KafkaPublisher {
	return &KafkaPublisher{sender: sender, topicPrefix: topicPrefix}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event *domain.RecordEvent) error {
	return p.sender.SendMessage(ctx, p.Topic(event.Entity), strconv.FormatInt(event.Key, 10), event)
}

// Topic 实体对应的主题名
func (p *KafkaPublisher) Topic(entity string) string {
	if p.topicPrefix == "" {
		return entity
	}
	return p.topicPrefix + "." + entity
}

// LogPublisher 未配置 Kafka 时只记录日志
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, event *domain.RecordEvent) error {
	logger.Info(ctx, "record event",
		"event_id", event.EventID,
		"entity", event.Entity,
		"action", string(event.Action),
		"key", event.Key,
	)
	return nil
}
