package mqtt

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// Refresher 专科目录重新加载（specialty.Loader）
type Refresher interface {
	Refresh(ctx context.Context) (int, error)
}

// ReloadMessage 重新加载通知；空负载或非 JSON 负载同样触发
type ReloadMessage struct {
	Reason string `json:"reason"`
	Origin string `json:"origin"`
}

// CatalogBroker 订阅目录变更主题并触发重新加载；本实例的重新加载也通过它通知其他实例
type CatalogBroker struct {
	transport Transport
	refresher Refresher
	topic     string
	origin    string // 本实例标识（MQTT client id），用于忽略自己发出的通知
	timeout   time.Duration
	logger    *zap.Logger
}

func NewCatalogBroker(transport Transport, refresher Refresher, topic, origin string, logger *zap.Logger) *CatalogBroker {
	return &CatalogBroker{
		transport: transport,
		refresher: refresher,
		topic:     topic,
		origin:    origin,
		timeout:   30 * time.Second,
		logger:    logger,
	}
}

// Start 订阅主题（QoS 1）
func (b *CatalogBroker) Start() error {
	if err := b.transport.Subscribe(b.topic, 1, b.HandleMessage); err != nil {
		return err
	}
	b.logger.Info("Subscribed to catalog reload topic", zap.String("topic", b.topic))
	return nil
}

// HandleMessage 处理一条重新加载通知
func (b *CatalogBroker) HandleMessage(topic string, payload []byte) error {
	var msg ReloadMessage
	if len(payload) > 0 {
		if err := sonic.Unmarshal(payload, &msg); err != nil {
			b.logger.Debug("Non-JSON reload payload", zap.String("topic", topic), zap.Int("payload_size", len(payload)))
		}
	}

	if msg.Origin != "" && msg.Origin == b.origin {
		b.logger.Debug("Ignoring own catalog reload notice", zap.String("topic", topic))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	n, err := b.refresher.Refresh(ctx)
	if err != nil {
		return err
	}
	b.logger.Info("Specialty catalog reloaded via MQTT",
		zap.String("topic", topic),
		zap.String("reason", msg.Reason),
		zap.String("origin", msg.Origin),
		zap.Int("count", n),
	)
	return nil
}

// Announce 通知其他实例重新加载目录
func (b *CatalogBroker) Announce(reason string) error {
	payload, err := sonic.Marshal(ReloadMessage{Reason: reason, Origin: b.origin})
	if err != nil {
		return fmt.Errorf("failed to marshal reload notice: %w", err)
	}
	return b.transport.Publish(b.topic, 1, false, payload)
}

// Connected broker 连接状态
func (b *CatalogBroker) Connected() bool {
	return b.transport.IsConnected()
}
