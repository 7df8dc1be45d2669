package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dyzdyz010/voxworld/internal/logging"
	nats "github.com/nats-io/nats.go"
)

// NatsInvalidator оборачивает CacheRepo рассылкой инвалидаций между
// узлами через NATS. Чтения и записи идут в нижележащий кеш напрямую;
// удаление ключа дополнительно публикуется остальным узлам, чтобы те
// выкинули устаревшую сводку из своих кешей. Свои сообщения узел
// пропускает по имени.
type NatsInvalidator struct {
	nc    *nats.Conn
	sub   *nats.Subscription
	inner CacheRepo
	node  string
}

const invalidateSubject = "voxworld.cache.invalidate"

// Формат сообщения: node\x00key
func encodeInvalidate(node, key string) []byte {
	return []byte(node + "\x00" + key)
}

func decodeInvalidate(data []byte) (node, key string, ok bool) {
	for i, b := range data {
		if b == 0 {
			return string(data[:i]), string(data[i+1:]), true
		}
	}
	return "", "", false
}

// NewNatsInvalidator подключается к NATS и подписывается на инвалидации
func NewNatsInvalidator(url, node string, inner CacheRepo) (*NatsInvalidator, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	ni := &NatsInvalidator{nc: nc, inner: inner, node: node}
	sub, err := nc.Subscribe(invalidateSubject, ni.handle)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("nats subscribe: %w", err)
	}
	ni.sub = sub

	logging.Info("NatsInvalidator запущен: node=%s", node)
	return ni, nil
}

func (ni *NatsInvalidator) handle(msg *nats.Msg) {
	node, key, ok := decodeInvalidate(msg.Data)
	if !ok || node == ni.node {
		return
	}
	if err := ni.inner.Delete(context.Background(), key); err != nil {
		logging.Warn("NatsInvalidator: удаление %s: %v", key, err)
	}
}

// Get читает из нижележащего кеша
func (ni *NatsInvalidator) Get(ctx context.Context, key string) ([]byte, error) {
	return ni.inner.Get(ctx, key)
}

// Set пишет в нижележащий кеш
func (ni *NatsInvalidator) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return ni.inner.Set(ctx, key, value, ttl)
}

// Delete удаляет ключ локально и рассылает инвалидацию остальным узлам
func (ni *NatsInvalidator) Delete(ctx context.Context, key string) error {
	if err := ni.inner.Delete(ctx, key); err != nil {
		return err
	}
	if err := ni.nc.Publish(invalidateSubject, encodeInvalidate(ni.node, key)); err != nil {
		logging.Warn("NatsInvalidator: рассылка инвалидации %s: %v", key, err)
	}
	return nil
}

// Metrics метрики нижележащего кеша
func (ni *NatsInvalidator) Metrics() CacheMetrics {
	return ni.inner.Metrics()
}

// Close останавливает подписку и закрывает соединение.
// Нижележащий кеш закрывается его владельцем.
func (ni *NatsInvalidator) Close() error {
	if err := ni.sub.Unsubscribe(); err != nil {
		return err
	}
	ni.nc.Close()
	return nil
}
