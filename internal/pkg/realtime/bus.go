package realtime

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Bus 变更事件总线
// 生产环境走 Redis pub/sub，多实例部署时事件能跨进程到达；
// 测试用内存实现
type Bus interface {
	// Publish 向指定频道广播
	Publish(ctx context.Context, channel string, payload []byte) error
	// Subscribe 订阅频道，返回消息流和取消函数
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// RedisBus Redis pub/sub 实现
// go-redis 的 PubSub 自带断线重连 (指数退避)，掉线期间的消息会丢，
// 订阅端的兜底语义是全量重拉，所以可以接受
type RedisBus struct {
	client *redis.Client
}

func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{client: client}
}

func (b *RedisBus) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.client.Publish(ctx, channel, payload).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error) {
	ps := b.client.Subscribe(ctx, channel)

	// 确认订阅建立，失败立刻暴露给调用方
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, err
	}

	out := make(chan []byte, 64)
	go func() {
		defer close(out)
		for msg := range ps.Channel() {
			out <- []byte(msg.Payload)
		}
	}()

	cancel := func() { _ = ps.Close() }
	return out, cancel, nil
}

// MemoryBus 进程内总线，仅测试使用
type MemoryBus struct {
	mu   sync.Mutex
	subs map[string][]chan []byte
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string][]chan []byte)}
}

func (b *MemoryBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	targets := make([]chan []byte, len(b.subs[channel]))
	copy(targets, b.subs[channel])
	b.mu.Unlock()

	for _, ch := range targets {
		ch <- payload
	}
	return nil
}

func (b *MemoryBus) Subscribe(_ context.Context, channel string) (<-chan []byte, func(), error) {
	ch := make(chan []byte, 64)

	b.mu.Lock()
	b.subs[channel] = append(b.subs[channel], ch)
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[channel]
		for i, c := range list {
			if c == ch {
				b.subs[channel] = append(list[:i], list[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel, nil
}
