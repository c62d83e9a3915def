package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"community_hub/pkg/logger"
	"community_hub/pkg/metrics"

	"go.uber.org/zap"
)

// Hub 订阅多路复用器
//
// 每张表无论本地有多少个订阅者，对总线只保持一条订阅；
// 第一个对某表感兴趣的订阅者建立总线连接，最后一个退订时断开。
// 事件按 (表, 过滤器) 分发到各订阅者的私有队列，慢消费者丢事件，
// 不阻塞分发循环 —— 订阅者收到事件后本来就是按需重拉，丢一条无碍。
type Hub struct {
	bus           Bus
	channelPrefix string
	queueSize     int

	mu       sync.Mutex
	watchers map[string]*tableWatcher
}

// tableWatcher 一张表对应的总线订阅
type tableWatcher struct {
	cancel func()
	subs   map[*Subscription]struct{}
}

// Subscription 一个本地订阅
type Subscription struct {
	Topic Topic
	C     chan Event

	hub  *Hub
	once sync.Once
}

// Close 退订。幂等，断开连接的 SSE handler 和 defer 都会调
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.unsubscribe(s)
	})
}

func NewHub(bus Bus, channelPrefix string, queueSize int) *Hub {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Hub{
		bus:           bus,
		channelPrefix: channelPrefix,
		queueSize:     queueSize,
		watchers:      make(map[string]*tableWatcher),
	}
}

func (h *Hub) channelFor(table string) string {
	return h.channelPrefix + ":" + table
}

// Subscribe 注册对 (表, 过滤器) 的兴趣
func (h *Hub) Subscribe(topic Topic) (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	w, ok := h.watchers[topic.Table]
	if !ok {
		msgs, cancel, err := h.bus.Subscribe(context.Background(), h.channelFor(topic.Table))
		if err != nil {
			return nil, err
		}
		w = &tableWatcher{
			cancel: cancel,
			subs:   make(map[*Subscription]struct{}),
		}
		h.watchers[topic.Table] = w
		go h.dispatch(topic.Table, msgs)
	}

	sub := &Subscription{
		Topic: topic,
		C:     make(chan Event, h.queueSize),
		hub:   h,
	}
	w.subs[sub] = struct{}{}
	metrics.GetGlobalCollector().SubscriberAdded()

	return sub, nil
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	w, ok := h.watchers[sub.Topic.Table]
	if !ok {
		return
	}
	if _, ok := w.subs[sub]; !ok {
		return
	}

	delete(w.subs, sub)
	close(sub.C)
	metrics.GetGlobalCollector().SubscriberRemoved()

	// 引用计数归零，断开该表的总线订阅
	if len(w.subs) == 0 {
		w.cancel()
		delete(h.watchers, sub.Topic.Table)
	}
}

// dispatch 表级分发循环，总线订阅关闭后退出
func (h *Hub) dispatch(table string, msgs <-chan []byte) {
	for payload := range msgs {
		var ev Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			if logger.Log != nil {
				logger.Log.Warn("realtime: malformed event",
					zap.String("table", table), zap.Error(err))
			}
			continue
		}

		h.mu.Lock()
		w, ok := h.watchers[table]
		if !ok {
			// 最后一个订阅者刚退订，等总线流关闭即可
			h.mu.Unlock()
			continue
		}
		for sub := range w.subs {
			if !sub.Topic.Matches(ev) {
				continue
			}
			select {
			case sub.C <- ev:
			default:
				metrics.GetGlobalCollector().RecordDropped()
			}
		}
		h.mu.Unlock()
	}
}

// PublishSync 同步发布一条事件到总线
// 业务代码不直接调它，统一走带重试的 worker (internal/pkg/worker)
func (h *Hub) PublishSync(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := h.bus.Publish(ctx, h.channelFor(ev.Table), payload); err != nil {
		return err
	}
	metrics.GetGlobalCollector().RecordEvent(ev.Table, string(ev.Action))
	return nil
}
