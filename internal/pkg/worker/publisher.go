package worker

import (
	"context"
	"sync"
	"time"

	"community_hub/internal/pkg/realtime"
	"community_hub/pkg/logger"

	"go.uber.org/zap"
)

type eventTask struct {
	event realtime.Event
	retry int // 重试次数
}

// EventPublisher 异步事件发布池
// 业务写操作成功后把变更事件丢进队列就返回，发布失败按次数退避重试，
// 超限后进死信日志。队列满直接丢 —— 订阅端语义是提醒重拉，不是可靠投递
type EventPublisher struct {
	taskQueue  chan eventTask
	retryQueue chan eventTask
	hub        *realtime.Hub
	workerNum  int
	maxRetry   int

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewEventPublisher(hub *realtime.Hub, workerNum, bufferSize int) *EventPublisher {
	if workerNum <= 0 {
		workerNum = 4
	}
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	return &EventPublisher{
		taskQueue:  make(chan eventTask, bufferSize),
		retryQueue: make(chan eventTask, bufferSize/2),
		hub:        hub,
		workerNum:  workerNum,
		maxRetry:   3,
		stop:       make(chan struct{}),
	}
}

func (p *EventPublisher) Start() {
	p.wg.Add(p.workerNum + 1)
	for i := 0; i < p.workerNum; i++ {
		go p.worker(i)
	}
	go p.retryWorker()
	logger.Log.Info("event publisher started", zap.Int("workers", p.workerNum))
}

// Stop 停止接收新任务，排空已入队的事件后返回
func (p *EventPublisher) Stop() {
	close(p.stop)
	p.wg.Wait()
}

// Publish 实现 realtime.Publisher
func (p *EventPublisher) Publish(ev realtime.Event) {
	select {
	case p.taskQueue <- eventTask{event: ev}:
	default:
		logger.Log.Warn("event queue full, dropping event",
			zap.String("table", ev.Table), zap.String("rowId", ev.RowID))
	}
}

func (p *EventPublisher) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stop:
			p.drain(id)
			return
		case task := <-p.taskQueue:
			p.handle(id, task, true)
		}
	}
}

// drain 关闭阶段把队列里剩下的事件发完，失败不再重试
func (p *EventPublisher) drain(id int) {
	for {
		select {
		case task := <-p.taskQueue:
			p.handle(id, task, false)
		default:
			return
		}
	}
}

func (p *EventPublisher) handle(id int, task eventTask, allowRetry bool) {
	err := p.process(task)
	if err == nil {
		return
	}

	logger.Log.Warn("publish event failed",
		zap.Int("worker", id),
		zap.String("table", task.event.Table),
		zap.Int("attempt", task.retry),
		zap.Error(err))

	if allowRetry && task.retry < p.maxRetry {
		task.retry++
		select {
		case p.retryQueue <- task:
			return
		default:
		}
	}
	p.logDeadLetter(task, err)
}

func (p *EventPublisher) retryWorker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stop:
			// 等待重发的事件已经失败过一次，关闭时直接进死信
			for {
				select {
				case task := <-p.retryQueue:
					p.logDeadLetter(task, nil)
				default:
					return
				}
			}
		case task := <-p.retryQueue:
			// 退避后重回主队列
			time.Sleep(time.Duration(task.retry) * time.Second)
			select {
			case p.taskQueue <- task:
			default:
				p.logDeadLetter(task, nil)
			}
		}
	}
}

func (p *EventPublisher) process(task eventTask) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return p.hub.PublishSync(ctx, task.event)
}

func (p *EventPublisher) logDeadLetter(task eventTask, err error) {
	logger.Log.Error("event dropped permanently",
		zap.String("table", task.event.Table),
		zap.String("action", string(task.event.Action)),
		zap.String("rowId", task.event.RowID),
		zap.Error(err))
}
