package worker

import (
	"context"
	"log"
	"time"
)

// Task is a unit of deferred work, typically a mirror write that must not
// block the request path.
type Task struct {
	Name  string
	Fn    func(ctx context.Context) error
	Retry int // attempts so far
}

// Pool runs tasks on a fixed set of workers with a bounded retry queue.
type Pool struct {
	TaskQueue  chan Task
	RetryQueue chan Task
	WorkerNum  int
	MaxRetry   int
}

// NewPool creates a pool. Tasks are dropped when both queues are full.
func NewPool(workerNum, bufferSize int) *Pool {
	if workerNum <= 0 {
		workerNum = 4
	}
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Pool{
		TaskQueue:  make(chan Task, bufferSize),
		RetryQueue: make(chan Task, bufferSize/2),
		WorkerNum:  workerNum,
		MaxRetry:   3,
	}
}

// Start launches the workers and the retry loop.
func (p *Pool) Start() {
	for i := 0; i < p.WorkerNum; i++ {
		go p.worker(i)
	}
	go p.retryWorker()
	log.Printf("Worker pool started with %d workers", p.WorkerNum)
}

func (p *Pool) worker(id int) {
	for task := range p.TaskQueue {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := task.Fn(ctx)
		cancel()
		if err == nil {
			continue
		}

		log.Printf("[Worker %d] Task %q failed: %v", id, task.Name, err)

		if task.Retry < p.MaxRetry {
			task.Retry++
			select {
			case p.RetryQueue <- task:
			default:
				log.Printf("[Worker %d] Retry queue full, task dropped: %s", id, task.Name)
				p.logFailedTask(task, err)
			}
		} else {
			log.Printf("[Worker %d] Task exceeded max retries, dropped: %s", id, task.Name)
			p.logFailedTask(task, err)
		}
	}
}

func (p *Pool) retryWorker() {
	for task := range p.RetryQueue {
		// Back off before re-queueing, scaled by attempt count.
		time.Sleep(time.Duration(task.Retry) * time.Second)

		select {
		case p.TaskQueue <- task:
		default:
			log.Printf("[RetryWorker] Main queue full, task dropped: %s", task.Name)
			p.logFailedTask(task, nil)
		}
	}
}

func (p *Pool) logFailedTask(task Task, err error) {
	log.Printf("[DeadLetter] Task failed permanently: name=%s, error=%v", task.Name, err)
}

// Submit enqueues a task, dropping it when the queue is full.
func (p *Pool) Submit(task Task) {
	select {
	case p.TaskQueue <- task:
	default:
		log.Printf("Worker pool queue full, dropping task: %s", task.Name)
		p.logFailedTask(task, nil)
	}
}
