package app

import (
	"context"
	"sync"
	"time"

	"journey/internal/domain"
)

type pushJob struct {
	account string
	state   domain.State
}

// Pusher runs remote pushes on a single background worker so that pushes
// start in the order they were submitted. Submit never blocks on the network.
type Pusher struct {
	push    func(ctx context.Context, account string, state domain.State)
	timeout time.Duration

	mu      sync.Mutex
	queue   []pushJob
	closed  bool
	wake    chan struct{}
	pending sync.WaitGroup
	done    chan struct{}
}

// NewPusher starts the worker. Each push gets its own context bounded by
// timeout.
func NewPusher(timeout time.Duration, push func(ctx context.Context, account string, state domain.State)) *Pusher {
	p := &Pusher{
		push:    push,
		timeout: timeout,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// Submit queues a push. It reports false once the pusher is closed.
func (p *Pusher) Submit(account string, state domain.State) bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	p.pending.Add(1)
	p.queue = append(p.queue, pushJob{account: account, state: state})
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
	return true
}

// Wait blocks until every submitted push has finished.
func (p *Pusher) Wait() {
	p.pending.Wait()
}

// Close drains the queue and stops the worker.
func (p *Pusher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.done
		return
	}
	p.closed = true
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
	<-p.done
}

func (p *Pusher) run() {
	defer close(p.done)
	for {
		p.mu.Lock()
		if len(p.queue) == 0 {
			closed := p.closed
			p.mu.Unlock()
			if closed {
				return
			}
			<-p.wake
			continue
		}
		job := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		p.push(ctx, job.account, job.state)
		cancel()
		p.pending.Done()
	}
}
