package bot

import (
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// dispatcher keeps one FIFO queue per actor and at most one goroutine
// draining it. A queue entry exists exactly while its drainer runs.
type dispatcher struct {
	mu      sync.Mutex
	queues  map[int64][]tgbotapi.Update
	handle  func(tgbotapi.Update)
	wg      *sync.WaitGroup
	stopped bool
}

func newDispatcher(wg *sync.WaitGroup, handle func(tgbotapi.Update)) *dispatcher {
	return &dispatcher{queues: make(map[int64][]tgbotapi.Update), handle: handle, wg: wg}
}

func (d *dispatcher) push(actor int64, upd tgbotapi.Update) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	q, running := d.queues[actor]
	d.queues[actor] = append(q, upd)
	d.mu.Unlock()

	if !running {
		d.wg.Add(1)
		go d.drain(actor)
	}
}

// stop drops every queued update and refuses new ones. Handlers already
// running finish on their own.
func (d *dispatcher) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for actor := range d.queues {
		d.queues[actor] = nil
	}
}

func (d *dispatcher) drain(actor int64) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		q := d.queues[actor]
		if len(q) == 0 {
			delete(d.queues, actor)
			d.mu.Unlock()
			return
		}
		upd := q[0]
		d.queues[actor] = q[1:]
		d.mu.Unlock()

		d.handle(upd)
	}
}
