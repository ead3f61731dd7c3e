package autosave

import "sync"

type item struct {
	outcome Outcome
	// ack, when set, marks a flush barrier instead of an outcome.
	ack chan struct{}
}

// dispatcher delivers outcomes in order without ever blocking the scheduler.
type dispatcher struct {
	fn func(Outcome)

	mu     sync.Mutex
	queue  []item
	closed bool
	signal chan struct{}
	done   chan struct{}
}

func newDispatcher(fn func(Outcome)) *dispatcher {
	d := &dispatcher{
		fn:     fn,
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *dispatcher) push(o Outcome) {
	if d.fn == nil {
		return
	}
	d.enqueue(item{outcome: o})
}

func (d *dispatcher) enqueue(it item) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	d.queue = append(d.queue, it)
	select {
	case d.signal <- struct{}{}:
	default:
	}
	return true
}

// flush returns once every outcome pushed before it has been handled. It must
// not be called from fn.
func (d *dispatcher) flush() {
	if d.fn == nil {
		return
	}
	ack := make(chan struct{})
	if !d.enqueue(item{ack: ack}) {
		return
	}
	select {
	case <-ack:
	case <-d.done:
	}
}

func (d *dispatcher) loop() {
	defer close(d.done)
	for range d.signal {
		for {
			d.mu.Lock()
			if len(d.queue) == 0 {
				d.mu.Unlock()
				break
			}
			it := d.queue[0]
			d.queue = d.queue[1:]
			d.mu.Unlock()

			if it.ack != nil {
				close(it.ack)
				continue
			}
			d.fn(it.outcome)
		}
	}
}

// close delivers what is queued and stops the loop.
func (d *dispatcher) close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.signal)
	d.mu.Unlock()
	<-d.done
}
