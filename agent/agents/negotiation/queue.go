package negotiation

import "sync"

// turnQueue serializes work per key in arrival order. Keys are independent.
type turnQueue struct {
	mu    sync.Mutex
	lines map[string]*ticketLine
}

type ticketLine struct {
	mu      sync.Mutex
	cond    *sync.Cond
	next    uint64
	serving uint64
	waiting int
}

func newTurnQueue() *turnQueue {
	return &turnQueue{lines: make(map[string]*ticketLine)}
}

// acquire blocks until every earlier caller for key has released.
func (q *turnQueue) acquire(key string) (release func()) {
	q.mu.Lock()
	line, ok := q.lines[key]
	if !ok {
		line = &ticketLine{}
		line.cond = sync.NewCond(&line.mu)
		q.lines[key] = line
	}
	line.waiting++
	q.mu.Unlock()

	line.mu.Lock()
	ticket := line.next
	line.next++
	for line.serving != ticket {
		line.cond.Wait()
	}
	line.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			line.mu.Lock()
			line.serving++
			line.cond.Broadcast()
			line.mu.Unlock()

			q.mu.Lock()
			line.waiting--
			if line.waiting == 0 {
				delete(q.lines, key)
			}
			q.mu.Unlock()
		})
	}
}
