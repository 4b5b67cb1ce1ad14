package threadpool

import "sync"

// OrderedConsumer runs producer(i) for every i in [first, last) on the
// pool's workers, but calls consumer(item) in strictly increasing i
// order from whichever goroutine happens to produce the item the
// consumer is waiting for ("a thread that produces the item currently
// awaited by the consumer becomes the consumer and drains contiguous
// produced slots, then resumes producing").
//
// Guarantees:
//   - consumer is called exactly once per i, in order;
//   - at most maxPendingPerWorker*workers items are buffered awaiting
//     consumption at any time (producers block once the ring is full);
//   - every producer has returned before OrderedConsumer returns.
//
// This is the primitive the caller uses to plan layers in parallel while
// still emitting them to a downstream consumer (e.g. a gcode writer) in
// layer order (spec §5).
func (p *Pool) OrderedConsumer(first, last int, producer func(i int) any, consumer func(item any), maxPendingPerWorker int) {
	if last <= first {
		return
	}
	if maxPendingPerWorker < 1 {
		maxPendingPerWorker = 1
	}
	maxPending := maxPendingPerWorker * p.workers
	if maxPending < 1 {
		maxPending = 1
	}

	oc := &orderedConsumerState{
		producer:   producer,
		consumer:   consumer,
		maxPending: maxPending,
		queue:      make([]slot, maxPending),
		writeIdx:   first,
		readIdx:    first,
		waitIdx:    first,
		lastIdx:    last,
	}

	var wg sync.WaitGroup
	workers := p.workers
	if workers < 1 {
		workers = 1
	}
	// The calling goroutine is one of the workers.
	wg.Add(workers - 1)
	for i := 1; i < workers; i++ {
		go func() {
			defer wg.Done()
			oc.worker()
		}()
	}
	oc.worker()
	wg.Wait()
}

type slot struct {
	filled bool
	item   any
}

type orderedConsumerState struct {
	mu   sync.Mutex
	cond sync.Cond

	producer func(i int) any
	consumer func(item any)

	maxPending int
	queue      []slot

	writeIdx int // next index to produce
	readIdx  int // next index to consume
	waitIdx  int // first index the consumer is waiting on
	lastIdx  int
}

func (oc *orderedConsumerState) condVar() *sync.Cond {
	if oc.cond.L == nil {
		oc.cond.L = &oc.mu
	}
	return &oc.cond
}

// wait blocks until there is either free space to produce into, or work
// is complete. Returns false when work is done.
func (oc *orderedConsumerState) wait() bool {
	cond := oc.condVar()
	for {
		if oc.writeIdx >= oc.lastIdx {
			return false
		}
		if oc.writeIdx-oc.readIdx < oc.maxPending {
			return true
		}
		cond.Wait()
	}
}

func (oc *orderedConsumerState) produce() int {
	idx := oc.writeIdx
	oc.writeIdx++
	oc.mu.Unlock()
	item := oc.producer(idx)
	oc.mu.Lock()
	oc.queue[idx%oc.maxPending] = slot{filled: true, item: item}
	return idx
}

func (oc *orderedConsumerState) consumeMany() {
	cond := oc.condVar()
	for {
		s := oc.queue[oc.readIdx%oc.maxPending]
		if !s.filled {
			break
		}
		item := s.item
		oc.mu.Unlock()
		oc.consumer(item)
		oc.mu.Lock()

		oc.queue[oc.readIdx%oc.maxPending] = slot{}
		queueWasFull := oc.writeIdx-oc.readIdx >= oc.maxPending
		oc.readIdx++
		if queueWasFull {
			cond.Signal()
		}
	}
	oc.waitIdx = oc.readIdx
}

func (oc *orderedConsumerState) worker() {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	for oc.wait() {
		idx := oc.produce()
		if idx == oc.waitIdx {
			oc.consumeMany()
		}
	}
	oc.condVar().Broadcast()
}
