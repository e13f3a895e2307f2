package calc

import (
	"runtime"
	"sync"
)

// PipeLine represents a compute pipeline: a job queue drained by a fixed
// number of poppers, plus fan-out kernels that split work over them.
type PipeLine struct {
	numQueueSize int
	numPoper     int
	jobQueue     chan int
	pushCnt      int64
	pushCntLock  sync.RWMutex
	popCnt       int64
	popCntLock   sync.RWMutex
	closeOnce    sync.Once
}

// Init returns a compute PipeLine. numPoper < 1 means one per CPU.
func Init(numQueueSize int, numPoper int) *PipeLine {
	if numPoper < 1 {
		numPoper = runtime.NumCPU()
	}
	if numQueueSize < 0 {
		numQueueSize = 0
	}

	pl := PipeLine{
		numQueueSize: numQueueSize,
		numPoper:     numPoper,
		jobQueue:     make(chan int, numQueueSize),
	}

	return &pl
}

// GetNP returns the number of poppers
func (p *PipeLine) GetNP() int {
	return p.numPoper
}

// Push pushes a job into the job queue. It blocks while the queue is full.
func (p *PipeLine) Push(jobID int) {
	p.jobQueue <- jobID

	p.pushCntLock.Lock()
	p.pushCnt++
	p.pushCntLock.Unlock()
}

// Pop pops a job from the job queue. ok is false once the queue is closed
// and drained.
func (p *PipeLine) Pop() (jobID int, ok bool) {
	jobID, ok = <-p.jobQueue
	if !ok {
		return 0, false
	}

	p.popCntLock.Lock()
	p.popCnt++
	p.popCntLock.Unlock()

	return jobID, true
}

// Close tells poppers no more jobs will arrive
func (p *PipeLine) Close() {
	p.closeOnce.Do(func() { close(p.jobQueue) })
}

// Counts returns how many jobs were pushed and popped so far
func (p *PipeLine) Counts() (pushed, popped int64) {
	p.pushCntLock.RLock()
	pushed = p.pushCnt
	p.pushCntLock.RUnlock()

	p.popCntLock.RLock()
	popped = p.popCnt
	p.popCntLock.RUnlock()

	return pushed, popped
}

/*
	Workflow:

	Push -> Pop -> ... -> Close
*/

func each(fn func(i int), order <-chan int, wg *sync.WaitGroup) {
	for {
		index, ok := <-order
		if ok {
			fn(index)
			wg.Done()
		} else {
			break
		}
	}
}

// Each calls fn(i) for i in [0, n) spread over the poppers and waits
func (p *PipeLine) Each(n int, fn func(i int)) {
	if n <= 0 {
		return
	}

	workers := p.numPoper
	if workers > n {
		workers = n
	}

	order := make(chan int, workers)
	var wg sync.WaitGroup

	wg.Add(n)

	for i := 0; i < workers; i++ {
		go each(fn, order, &wg)
	}

	for i := 0; i < n; i++ {
		order <- i
	}

	wg.Wait()
	close(order)
}

// chunks splits [0, n) into at most numPoper contiguous ranges
func (p *PipeLine) chunks(n int) [][2]int {
	parts := p.numPoper
	if parts > n {
		parts = n
	}
	if parts < 1 {
		return nil
	}

	size := (n + parts - 1) / parts
	var ranges [][2]int
	for lo := 0; lo < n; lo += size {
		hi := lo + size
		if hi > n {
			hi = n
		}
		ranges = append(ranges, [2]int{lo, hi})
	}
	return ranges
}
