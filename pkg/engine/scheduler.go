package engine

import "fmt"

// task is one low-rate consumer hanging off the audio-block clock.
type task struct {
	name           string
	blocksPerFrame int
	counter        int
	fn             func()
}

// Scheduler fans the audio-block tick out to lower-rate consumers
// (display, LEDs, menu). Each consumer owns a countdown counter that is
// re-armed the moment it fires, so the effective rate is an exact
// integer divisor of the block rate with no wall-clock drift.
type Scheduler struct {
	tasks []task
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Add registers a consumer that should fire at roughly consumerRate Hz.
// The actual period is floor(audioRate / (blockSize * consumerRate))
// blocks. Consumer rates faster than the block rate are a setup error.
func (s *Scheduler) Add(name string, audioRate float64, blockSize int, consumerRate float64, fn func()) error {
	if consumerRate <= 0 || blockSize <= 0 || audioRate <= 0 {
		return fmt.Errorf("scheduler task %s: rates must be positive", name)
	}
	blocks := int(audioRate / (float64(blockSize) * consumerRate))
	if blocks < 1 {
		return fmt.Errorf("scheduler task %s: rate %.1f Hz exceeds block rate %.1f Hz",
			name, consumerRate, audioRate/float64(blockSize))
	}
	s.tasks = append(s.tasks, task{
		name:           name,
		blocksPerFrame: blocks,
		counter:        blocks,
		fn:             fn,
	})
	return nil
}

// Tick advances all counters by one block. Consumers fire synchronously
// inside the block that scheduled them and never concurrently.
func (s *Scheduler) Tick() {
	for i := range s.tasks {
		t := &s.tasks[i]
		t.counter--
		if t.counter == 0 {
			t.counter = t.blocksPerFrame
			t.fn()
		}
	}
}

// BlocksPerFrame returns the period of the named task, or 0 if unknown.
func (s *Scheduler) BlocksPerFrame(name string) int {
	for i := range s.tasks {
		if s.tasks[i].name == name {
			return s.tasks[i].blocksPerFrame
		}
	}
	return 0
}
