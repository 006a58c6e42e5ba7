package eventmib

import "time"

// scheduledTrigger is one entry in the engine's deadline-ordered min-heap.
// A removed or disabled trigger is left in place and discarded lazily when
// popped, rather than searched for and removed eagerly — cheaper for a
// scheduler whose entries constantly get pushed back after firing.
type scheduledTrigger struct {
	trigger  *Trigger
	deadline time.Time
	index    int
}

// triggerHeap implements container/heap.Interface ordered by deadline, per
// spec §4.4's cooperative per-trigger-frequency scheduling — not a cron
// library, since the single-threaded tick-driven model (spec §5) rules out
// any scheduler that assumes its own goroutine.
type triggerHeap []*scheduledTrigger

func (h triggerHeap) Len() int { return len(h) }

func (h triggerHeap) Less(i, j int) bool { return h[i].deadline.Before(h[j].deadline) }

func (h triggerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *triggerHeap) Push(x interface{}) {
	item := x.(*scheduledTrigger)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *triggerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
