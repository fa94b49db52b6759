package queue

import (
	"container/heap"
	"time"

	"github.com/arabella/vidforge/internal/domain/entity"
	"github.com/google/uuid"
)

// heapItem is one ready-to-lease entry in the priority heap.
type heapItem struct {
	entry *entity.QueueEntry
	index int
}

// priorityHeap orders by strictly higher priority first, ties broken by
// earlier EnqueuedAt. container/heap gives O(log n) push/pop, fixing the
// O(n log n) re-sort a ZSET-by-timestamp ordering would need to express
// strict priority rather than insertion time.
type priorityHeap []*heapItem

func (h priorityHeap) Len() int { return len(h) }

func (h priorityHeap) Less(i, j int) bool {
	if h[i].entry.Priority != h[j].entry.Priority {
		return h[i].entry.Priority > h[j].entry.Priority
	}
	return h[i].entry.EnqueuedAt.Before(h[j].entry.EnqueuedAt)
}

func (h priorityHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *priorityHeap) Push(x any) {
	item := x.(*heapItem)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *priorityHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

var _ heap.Interface = (*priorityHeap)(nil)

// initHeap restores heap ordering after entries were appended directly
// (used when rebuilding from a persisted snapshot).
func initHeap(h *priorityHeap) {
	heap.Init(h)
}

func newQueueEntry(jobID uuid.UUID, priority int) *entity.QueueEntry {
	return &entity.QueueEntry{
		JobID:      jobID,
		Priority:   priority,
		EnqueuedAt: time.Now(),
		Status:     entity.QueueEntryPending,
	}
}
