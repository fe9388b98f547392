// Package queue provides the priority queue of ready tasks awaiting dispatch.
package queue

import (
	"container/heap"
	"sync"

	"github.com/ShayCichocki/taskforge/pkg/models"
)

// item is a queued task reference with its ordering keys.
type item struct {
	taskID   string
	priority models.TaskPriority
	// seq is a monotonically increasing insertion counter.
	// Within a priority class, lower seq dispatches first (FIFO).
	seq uint64
}

// taskHeap orders items by priority descending, then insertion order ascending.
type taskHeap []item

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x interface{}) { *h = append(*h, x.(item)) }

func (h *taskHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// ReadyQueue is a thread-safe max-priority queue of ready task IDs.
// URGENT tasks dispatch before HIGH before NORMAL before LOW; within a
// priority class, tasks dispatch in insertion order.
type ReadyQueue struct {
	mu    sync.Mutex
	items taskHeap
	seq   uint64
}

// New creates an empty ReadyQueue.
func New() *ReadyQueue {
	return &ReadyQueue{}
}

// Push adds a task to the queue with the given priority.
func (q *ReadyQueue) Push(taskID string, priority models.TaskPriority) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.seq++
	heap.Push(&q.items, item{taskID: taskID, priority: priority, seq: q.seq})
}

// Requeue re-inserts a task while preserving its original position within
// its priority class. Used when no agent was available: the task must not
// lose its place to later submissions of the same priority.
func (q *ReadyQueue) Requeue(taskID string, priority models.TaskPriority, seq uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	heap.Push(&q.items, item{taskID: taskID, priority: priority, seq: seq})
}

// Pop removes and returns the highest-priority task ID along with its
// insertion sequence. Returns ok=false if the queue is empty.
func (q *ReadyQueue) Pop() (taskID string, priority models.TaskPriority, seq uint64, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return "", 0, 0, false
	}
	it := heap.Pop(&q.items).(item)
	return it.taskID, it.priority, it.seq, true
}

// Len returns the number of queued tasks.
func (q *ReadyQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
