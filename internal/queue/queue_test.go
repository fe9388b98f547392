package queue

import (
	"fmt"
	"testing"

	"github.com/ShayCichocki/taskforge/pkg/models"
)

func TestPopEmpty(t *testing.T) {
	q := New()

	_, _, _, ok := q.Pop()
	if ok {
		t.Error("expected ok=false on empty queue")
	}
}

func TestPriorityOrdering(t *testing.T) {
	q := New()
	q.Push("low", models.PriorityLow)
	q.Push("urgent", models.PriorityUrgent)
	q.Push("normal", models.PriorityNormal)
	q.Push("high", models.PriorityHigh)

	want := []string{"urgent", "high", "normal", "low"}
	for _, expected := range want {
		id, _, _, ok := q.Pop()
		if !ok {
			t.Fatal("queue drained early")
		}
		if id != expected {
			t.Errorf("expected %s, got %s", expected, id)
		}
	}
}

func TestFIFOWithinPriorityClass(t *testing.T) {
	q := New()
	for i := 0; i < 10; i++ {
		q.Push(fmt.Sprintf("task-%d", i), models.PriorityNormal)
	}

	for i := 0; i < 10; i++ {
		id, _, _, ok := q.Pop()
		if !ok {
			t.Fatal("queue drained early")
		}
		expected := fmt.Sprintf("task-%d", i)
		if id != expected {
			t.Errorf("expected %s, got %s", expected, id)
		}
	}
}

func TestRequeuePreservesPosition(t *testing.T) {
	q := New()
	q.Push("first", models.PriorityNormal)
	q.Push("second", models.PriorityNormal)

	// Pop "first", then requeue it with its original sequence.
	id, prio, seq, _ := q.Pop()
	if id != "first" {
		t.Fatalf("expected first, got %s", id)
	}

	q.Push("third", models.PriorityNormal)
	q.Requeue(id, prio, seq)

	// After requeue, "first" should still come out before "second" and "third".
	id, _, _, _ = q.Pop()
	if id != "first" {
		t.Errorf("expected requeued task to keep its position, got %s", id)
	}
}

func TestLen(t *testing.T) {
	q := New()
	if q.Len() != 0 {
		t.Errorf("expected empty queue, got %d", q.Len())
	}

	q.Push("a", models.PriorityLow)
	q.Push("b", models.PriorityHigh)
	if q.Len() != 2 {
		t.Errorf("expected len 2, got %d", q.Len())
	}

	q.Pop()
	if q.Len() != 1 {
		t.Errorf("expected len 1 after pop, got %d", q.Len())
	}
}
