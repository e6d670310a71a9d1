// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package blocking_test

import (
	"context"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/korutex/utility/blocking"
)

func TestQueueFIFO(t *testing.T) {
	c := qt.New(t)
	q := blocking.NewQueue[int]()
	for idx := 0; idx < 10; idx++ {
		c.Assert(q.Push(idx, false), qt.IsTrue)
	}
	for idx := 0; idx < 10; idx++ {
		v, ok := q.TryPop()
		c.Assert(ok, qt.IsTrue)
		c.Assert(v, qt.Equals, idx)
	}
	_, ok := q.TryPop()
	c.Assert(ok, qt.IsFalse)
	c.Assert(q.Empty(), qt.IsTrue)
}

func TestQueuePushDedupe(t *testing.T) {
	c := qt.New(t)
	q := blocking.NewQueue[string]()

	c.Assert(q.Push("a.png", true), qt.IsTrue)
	c.Assert(q.Push("a.png", true), qt.IsFalse)
	c.Assert(q.Len(), qt.Equals, 1)

	c.Assert(q.Push("a.png", false), qt.IsTrue)
	c.Assert(q.Len(), qt.Equals, 2)
}

func TestQueueErase(t *testing.T) {
	c := qt.New(t)
	q := blocking.NewQueue[string]()
	for _, k := range []string{"a", "b", "a", "c", "a"} {
		q.Push(k, false)
	}

	c.Assert(q.Erase("a"), qt.IsTrue)
	c.Assert(q.Len(), qt.Equals, 4)
	c.Assert(q.EraseAll("a"), qt.Equals, 2)
	c.Assert(q.Contains("a"), qt.IsFalse)
	c.Assert(q.Erase("missing"), qt.IsFalse)

	var order []string
	for !q.Empty() {
		v, _ := q.TryPop()
		order = append(order, v)
	}
	c.Assert(order, qt.DeepEquals, []string{"b", "c"})
}

func TestQueueWaitAndPopBlocks(t *testing.T) {
	c := qt.New(t)
	q := blocking.NewQueue[int]()

	got := make(chan int, 1)
	go func() {
		v, err := q.WaitAndPop(context.Background())
		if err == nil {
			got <- v
		}
	}()

	select {
	case <-got:
		c.Fatal("WaitAndPop returned before anything was pushed")
	case <-time.After(20 * time.Millisecond):
	}

	q.Push(42, false)
	select {
	case v := <-got:
		c.Assert(v, qt.Equals, 42)
	case <-time.After(time.Second):
		c.Fatal("WaitAndPop was not woken by Push")
	}
}

func TestQueueCloseWakesWaiters(t *testing.T) {
	c := qt.New(t)
	q := blocking.NewQueue[int]()

	const waiters = 4
	errs := make(chan error, waiters)
	for idx := 0; idx < waiters; idx++ {
		go func() {
			_, err := q.WaitAndPop(context.Background())
			errs <- err
		}()
	}

	time.Sleep(10 * time.Millisecond)
	q.Close()
	for idx := 0; idx < waiters; idx++ {
		select {
		case err := <-errs:
			c.Assert(err, qt.Equals, blocking.ErrClosed)
		case <-time.After(time.Second):
			c.Fatal("waiter not released by Close")
		}
	}
	c.Assert(q.Push(1, false), qt.IsFalse)
}

func TestQueueWaitAndPopContext(t *testing.T) {
	c := qt.New(t)
	q := blocking.NewQueue[int]()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.WaitAndPop(ctx)
	c.Assert(err, qt.Equals, context.DeadlineExceeded)
}

func TestQueueConcurrentProducersConsumers(t *testing.T) {
	const (
		producers = 8
		consumers = 8
		perWorker = 500
	)

	q := blocking.NewQueue[int]()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mutex sync.Mutex
		seen  = make(map[int]int)
		cwg   sync.WaitGroup
	)
	for idx := 0; idx < consumers; idx++ {
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			for {
				v, err := q.WaitAndPop(ctx)
				if err != nil {
					return
				}
				mutex.Lock()
				seen[v]++
				mutex.Unlock()
			}
		}()
	}

	var pwg sync.WaitGroup
	for p := 0; p < producers; p++ {
		pwg.Add(1)
		go func(p int) {
			defer pwg.Done()
			for idx := 0; idx < perWorker; idx++ {
				q.Push(p*perWorker+idx, false)
			}
		}(p)
	}
	pwg.Wait()

	deadline := time.Now().Add(5 * time.Second)
	for {
		mutex.Lock()
		n := len(seen)
		mutex.Unlock()
		if n == producers*perWorker || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	cwg.Wait()

	if len(seen) != producers*perWorker {
		t.Fatalf("lost items: got %d distinct, expected %d", len(seen), producers*perWorker)
	}
	for v, n := range seen {
		if n != 1 {
			t.Fatalf("item %d delivered %d times", v, n)
		}
	}
}

func TestQueuePerProducerOrder(t *testing.T) {
	const (
		producers = 4
		perWorker = 1000
	)

	q := blocking.NewQueue[[2]int]()
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for idx := 0; idx < perWorker; idx++ {
				q.Push([2]int{p, idx}, false)
			}
		}(p)
	}
	wg.Wait()

	last := make([]int, producers)
	for idx := range last {
		last[idx] = -1
	}
	for {
		v, ok := q.TryPop()
		if !ok {
			break
		}
		if v[1] != last[v[0]]+1 {
			t.Fatalf("producer %d: got %d after %d", v[0], v[1], last[v[0]])
		}
		last[v[0]] = v[1]
	}
	for p, l := range last {
		if l != perWorker-1 {
			t.Errorf("producer %d: last item %d, expected %d", p, l, perWorker-1)
		}
	}
}
