package stripe

import (
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestMemoryEventStore(t *testing.T) {
	c := qt.New(t)
	store := NewMemoryEventStore(time.Hour)

	c.Assert(store.EventExists("evt_1"), qt.IsFalse)
	c.Assert(store.MarkProcessed("evt_1"), qt.IsNil)
	c.Assert(store.EventExists("evt_1"), qt.IsTrue)
	c.Assert(store.EventExists("evt_2"), qt.IsFalse)
	c.Assert(store.Size(), qt.Equals, 1)
}

func TestLockManagerSerializesSameKey(t *testing.T) {
	c := qt.New(t)
	lm := NewLockManager()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := lm.Lock("sub:" + testSubID)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	c.Assert(counter, qt.Equals, 20)

	// released locks can be cleaned up
	lm.CleanupLocks()
	unlock := lm.Lock("sub:" + testSubID)
	unlock()
}
