package memengine_test

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andresramilo/challenge-eventstore/events"
	"github.com/andresramilo/challenge-eventstore/testutil/eventstore/fixtures"
	"github.com/andresramilo/challenge-eventstore/testutil/memengine/helper"
)

func Test_Concurrency_InsertWhileIterating(t *testing.T) {
	// setup
	ctx := context.Background()
	es := helper.GivenEmptyStore(t)

	// arrange
	helper.GivenEventsWereInserted(t, ctx, es, fixtures.StandardEvents()...)
	it := es.Query(ctx, "A", math.MinInt64, math.MaxInt64)

	// act
	var wg sync.WaitGroup
	var seen events.Events

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := int64(10); i < 20; i++ {
			assert.NoError(t, es.Insert(ctx, events.MustBuildEvent("A", i)))
		}
	}()
	go func() {
		defer wg.Done()
		for it.MoveNext() {
			event, err := it.Current()
			assert.NoError(t, err)
			seen = append(seen, event)
		}
		assert.NoError(t, it.Close())
	}()
	wg.Wait()

	// assert
	assert.GreaterOrEqual(t, len(seen), 10, "events present before the query started must be seen")
	assert.LessOrEqual(t, len(seen), 20)
	assertNoDuplicates(t, seen)
	assert.Equal(t, 20, helper.CountEvents(t, ctx, es, "A", math.MinInt64, math.MaxInt64))
}

func Test_Concurrency_WritersReadersAndRemovers(t *testing.T) {
	const writers = 4
	const eventsPerWriter = 500

	// setup
	ctx := context.Background()
	es := helper.GivenEmptyStore(t)

	// act
	var wg sync.WaitGroup
	var removed atomic.Int64
	var done atomic.Bool

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < eventsPerWriter; i++ {
				assert.NoError(t, es.Insert(ctx, events.MustBuildEvent("A", int64(w*1000+i))))
			}
		}(w)
	}

	// each remover owns one writer's timestamp range, so no entry is removed twice
	var removersWG sync.WaitGroup
	for r := 0; r < writers; r++ {
		removersWG.Add(1)
		go func(r int) {
			defer removersWG.Done()
			it := es.Query(ctx, "A", int64(r*1000), int64(r*1000+1000))
			for it.MoveNext() {
				event, err := it.Current()
				assert.NoError(t, err)
				if event.Timestamp()%2 == 0 {
					assert.NoError(t, it.Remove())
					removed.Add(1)
				}
			}
			assert.NoError(t, it.Close())
		}(r)
	}

	var readersWG sync.WaitGroup
	for r := 0; r < 2; r++ {
		readersWG.Add(1)
		go func() {
			defer readersWG.Done()
			for !done.Load() {
				seen := helper.QueryAll(t, ctx, es, "A", 0, writers*1000)
				assertNoDuplicates(t, seen)
				for _, event := range seen {
					assert.Less(t, event.Timestamp(), int64(writers*1000))
				}
			}
		}()
	}

	wg.Wait()
	removersWG.Wait()
	done.Store(true)
	readersWG.Wait()

	// assert
	inserted := writers * eventsPerWriter
	expected := inserted - int(removed.Load())
	assert.Equal(t, expected, helper.CountEvents(t, ctx, es, "A", math.MinInt64, math.MaxInt64))
	assert.Equal(t, expected, es.Len())
}

func Test_Concurrency_RemoveAllWhileInserting(t *testing.T) {
	const inserters = 4
	const eventsPerInserter = 1000

	// setup
	ctx := context.Background()
	es := helper.GivenEmptyStore(t)

	// act
	var wg sync.WaitGroup
	var removed atomic.Int64
	stop := make(chan struct{})

	for i := 0; i < inserters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for n := 0; n < eventsPerInserter; n++ {
				assert.NoError(t, es.Insert(ctx, events.MustBuildEvent("B", int64(i*eventsPerInserter+n))))
			}
		}(i)
	}

	removerDone := make(chan struct{})
	go func() {
		defer close(removerDone)
		for {
			select {
			case <-stop:
				return
			default:
				removed.Add(int64(es.RemoveAll(ctx, "B")))
			}
		}
	}()

	wg.Wait()
	close(stop)
	<-removerDone

	// assert
	remaining := helper.CountEvents(t, ctx, es, "B", math.MinInt64, math.MaxInt64)
	assert.Equal(t, inserters*eventsPerInserter, remaining+int(removed.Load()))
	assert.Equal(t, remaining, es.Len())
}

func Test_Concurrency_CompetingIteratorRemovals(t *testing.T) {
	const iterators = 8

	// setup
	ctx := context.Background()
	es := helper.GivenEmptyStore(t)

	// arrange
	helper.GivenEventsWereInserted(t, ctx, es, fixtures.StandardEvents()...)

	// act
	var wg sync.WaitGroup
	for i := 0; i < iterators; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			it := es.Query(ctx, "C", 0, 10)
			for it.MoveNext() {
				assert.NoError(t, it.Remove(), "removing an entry another iterator removed first is not an error")
			}
			assert.NoError(t, it.Close())
		}()
	}
	wg.Wait()

	// assert
	assert.Equal(t, 0, helper.CountEvents(t, ctx, es, "C", 0, 10))
	assert.Equal(t, 20, es.Len())
}

func assertNoDuplicates(t *testing.T, evts events.Events) {
	t.Helper()

	seen := make(map[events.Event]struct{}, len(evts))
	for _, event := range evts {
		_, duplicate := seen[event]
		assert.False(t, duplicate, "event %s was yielded twice", event)
		seen[event] = struct{}{}
	}
}
