package memengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresramilo/challenge-eventstore/events"
)

func givenList(t *testing.T, timestamps ...int64) (*eventList, []*eventNode) {
	t.Helper()

	l := newEventList()
	nodes := make([]*eventNode, 0, len(timestamps))
	for _, ts := range timestamps {
		nodes = append(nodes, l.append(events.MustBuildEvent("A", ts)))
	}

	return l, nodes
}

func collect(l *eventList) []int64 {
	var found []int64

	c := l.cursor()
	for node := c.next(); node != nil; node = c.next() {
		found = append(found, node.event.Timestamp())
	}

	return found
}

func Test_eventList_Append_KeepsInsertionOrder(t *testing.T) {
	// act
	l, _ := givenList(t, 3, 1, 2)

	// assert
	assert.Equal(t, []int64{3, 1, 2}, collect(l))
	assert.Equal(t, 3, l.len())
	assert.Same(t, l.head.next.Load().next.Load().next.Load(), l.tail.Load())
}

func Test_eventList_Remove_UnlinksOnTraversal(t *testing.T) {
	// arrange
	l, nodes := givenList(t, 0, 1, 2)

	// act
	removed := l.remove(nodes[1])
	removedAgain := l.remove(nodes[1])
	found := collect(l)

	// assert
	assert.True(t, removed)
	assert.False(t, removedAgain)
	assert.Equal(t, []int64{0, 2}, found)
	assert.Same(t, nodes[2], nodes[0].next.Load(), "the removed node should be unlinked")
	assert.Equal(t, 2, l.len())
}

func Test_eventList_RemovedLastNode_StaysLinkedUntilAppend(t *testing.T) {
	// arrange
	l, nodes := givenList(t, 0, 1)

	// act
	l.remove(nodes[1])
	require.Equal(t, []int64{0}, collect(l))
	linkedBeforeAppend := nodes[0].next.Load()
	l.append(events.MustBuildEvent("A", 2))

	// assert
	assert.Same(t, nodes[1], linkedBeforeAppend)
	assert.Equal(t, []int64{0, 2}, collect(l))
	assert.NotSame(t, nodes[1], nodes[0].next.Load())
}

func Test_eventList_CursorOnRemovedNode_ContinuesToTheEnd(t *testing.T) {
	// arrange
	l, nodes := givenList(t, 0, 1, 2, 3)
	c := l.cursor()
	require.Same(t, nodes[0], c.next())
	require.Same(t, nodes[1], c.next())

	// act
	l.remove(nodes[1])
	l.remove(nodes[2])
	l.compact()

	// assert
	assert.Same(t, nodes[3], c.next())
	assert.Nil(t, c.next())
	assert.Equal(t, []int64{0, 3}, collect(l))
}

func Test_eventList_RemoveAll(t *testing.T) {
	// arrange
	l, nodes := givenList(t, 0, 1, 2, 3)
	l.remove(nodes[2])

	// act
	removed := l.removeAll()

	// assert
	assert.Equal(t, 3, removed)
	assert.Equal(t, 0, l.len())
	assert.Empty(t, collect(l))
	assert.Same(t, nodes[3], l.head.next.Load(), "only the last node may stay linked")
}
