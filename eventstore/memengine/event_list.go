package memengine

import (
	"sync/atomic"

	"github.com/andresramilo/challenge-eventstore/events"
)

// eventNode is one stored entry. Entries are identified by their node, not by their value,
// so equal events inserted twice are two independently removable nodes.
type eventNode struct {
	event   events.Event
	next    atomic.Pointer[eventNode]
	removed atomic.Bool
}

// eventList is a lock-free singly linked list holding the entries of one event type in insertion order.
//
// Appends CAS the next pointer of the last node (Michael-Scott style, with a lagging tail hint).
// Removal is logical: a node is removed once its removed flag is set. Traversals unlink removed
// nodes on the way with a CAS on the predecessor. A next pointer only ever moves forward past
// removed nodes and the last node is never unlinked, so every node's chain, including the chain
// of an already unlinked node, still leads to the end of the list. That is what keeps iterators
// standing on a removed node valid.
type eventList struct {
	head eventNode // sentinel, never removed
	tail atomic.Pointer[eventNode]
	live atomic.Int64
}

func newEventList() *eventList {
	l := &eventList{}
	l.tail.Store(&l.head)

	return l
}

// append adds the event at the end of the list and returns its node.
func (l *eventList) append(event events.Event) *eventNode {
	node := &eventNode{event: event}
	l.live.Add(1)

	for {
		last := l.tail.Load()
		next := last.next.Load()

		if next != nil {
			// tail is lagging behind, help it and retry
			l.tail.CompareAndSwap(last, next)
			continue
		}

		if last.next.CompareAndSwap(nil, node) {
			l.tail.CompareAndSwap(last, node)
			return node
		}
	}
}

// remove marks the node as removed. It reports whether this call removed it,
// a node already removed by another path is left alone.
func (l *eventList) remove(node *eventNode) bool {
	if !node.removed.CompareAndSwap(false, true) {
		return false
	}

	l.live.Add(-1)

	return true
}

// removeAll removes every node currently reachable and returns how many this call removed.
// Nodes appended while it runs may or may not be removed.
func (l *eventList) removeAll() int {
	removed := 0

	c := l.cursor()
	for node := c.next(); node != nil; node = c.next() {
		if l.remove(node) {
			removed++
		}
	}

	l.compact()

	return removed
}

// compact walks the whole list once, which unlinks every removed node it passes.
func (l *eventList) compact() {
	c := l.cursor()
	for c.next() != nil {
	}
}

// len returns the number of live nodes. It is only a snapshot under concurrent mutation.
func (l *eventList) len() int {
	n := l.live.Load()
	if n < 0 {
		return 0
	}

	return int(n)
}

/***** listCursor *****/

// listCursor is a forward-only position in an eventList. It is not safe for concurrent use.
type listCursor struct {
	list *eventList
	at   *eventNode
}

func (l *eventList) cursor() listCursor {
	return listCursor{list: l, at: &l.head}
}

// next advances to the next node that is not removed and returns it, or returns nil at the end of the list.
// Removed nodes passed on the way are unlinked when possible.
func (c *listCursor) next() *eventNode {
	for {
		node := c.at.next.Load()
		if node == nil {
			return nil
		}

		if !node.removed.Load() {
			c.at = node
			return node
		}

		succ := node.next.Load()
		if succ == nil {
			// a removed last node stays linked until something is appended after it
			c.at = node
			return nil
		}

		if !c.at.next.CompareAndSwap(node, succ) {
			c.at = node
		}
	}
}
