// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package cache

// lruNode is a node in a doubly-linked LRU list. It stores the key and cost
// so eviction can update the shard map and budget in O(1).
type lruNode struct {
	key  string
	cost int64
	prev *lruNode
	next *lruNode
}

// lruList is a doubly-linked list with the most recently used node at the
// head. Not thread-safe; the owning shard synchronizes.
type lruList struct {
	head *lruNode
	tail *lruNode
	len  int
}

// pushFront adds a new node at the front.
func (l *lruList) pushFront(key string, cost int64) *lruNode {
	n := &lruNode{key: key, cost: cost, next: l.head}
	if l.head != nil {
		l.head.prev = n
	}
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
	l.len++
	return n
}

// moveToFront marks n as most recently used.
func (l *lruList) moveToFront(n *lruNode) {
	if n == nil || n == l.head {
		return
	}
	l.unlink(n)
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	}
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
	l.len++
}

// removeOldest unlinks and returns the least recently used node.
func (l *lruList) removeOldest() *lruNode {
	n := l.tail
	if n != nil {
		l.unlink(n)
	}
	return n
}

func (l *lruList) unlink(n *lruNode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
	l.len--
}
