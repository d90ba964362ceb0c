package lob

// handle addresses an order slot in the arena. Handles stay valid until the
// slot is released; a released slot may be reused by a later order.
type handle int32

const nilHandle handle = -1

// orderNode is one arena slot. prev/next link the node into the FIFO of its
// price level, so removal given a handle is O(1).
type orderNode struct {
	Order
	prev handle
	next handle
	live bool
}

// arena owns every resting order of a book.
// Callers must not keep a *orderNode across alloc: growing the slice moves the nodes.
type arena struct {
	nodes []orderNode
	free  []handle
}

func newArena(capacity int) *arena {
	if capacity < 1 {
		capacity = 1
	}
	return &arena{
		nodes: make([]orderNode, 0, capacity),
		free:  make([]handle, 0, capacity),
	}
}

// alloc stores order in a free slot and returns its handle.
func (a *arena) alloc(order Order) handle {
	var h handle
	if n := len(a.free); n > 0 {
		h = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		h = handle(len(a.nodes))
		a.nodes = append(a.nodes, orderNode{})
	}

	a.nodes[h] = orderNode{
		Order: order,
		prev:  nilHandle,
		next:  nilHandle,
		live:  true,
	}
	return h
}

// release returns the slot to the free list.
func (a *arena) release(h handle) {
	node := &a.nodes[h]
	if !node.live {
		return
	}
	*node = orderNode{prev: nilHandle, next: nilHandle}
	a.free = append(a.free, h)
}

func (a *arena) get(h handle) *orderNode {
	return &a.nodes[h]
}

// len returns the number of live orders.
func (a *arena) len() int {
	return len(a.nodes) - len(a.free)
}

func (a *arena) reset() {
	a.nodes = a.nodes[:0]
	a.free = a.free[:0]
}
