package lob

// priceLevel is the FIFO of resting orders at one price.
// totalQuantity is always the sum of the remaining quantity of its orders.
type priceLevel struct {
	price         Price
	side          Side
	totalQuantity Quantity
	count         int
	head          handle
	tail          handle
}

func newPriceLevel(side Side, price Price) *priceLevel {
	return &priceLevel{
		price: price,
		side:  side,
		head:  nilHandle,
		tail:  nilHandle,
	}
}

// append pushes h to the tail of the level.
func (l *priceLevel) append(a *arena, h handle) {
	node := a.get(h)
	node.prev = l.tail
	node.next = nilHandle
	if l.tail != nilHandle {
		a.get(l.tail).next = h
	} else {
		l.head = h
	}
	l.tail = h

	l.totalQuantity += node.RemainingQuantity
	l.count++
}

// remove unlinks h. The node's remaining quantity is subtracted from the level total.
func (l *priceLevel) remove(a *arena, h handle) {
	node := a.get(h)
	if node.prev != nilHandle {
		a.get(node.prev).next = node.next
	} else {
		l.head = node.next
	}
	if node.next != nilHandle {
		a.get(node.next).prev = node.prev
	} else {
		l.tail = node.prev
	}
	node.prev = nilHandle
	node.next = nilHandle

	l.totalQuantity -= node.RemainingQuantity
	l.count--
}

// reduce lowers the remaining quantity of h in place, keeping its queue position.
// It returns the quantity removed from the level.
func (l *priceLevel) reduce(a *arena, h handle, newRemaining Quantity) Quantity {
	node := a.get(h)
	delta := node.RemainingQuantity - newRemaining
	node.RemainingQuantity = newRemaining
	l.totalQuantity -= delta
	return delta
}

func (l *priceLevel) front() handle {
	return l.head
}

func (l *priceLevel) empty() bool {
	return l.count == 0
}

// each visits the orders in FIFO order until fn returns false.
func (l *priceLevel) each(a *arena, fn func(h handle, node *orderNode) bool) {
	for h := l.head; h != nilHandle; {
		node := a.get(h)
		next := node.next
		if !fn(h, node) {
			return
		}
		h = next
	}
}
