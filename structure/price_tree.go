package structure

// PriceTree is a Left-Leaning Red-Black tree of int64 price keys with arena-based memory management.
// Nodes live in a single slice and reference each other by int32 index, so the hot path does not
// allocate once the arena is warm. The arena doubles when exhausted.
//
// Reference: Robert Sedgewick's LLRB implementation
// https://sedgewick.io/wp-content/themes/flavor/uploads/2016/02/LLRB.pdf

const (
	NullIndex  int32 = -1
	colorRed         = true
	colorBlack       = false

	// DefaultGrowthFactor is the arena expansion factor.
	DefaultGrowthFactor = 2
)

// treeNode is a node of the tree. Left doubles as the free-list link.
type treeNode struct {
	Left  int32
	Right int32
	Color bool
	Key   int64
}

// PriceTree is an arena-backed LLRB tree.
type PriceTree struct {
	nodes    []treeNode
	root     int32
	freeHead int32
	count    int32
	minKey   int64
	onGrow   func(oldCap, newCap int32)
}

// NewPriceTree creates a tree with room for capacity keys before the arena grows.
func NewPriceTree(capacity int32) *PriceTree {
	if capacity < 1 {
		capacity = 1
	}
	t := &PriceTree{
		nodes:    make([]treeNode, capacity),
		root:     NullIndex,
		freeHead: NullIndex,
	}
	t.linkFree(0, capacity)
	return t
}

// OnGrow registers a callback invoked every time the arena expands.
func (t *PriceTree) OnGrow(fn func(oldCap, newCap int32)) {
	t.onGrow = fn
}

// linkFree pushes nodes [from, to) onto the free list, lowest index first out.
func (t *PriceTree) linkFree(from, to int32) {
	for i := to - 1; i >= from; i-- {
		t.nodes[i].Left = t.freeHead
		t.freeHead = i
	}
}

func (t *PriceTree) grow() {
	oldCap := int32(len(t.nodes))
	newCap := oldCap * DefaultGrowthFactor
	if t.onGrow != nil {
		t.onGrow(oldCap, newCap)
	}
	nodes := make([]treeNode, newCap)
	copy(nodes, t.nodes)
	t.nodes = nodes
	t.linkFree(oldCap, newCap)
}

func (t *PriceTree) alloc(key int64) int32 {
	if t.freeHead == NullIndex {
		t.grow()
	}
	idx := t.freeHead
	t.freeHead = t.nodes[idx].Left
	t.nodes[idx] = treeNode{
		Left:  NullIndex,
		Right: NullIndex,
		Color: colorRed, // New nodes are always red in LLRB
		Key:   key,
	}
	return idx
}

func (t *PriceTree) free(idx int32) {
	t.nodes[idx].Right = NullIndex
	t.nodes[idx].Left = t.freeHead
	t.freeHead = idx
}

func (t *PriceTree) isRed(idx int32) bool {
	if idx == NullIndex {
		return false
	}
	return t.nodes[idx].Color == colorRed
}

// rotateLeft performs a left rotation.
//
//	  |              |
//	  h              x
//	 / \    =>      / \
//	a   x          h   c
//	   / \        / \
//	  b   c      a   b
func (t *PriceTree) rotateLeft(h int32) int32 {
	x := t.nodes[h].Right
	t.nodes[h].Right = t.nodes[x].Left
	t.nodes[x].Left = h
	t.nodes[x].Color = t.nodes[h].Color
	t.nodes[h].Color = colorRed
	return x
}

// rotateRight performs a right rotation.
//
//	    |          |
//	    h          x
//	   / \   =>   / \
//	  x   c      a   h
//	 / \            / \
//	a   b          b   c
func (t *PriceTree) rotateRight(h int32) int32 {
	x := t.nodes[h].Left
	t.nodes[h].Left = t.nodes[x].Right
	t.nodes[x].Right = h
	t.nodes[x].Color = t.nodes[h].Color
	t.nodes[h].Color = colorRed
	return x
}

func (t *PriceTree) flipColors(h int32) {
	t.nodes[h].Color = !t.nodes[h].Color
	t.nodes[t.nodes[h].Left].Color = !t.nodes[t.nodes[h].Left].Color
	t.nodes[t.nodes[h].Right].Color = !t.nodes[t.nodes[h].Right].Color
}

// Insert adds key to the tree.
// Returns true if the key was newly inserted, false if it already existed.
func (t *PriceTree) Insert(key int64) bool {
	var inserted bool
	t.root, inserted = t.insert(t.root, key)
	t.nodes[t.root].Color = colorBlack
	if inserted {
		if t.count == 0 || key < t.minKey {
			t.minKey = key
		}
		t.count++
	}
	return inserted
}

func (t *PriceTree) insert(h int32, key int64) (int32, bool) {
	if h == NullIndex {
		return t.alloc(key), true
	}

	var inserted bool
	switch {
	case key < t.nodes[h].Key:
		var child int32
		child, inserted = t.insert(t.nodes[h].Left, key)
		t.nodes[h].Left = child
	case key > t.nodes[h].Key:
		var child int32
		child, inserted = t.insert(t.nodes[h].Right, key)
		t.nodes[h].Right = child
	default:
		return h, false
	}

	return t.balance(h), inserted
}

// Contains reports whether key is in the tree.
func (t *PriceTree) Contains(key int64) bool {
	h := t.root
	for h != NullIndex {
		switch {
		case key < t.nodes[h].Key:
			h = t.nodes[h].Left
		case key > t.nodes[h].Key:
			h = t.nodes[h].Right
		default:
			return true
		}
	}
	return false
}

// Min returns the smallest key. It is O(1).
func (t *PriceTree) Min() (int64, bool) {
	if t.count == 0 {
		return 0, false
	}
	return t.minKey, true
}

// Max returns the largest key.
func (t *PriceTree) Max() (int64, bool) {
	if t.root == NullIndex {
		return 0, false
	}
	h := t.root
	for t.nodes[h].Right != NullIndex {
		h = t.nodes[h].Right
	}
	return t.nodes[h].Key, true
}

func (t *PriceTree) findMin(h int32) int32 {
	if h == NullIndex {
		return NullIndex
	}
	for t.nodes[h].Left != NullIndex {
		h = t.nodes[h].Left
	}
	return h
}

// Count returns the number of keys in the tree.
func (t *PriceTree) Count() int32 {
	return t.count
}

// Delete removes key from the tree.
// Returns true if the key was found and deleted.
func (t *PriceTree) Delete(key int64) bool {
	if !t.Contains(key) {
		return false
	}

	if !t.isRed(t.nodes[t.root].Left) && !t.isRed(t.nodes[t.root].Right) {
		t.nodes[t.root].Color = colorRed
	}
	t.root = t.delete(t.root, key)
	if t.root != NullIndex {
		t.nodes[t.root].Color = colorBlack
	}
	t.count--

	if t.count > 0 && key == t.minKey {
		t.minKey = t.nodes[t.findMin(t.root)].Key
	}
	return true
}

// delete assumes key is present in the subtree rooted at h.
func (t *PriceTree) delete(h int32, key int64) int32 {
	if key < t.nodes[h].Key {
		if !t.isRed(t.nodes[h].Left) && !t.isRed(t.nodes[t.nodes[h].Left].Left) {
			h = t.moveRedLeft(h)
		}
		t.nodes[h].Left = t.delete(t.nodes[h].Left, key)
	} else {
		if t.isRed(t.nodes[h].Left) {
			h = t.rotateRight(h)
		}
		if key == t.nodes[h].Key && t.nodes[h].Right == NullIndex {
			t.free(h)
			return NullIndex
		}
		if !t.isRed(t.nodes[h].Right) && !t.isRed(t.nodes[t.nodes[h].Right].Left) {
			h = t.moveRedRight(h)
		}
		if key == t.nodes[h].Key {
			minIdx := t.findMin(t.nodes[h].Right)
			t.nodes[h].Key = t.nodes[minIdx].Key
			t.nodes[h].Right = t.deleteMin(t.nodes[h].Right)
		} else {
			t.nodes[h].Right = t.delete(t.nodes[h].Right, key)
		}
	}
	return t.balance(h)
}

func (t *PriceTree) moveRedLeft(h int32) int32 {
	t.flipColors(h)
	if t.isRed(t.nodes[t.nodes[h].Right].Left) {
		t.nodes[h].Right = t.rotateRight(t.nodes[h].Right)
		h = t.rotateLeft(h)
		t.flipColors(h)
	}
	return h
}

func (t *PriceTree) moveRedRight(h int32) int32 {
	t.flipColors(h)
	if t.isRed(t.nodes[t.nodes[h].Left].Left) {
		h = t.rotateRight(h)
		t.flipColors(h)
	}
	return h
}

func (t *PriceTree) deleteMin(h int32) int32 {
	if t.nodes[h].Left == NullIndex {
		t.free(h)
		return NullIndex
	}
	if !t.isRed(t.nodes[h].Left) && !t.isRed(t.nodes[t.nodes[h].Left].Left) {
		h = t.moveRedLeft(h)
	}
	t.nodes[h].Left = t.deleteMin(t.nodes[h].Left)
	return t.balance(h)
}

func (t *PriceTree) balance(h int32) int32 {
	if t.isRed(t.nodes[h].Right) && !t.isRed(t.nodes[h].Left) {
		h = t.rotateLeft(h)
	}
	if t.isRed(t.nodes[h].Left) && t.isRed(t.nodes[t.nodes[h].Left].Left) {
		h = t.rotateRight(h)
	}
	if t.isRed(t.nodes[h].Left) && t.isRed(t.nodes[h].Right) {
		t.flipColors(h)
	}
	return h
}

// Ascend calls fn for every key in ascending order until fn returns false.
// The walk is iterative; its stack is bounded by the tree height.
func (t *PriceTree) Ascend(fn func(key int64) bool) {
	var stack [64]int32
	sp := 0
	h := t.root
	for h != NullIndex || sp > 0 {
		for h != NullIndex {
			stack[sp] = h
			sp++
			h = t.nodes[h].Left
		}
		sp--
		h = stack[sp]
		if !fn(t.nodes[h].Key) {
			return
		}
		h = t.nodes[h].Right
	}
}

// InOrderSlice returns all keys in sorted order (for testing/debugging).
func (t *PriceTree) InOrderSlice() []int64 {
	result := make([]int64, 0, t.count)
	t.Ascend(func(key int64) bool {
		result = append(result, key)
		return true
	})
	return result
}

// Reset removes every key while keeping the arena.
func (t *PriceTree) Reset() {
	t.root = NullIndex
	t.freeHead = NullIndex
	t.count = 0
	t.minKey = 0
	t.linkFree(0, int32(len(t.nodes)))
}

// Capacity returns the current arena size.
func (t *PriceTree) Capacity() int32 {
	return int32(len(t.nodes))
}
