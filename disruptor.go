package lob

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"
)

// ErrDisruptorTimeout is returned when shutdown times out
var ErrDisruptorTimeout = errors.New("disruptor: shutdown timeout")

const (
	idleSpins = 256
	idleSleep = 50 * time.Microsecond
)

// EventHandler consumes events in publish order on the consumer goroutine.
// The pointer refers to the ring slot and is only valid during the call.
type EventHandler[T any] interface {
	OnEvent(event *T)
}

// RingBuffer is a multi-producer single-consumer ring buffer.
type RingBuffer[T any] struct {
	// Cache line padding to avoid false sharing
	_                [56]byte
	producerSequence atomic.Int64
	_                [56]byte
	consumerSequence atomic.Int64
	_                [56]byte

	buffer     []T
	bufferMask int64
	capacity   int64

	// published[i] holds the sequence last committed into slot i
	published []atomic.Int64

	handler EventHandler[T]

	// claiming counts producers between the shutdown check and a successful claim
	claiming   atomic.Int64
	isShutdown atomic.Bool
	done       chan struct{}
}

// NewRingBuffer creates a ring buffer. capacity must be a power of 2.
func NewRingBuffer[T any](capacity int64, handler EventHandler[T]) *RingBuffer[T] {
	if capacity <= 0 || (capacity&(capacity-1)) != 0 {
		panic("size must be a power of 2")
	}

	rb := &RingBuffer[T]{
		buffer:     make([]T, capacity),
		published:  make([]atomic.Int64, capacity),
		capacity:   capacity,
		bufferMask: capacity - 1,
		handler:    handler,
		done:       make(chan struct{}),
	}

	rb.producerSequence.Store(-1)
	rb.consumerSequence.Store(-1)
	for i := range rb.published {
		rb.published[i].Store(-1)
	}

	return rb
}

// Publish copies event into the next slot. It is safe for many producers and
// blocks while the buffer is full. It returns false after Shutdown.
func (rb *RingBuffer[T]) Publish(event T) bool {
	seq, slot := rb.Claim()
	if slot == nil {
		return false
	}
	*slot = event
	rb.Commit(seq)
	return true
}

// Claim reserves the next slot for in-place writing. The caller must Commit the
// returned sequence. It returns (-1, nil) after Shutdown.
func (rb *RingBuffer[T]) Claim() (int64, *T) {
	rb.claiming.Add(1)
	defer rb.claiming.Add(-1)

	for {
		if rb.isShutdown.Load() {
			return -1, nil
		}

		current := rb.producerSequence.Load()
		next := current + 1

		// producer may not lap the consumer
		if next-rb.capacity > rb.consumerSequence.Load() {
			runtime.Gosched()
			continue
		}

		if rb.producerSequence.CompareAndSwap(current, next) {
			return next, &rb.buffer[next&rb.bufferMask]
		}
		runtime.Gosched()
	}
}

// Commit makes a claimed slot visible to the consumer.
func (rb *RingBuffer[T]) Commit(seq int64) {
	rb.published[seq&rb.bufferMask].Store(seq)
}

// Start runs the consumer on a new goroutine.
func (rb *RingBuffer[T]) Start() {
	go rb.Run()
}

// Run consumes events on the calling goroutine until Shutdown.
func (rb *RingBuffer[T]) Run() {
	defer close(rb.done)

	next := rb.consumerSequence.Load() + 1
	idle := 0
	for {
		shutdown := rb.isShutdown.Load()
		available := rb.producerSequence.Load()

		if next > available {
			if shutdown && rb.drained(next) {
				return
			}
			idle++
			if idle < idleSpins {
				runtime.Gosched()
			} else {
				time.Sleep(idleSleep)
			}
			continue
		}

		idle = 0
		for ; next <= available; next++ {
			rb.consume(next)
		}
	}
}

// drained reports whether no producer can still claim a sequence at or after next.
// A producer that passed its shutdown check before Shutdown is still counted in
// claiming, so its sequence shows up in producerSequence once claiming reaches zero.
func (rb *RingBuffer[T]) drained(next int64) bool {
	if rb.claiming.Load() != 0 {
		return false
	}
	return next > rb.producerSequence.Load()
}

func (rb *RingBuffer[T]) consume(seq int64) {
	index := seq & rb.bufferMask

	// the slot is claimed but the producer may not have committed it yet
	for rb.published[index].Load() != seq {
		runtime.Gosched()
	}

	rb.handler.OnEvent(&rb.buffer[index])
	rb.consumerSequence.Store(seq)
}

// Shutdown stops accepting events and waits until every claimed event is consumed.
func (rb *RingBuffer[T]) Shutdown(ctx context.Context) error {
	rb.isShutdown.Store(true)

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrDisruptorTimeout, ctx.Err())
		case <-rb.done:
			return nil
		default:
			if rb.claiming.Load() == 0 && rb.ConsumerSequence() >= rb.ProducerSequence() {
				return nil
			}
			runtime.Gosched()
		}
	}
}

// Done is closed when the consumer goroutine has returned.
func (rb *RingBuffer[T]) Done() <-chan struct{} {
	return rb.done
}

// ConsumerSequence returns the last consumed sequence.
func (rb *RingBuffer[T]) ConsumerSequence() int64 {
	return rb.consumerSequence.Load()
}

// ProducerSequence returns the last claimed sequence.
func (rb *RingBuffer[T]) ProducerSequence() int64 {
	return rb.producerSequence.Load()
}

// GetPendingEvents returns the number of claimed events not yet consumed.
func (rb *RingBuffer[T]) GetPendingEvents() int64 {
	return rb.producerSequence.Load() - rb.consumerSequence.Load()
}
