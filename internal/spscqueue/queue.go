// Package spscqueue implements the single-producer/single-consumer
// record queue of spec §3.3/§4.4: a bounded ring buffer between the
// ingestion producer and one shard worker.
//
// The original is a byte-level ring buffer that higher-level code
// writes typed records into in place (reserve, construct, finish_write)
// to get move semantics without per-record synchronization. Go has no
// placement-new and its GC makes a raw byte ring plus reinterpret casts
// an unsafe-heavy, un-idiomatic port; this implementation keeps the
// invariants that matter — monotonic producer/consumer positions over a
// power-of-two number of slots, wrap expressed as a position
// comparison rather than a modulo, and the arm/recheck/cancel wait
// protocol of §4.4 — at the granularity of one Record per slot instead
// of one byte per slot. A Record already owns exactly the payload a
// single write/read pair would have reserved in the original (a command
// tag and, for VECTOR records, a batch the producer relinquishes and
// the consumer takes ownership of).
package spscqueue

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Command tags the two record kinds this system ever sends.
type Command uint8

const (
	CmdVector Command = iota
	CmdFinish
)

// Record is a single queue entry: a command tag and, for CmdVector, the
// batch of entries it carries. The consumer takes ownership of Batch on
// Pop and is responsible for not retaining the producer's backing array
// past that point (it doesn't — the producer always allocates a fresh
// batch slice after a send, mirroring the original's move-and-clear).
type Record[T any] struct {
	Cmd   Command
	Batch []T
}

// Queue is a bounded SPSC ring buffer of Record[T]. Capacity must be a
// power of two.
type Queue[T any] struct {
	slots    []Record[T]
	capacity uint64
	mask     uint64

	writePos atomic.Uint64
	readPos  atomic.Uint64

	writerArmed atomic.Bool
	readerArmed atomic.Bool

	wakeWriter *semaphore.Weighted
	wakeReader *semaphore.Weighted
}

// New builds a queue with the given power-of-two capacity.
func New[T any](capacity uint64) *Queue[T] {
	if capacity == 0 || capacity&(capacity-1) != 0 {
		panic("spscqueue: capacity must be a power of two")
	}
	q := &Queue[T]{
		slots:      make([]Record[T], capacity),
		capacity:   capacity,
		mask:       capacity - 1,
		wakeWriter: semaphore.NewWeighted(1),
		wakeReader: semaphore.NewWeighted(1),
	}
	// Consume the only unit of each semaphore so that a later Acquire
	// blocks until a matching Release arms it: the "binary semaphore
	// starts unsignalled" state of §4.4.
	_ = q.wakeWriter.Acquire(context.Background(), 1)
	_ = q.wakeReader.Acquire(context.Background(), 1)
	return q
}

// Push writes rec into the ring, blocking (with the arm/recheck/cancel
// protocol of §4.4) while the ring is full. Exactly one goroutine may
// ever call Push on a given Queue.
func (q *Queue[T]) Push(ctx context.Context, rec Record[T]) error {
	for {
		wp := q.writePos.Load()
		rp := q.readPos.Load()
		if wp-rp < q.capacity {
			q.slots[wp&q.mask] = rec
			q.writePos.Store(wp + 1) // release: visible to the consumer
			q.wakeConsumerIfArmed()
			return nil
		}

		// arm: tell the consumer side we'd like to be woken, then
		// recheck before committing to sleep — the consumer may have
		// advanced between the load above and the arm below.
		q.writerArmed.Store(true)
		rp2 := q.readPos.Load()
		if wp-rp2 < q.capacity {
			// space freed up: cancel the arm and retry without sleeping.
			// If the consumer already claimed the arm, its wake-up has
			// been (or is about to be) released: absorb it so the
			// semaphore is back to unsignalled.
			if !q.writerArmed.CompareAndSwap(true, false) {
				_ = q.wakeWriter.Acquire(context.Background(), 1)
			}
			continue
		}
		if err := q.wakeWriter.Acquire(ctx, 1); err != nil {
			q.writerArmed.Store(false)
			return err
		}
	}
}

// Pop blocks (with the same arm/recheck/cancel protocol, mirrored) until
// a record is available, then returns it. Exactly one goroutine may
// ever call Pop on a given Queue.
func (q *Queue[T]) Pop(ctx context.Context) (Record[T], error) {
	for {
		rp := q.readPos.Load()
		wp := q.writePos.Load()
		if rp < wp {
			rec := q.slots[rp&q.mask]
			q.slots[rp&q.mask] = Record[T]{} // drop the reference promptly
			q.readPos.Store(rp + 1)          // release: frees the slot for the producer
			q.wakeProducerIfArmed()
			return rec, nil
		}

		q.readerArmed.Store(true)
		wp2 := q.writePos.Load()
		if rp < wp2 {
			if !q.readerArmed.CompareAndSwap(true, false) {
				_ = q.wakeReader.Acquire(context.Background(), 1)
			}
			continue
		}
		if err := q.wakeReader.Acquire(ctx, 1); err != nil {
			q.readerArmed.Store(false)
			return Record[T]{}, err
		}
	}
}

func (q *Queue[T]) wakeConsumerIfArmed() {
	if q.readerArmed.CompareAndSwap(true, false) {
		q.wakeReader.Release(1)
	}
}

func (q *Queue[T]) wakeProducerIfArmed() {
	if q.writerArmed.CompareAndSwap(true, false) {
		q.wakeWriter.Release(1)
	}
}
