// Package ingest implements the ingestion pipeline (§4.5): one
// producer parsing CSV rows, fanned out by white-pawn count to nine
// shard workers, each owning its own classtree over its own SPSC
// queue, merged into a unified store once every shard has drained.
package ingest

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lluisalemanypuig/chesspebase/internal/classtree"
	"github.com/lluisalemanypuig/chesspebase/internal/position"
	"github.com/lluisalemanypuig/chesspebase/internal/spscqueue"
)

// ErrFileError surfaces an I/O failure opening a CSV file.
var ErrFileError = errors.New("ingest: file error")

// ErrInvalidPosition surfaces a row whose FEN or move token could not
// be parsed/applied. Rows that fail are skipped and counted; they do
// not abort the load.
var ErrInvalidPosition = errors.New("ingest: invalid position")

// Shards is the fixed number of worker shards, one per possible
// white-pawn count 0..=8.
const Shards = 9

// batchSize is the number of entries the producer accumulates before
// sending a single VECTOR record, per §4.5 ("B around 750-1000").
const batchSize = 800

// queueCapacity is the SPSC ring's slot count; a handful of in-flight
// batches is enough to keep workers fed without unbounded buffering.
const queueCapacity = 8

// Entry is one record traveling from the producer to a shard worker:
// a fully-applied position plus the attribute tuple it is keyed by.
type Entry struct {
	Pos  *position.Position
	Keys classtree.Keys
}

// Result aggregates the outcome of a Load call.
type Result struct {
	RowsRead   int
	RowsFailed int
}

// Load reads every CSV file in paths, ingests them through the
// nine-shard pipeline, and returns the unified store. It always
// drains and joins every shard worker on every exit path (the safe
// default of §9's open question), aggregating row failures instead of
// short-circuiting on the first one.
func Load(ctx context.Context, paths []string, log *zap.SugaredLogger) (*classtree.Tree, *Result, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	queues := make([]*spscqueue.Queue[Entry], Shards)
	shardTrees := make([]*classtree.Tree, Shards)
	for i := range queues {
		queues[i] = spscqueue.New[Entry](queueCapacity)
		shardTrees[i] = classtree.New()
	}

	doneCh := make(chan int, Shards)
	for i := 0; i < Shards; i++ {
		go runShardWorker(ctx, i, queues[i], shardTrees[i], doneCh, log)
	}

	result := &Result{}
	for _, path := range paths {
		if err := ingestFile(ctx, path, queues, result, log); err != nil {
			// Still drain and join every shard below: a failed file
			// must not leave worker goroutines stranded.
			sendFinishToAll(ctx, queues)
			joinAll(doneCh, log)
			return nil, result, errors.Wrap(err, path)
		}
	}

	sendFinishToAll(ctx, queues)
	joinAll(doneCh, log)

	unified := classtree.New()
	for _, st := range shardTrees {
		unified.Merge(st)
	}
	unified.UpdateSize()

	log.Infow("ingest complete", "rows_read", result.RowsRead, "rows_failed", result.RowsFailed)
	return unified, result, nil
}

func sendFinishToAll(ctx context.Context, queues []*spscqueue.Queue[Entry]) {
	for _, q := range queues {
		_ = q.Push(ctx, spscqueue.Record[Entry]{Cmd: spscqueue.CmdFinish})
	}
}

func joinAll(doneCh chan int, log *zap.SugaredLogger) {
	completed := bitset.New(Shards)
	for i := 0; i < Shards; i++ {
		shard := <-doneCh
		completed.Set(uint(shard))
	}
	if completed.Count() != Shards {
		log.Errorw("not every shard reported completion before merge", "completed", completed.Count())
	}
}

func ingestFile(ctx context.Context, path string, queues []*spscqueue.Queue[Entry], result *Result, log *zap.SugaredLogger) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(ErrFileError, err.Error())
	}
	defer f.Close()

	batches := make([][]Entry, Shards)

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	first := true
	for sc.Scan() {
		line := sc.Text()
		if first {
			first = false
			continue // header row
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		result.RowsRead++
		entry, shard, ok := parseRow(line)
		if !ok {
			result.RowsFailed++
			continue
		}

		batches[shard] = append(batches[shard], entry)
		if len(batches[shard]) >= batchSize {
			if err := queues[shard].Push(ctx, spscqueue.Record[Entry]{Cmd: spscqueue.CmdVector, Batch: batches[shard]}); err != nil {
				return err
			}
			batches[shard] = nil
		}
	}
	if err := sc.Err(); err != nil {
		return errors.Wrap(ErrFileError, err.Error())
	}

	for shard, batch := range batches {
		if len(batch) == 0 {
			continue
		}
		if err := queues[shard].Push(ctx, spscqueue.Record[Entry]{Cmd: spscqueue.CmdVector, Batch: batch}); err != nil {
			return err
		}
	}
	log.Infow("file ingested", "path", path, "rows_read", result.RowsRead, "rows_failed", result.RowsFailed)
	return nil
}

func runShardWorker(ctx context.Context, shard int, q *spscqueue.Queue[Entry], tree *classtree.Tree, doneCh chan int, log *zap.SugaredLogger) {
	for {
		rec, err := q.Pop(ctx)
		if err != nil {
			log.Warnw("shard worker pop failed", "shard", shard, "error", err)
			break
		}
		if rec.Cmd == spscqueue.CmdFinish {
			break
		}
		for _, e := range rec.Batch {
			tree.Add(e.Keys, e.Pos, 1)
		}
	}
	log.Debugw("shard worker exiting", "shard", shard, "size", tree.Size())
	doneCh <- shard
}
