package indexer

import (
	"context"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/setavenger/xfp-indexer/internal/logging"
)

// Task is one block handed to an executor.
type Task struct {
	Height int64
	Hash   chainhash.Hash
	Raw    []byte
}

// Executor runs the block processor for one block at a time.
type Executor interface {
	Execute(ctx context.Context, task Task) (*BlockResult, error)
}

type processFunc func(ctx context.Context, raw []byte, opts ProcessOptions) (*BlockResult, error)

// InlineExecutor processes on the calling goroutine.
type InlineExecutor struct {
	Options ProcessOptions
}

func (e InlineExecutor) Execute(ctx context.Context, task Task) (*BlockResult, error) {
	return ProcessBlock(ctx, task.Raw, e.Options)
}

type workerTask struct {
	ctx    context.Context
	task   Task
	result chan fn.Result[*BlockResult]
}

// WorkerExecutor keeps block decoding on a dedicated goroutine so the sync loop and the read
// APIs stay responsive. Execute blocks until the worker answered; there is never more than
// one task in flight.
type WorkerExecutor struct {
	opts    ProcessOptions
	process processFunc

	gm     *fn.GoroutineManager
	tasks  chan workerTask
	exited chan struct{}

	// serialises Execute calls
	mu sync.Mutex
}

func NewWorkerExecutor(opts ProcessOptions) *WorkerExecutor {
	return &WorkerExecutor{
		opts:    opts,
		process: ProcessBlock,
		gm:      fn.NewGoroutineManager(),
		tasks:   make(chan workerTask),
		exited:  make(chan struct{}),
	}
}

// Start launches the worker. It runs until ctx is done or Stop is called.
func (w *WorkerExecutor) Start(ctx context.Context) error {
	ok := w.gm.Go(ctx, func(ctx context.Context) {
		defer close(w.exited)
		w.run(ctx)
	})
	if !ok {
		return errors.Wrap(ErrWorker, "decode worker could not be started")
	}
	return nil
}

// Stop cancels the worker and waits for it to return.
func (w *WorkerExecutor) Stop() {
	w.gm.Stop()
}

func (w *WorkerExecutor) run(ctx context.Context) {
	logging.L.Debug().Msg("decode worker started")
	for {
		select {
		case <-ctx.Done():
			logging.L.Debug().Msg("decode worker stopped")
			return
		case t := <-w.tasks:
			t.result <- w.handle(t)
		}
	}
}

func (w *WorkerExecutor) handle(t workerTask) (res fn.Result[*BlockResult]) {
	defer func() {
		if r := recover(); r != nil {
			logging.L.Error().Any("panic", r).Int64("height", t.task.Height).Msg("decode worker panicked")
			res = fn.Err[*BlockResult](errors.Wrapf(ErrWorker, "panic at height %d: %v", t.task.Height, r))
		}
	}()

	result, err := w.process(t.ctx, t.task.Raw, w.opts)
	if err != nil {
		return fn.Err[*BlockResult](errors.Mark(
			errors.Wrapf(err, "decode block %s at height %d", t.task.Hash, t.task.Height), ErrWorker,
		))
	}
	return fn.Ok(result)
}

func (w *WorkerExecutor) Execute(ctx context.Context, task Task) (*BlockResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	result := make(chan fn.Result[*BlockResult], 1)
	select {
	case w.tasks <- workerTask{ctx: ctx, task: task, result: result}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-w.exited:
		return nil, errors.Wrap(ErrWorker, "decode worker is not running")
	}

	select {
	case res := <-result:
		return res.Unpack()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
