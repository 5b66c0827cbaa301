package indexer

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
	"github.com/setavenger/xfp-indexer/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

func TestWorkerExecutorMatchesInline(t *testing.T) {
	tx := descriptorTx(t, 4, [4]byte{0xfe, 0xed, 0xfa, 0xce})
	raw, hash := testhelpers.Block(t, chainhash.Hash{}, 1, testhelpers.Coinbase(1), tx)
	task := Task{Height: 1, Hash: hash, Raw: raw}

	inline, err := InlineExecutor{Options: testOptions}.Execute(context.Background(), task)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker := NewWorkerExecutor(testOptions)
	require.NoError(t, worker.Start(ctx))
	defer worker.Stop()

	for i := 0; i < 3; i++ {
		res, err := worker.Execute(ctx, task)
		require.NoError(t, err)
		require.Equal(t, inline, res)
	}
}

func TestWorkerExecutorRecoversPanic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := NewWorkerExecutor(testOptions)
	calls := 0
	worker.process = func(ctx context.Context, raw []byte, opts ProcessOptions) (*BlockResult, error) {
		calls++
		if calls == 1 {
			panic("boom")
		}
		return ProcessBlock(ctx, raw, opts)
	}
	require.NoError(t, worker.Start(ctx))
	defer worker.Stop()

	raw, hash := testhelpers.Block(t, chainhash.Hash{}, 2, testhelpers.Coinbase(2))
	task := Task{Height: 2, Hash: hash, Raw: raw}

	_, err := worker.Execute(ctx, task)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrWorker))

	// the worker survives and serves the retry
	res, err := worker.Execute(ctx, task)
	require.NoError(t, err)
	require.Equal(t, hash, res.Hash)
}

func TestWorkerExecutorMarksDecodeFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := NewWorkerExecutor(testOptions)
	require.NoError(t, worker.Start(ctx))
	defer worker.Stop()

	_, err := worker.Execute(ctx, Task{Height: 3, Raw: []byte{0x01, 0x02}})
	require.True(t, errors.Is(err, ErrWorker))
}

func TestWorkerExecutorAfterStop(t *testing.T) {
	worker := NewWorkerExecutor(testOptions)
	require.NoError(t, worker.Start(context.Background()))
	worker.Stop()

	_, err := worker.Execute(context.Background(), Task{})
	require.True(t, errors.Is(err, ErrWorker))

	require.Error(t, worker.Start(context.Background()))
}
