package indexer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/cockroachdb/errors"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/setavenger/xfp-indexer/internal/database"
	"github.com/setavenger/xfp-indexer/internal/inscription"
	"github.com/setavenger/xfp-indexer/internal/testhelpers"
	"github.com/setavenger/xfp-indexer/internal/types"
	"github.com/stretchr/testify/require"
)

type fakeBlock struct {
	hash chainhash.Hash
	raw  []byte
}

type fakeChain struct {
	mu      sync.Mutex
	blocks  map[int64]fakeBlock
	tip     int64
	failing map[int64]int // height -> remaining failures
}

func newFakeChain() *fakeChain {
	return &fakeChain{blocks: make(map[int64]fakeBlock), failing: make(map[int64]int)}
}

// extend builds blocks from height on top of the block at height-1 and sets the tip.
func (c *fakeChain) extend(t *testing.T, from, to int64, nonce uint32, txs map[int64][]*wire.MsgTx) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for h := from; h <= to; h++ {
		prev := c.blocks[h-1].hash
		blockTxs := append([]*wire.MsgTx{testhelpers.Coinbase(h)}, txs[h]...)
		raw, hash := testhelpers.Block(t, prev, nonce+uint32(h), blockTxs...)
		c.blocks[h] = fakeBlock{hash: hash, raw: raw}
	}
	c.tip = to
}

func (c *fakeChain) hashAt(h int64) chainhash.Hash {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blocks[h].hash
}

func (c *fakeChain) GetChainHeight(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tip, nil
}

func (c *fakeChain) GetBlockHashAtHeight(_ context.Context, h int64) (chainhash.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing[h] > 0 {
		c.failing[h]--
		return chainhash.Hash{}, errors.Wrap(ErrBlockFetch, "node unavailable")
	}
	b, ok := c.blocks[h]
	if !ok {
		return chainhash.Hash{}, errors.Wrapf(ErrBlockFetch, "no block at %d", h)
	}
	return b.hash, nil
}

func (c *fakeChain) GetBlockByHash(_ context.Context, hash chainhash.Hash) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range c.blocks {
		if b.hash == hash {
			return b.raw, nil
		}
	}
	return nil, errors.Wrapf(ErrBlockFetch, "unknown block %s", hash)
}

type fakeStore struct {
	mu       sync.Mutex
	pairs    types.XfpPairs
	cursor   types.Cursor
	hasCur   bool
	applyErr error
	writes   int
}

func newFakeStore() *fakeStore { return &fakeStore{pairs: make(types.XfpPairs)} }

func (s *fakeStore) LoadState(startHeight int64) (*types.IndexState, error) {
	return database.LoadWith(s, startHeight)
}

func (s *fakeStore) ApplyBlock(u *database.BlockUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applyErr != nil {
		return s.applyErr
	}
	for fp, ids := range u.Entries {
		s.pairs[fp] = append([]string(nil), ids...)
	}
	s.cursor, s.hasCur = u.Cursor, true
	s.writes++
	return nil
}

func (s *fakeStore) SetCursor(c types.Cursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor, s.hasCur = c, true
	s.writes++
	return nil
}

func (s *fakeStore) GetCursor() (types.Cursor, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor, s.hasCur, nil
}

func (s *fakeStore) LookupFingerprint(fp string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pairs[fp], nil
}

func (s *fakeStore) CountFingerprints() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pairs), nil
}

func (s *fakeStore) ForEach(f func(string, []string) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for fp, ids := range s.pairs {
		if err := f(fp, ids); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeStore) Close() error { return nil }

func descriptorTx(t *testing.T, seed byte, pair [4]byte) *wire.MsgTx {
	body := testhelpers.TwoOfTwo(t, pair)
	return testhelpers.Tx(seed, testhelpers.InscriptionWitness(t, "text/plain", []byte(body)))
}

func newTestBuilder(t *testing.T, chain *fakeChain, store *fakeStore, start int64) *Builder {
	state, err := store.LoadState(start)
	require.NoError(t, err)

	b := NewBuilder(state, store, chain, InlineExecutor{Options: testOptions}, clock.NewTestClock(time.Unix(0, 0)))
	b.rollbackWindow = 6
	b.pollInterval = time.Minute
	return b
}

func TestSyncToTipIndexesBlocks(t *testing.T) {
	chain := newFakeChain()
	tx := descriptorTx(t, 1, [4]byte{0xaa, 0xbb, 0xcc, 0xdd})
	chain.extend(t, 100, 103, 0, map[int64][]*wire.MsgTx{102: {tx}})

	store := newFakeStore()
	b := newTestBuilder(t, chain, store, 100)

	// height 100 is the configured start, the first processed block is 101
	require.NoError(t, b.SyncToTip(context.Background()))

	cursor := b.state.Cursor()
	require.Equal(t, int64(103), cursor.Height)
	require.Equal(t, chain.hashAt(103).String(), cursor.Hash)

	id := inscription.InscriptionID(tx.TxHash().String(), 0)
	require.Equal(t, []string{id}, b.state.Lookup("aabbccdd"))

	stored, ok, err := store.GetCursor()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, cursor, stored)
	ids, err := store.LookupFingerprint("aabbccdd")
	require.NoError(t, err)
	require.Equal(t, []string{id}, ids)

	// restarting from the store yields the same state
	reloaded, err := store.LoadState(0)
	require.NoError(t, err)
	require.Equal(t, cursor, reloaded.Cursor())
	require.Equal(t, b.state.Snapshot(), reloaded.Snapshot())
}

func TestProcessNextReorgRollsBack(t *testing.T) {
	chain := newFakeChain()
	shared := descriptorTx(t, 7, [4]byte{1, 2, 3, 4})
	chain.extend(t, 90, 103, 0, map[int64][]*wire.MsgTx{101: {shared}})

	store := newFakeStore()
	b := newTestBuilder(t, chain, store, 97)
	require.NoError(t, b.SyncToTip(context.Background()))
	require.Equal(t, int64(103), b.state.Height())
	id := inscription.InscriptionID(shared.TxHash().String(), 0)
	require.Equal(t, []string{id}, b.state.Lookup("01020304"))

	// fork from 101 on, the same inscription lands in the fork again
	chain.extend(t, 101, 104, 1000, map[int64][]*wire.MsgTx{102: {shared}})

	step, err := b.ProcessNext(context.Background())
	require.NoError(t, err)
	require.Equal(t, StepReorg, step)

	// H = 103, the mismatching block is H+1 = 104, the cursor goes to H+1-6
	require.Equal(t, types.Cursor{Height: 98}, b.state.Cursor())
	stored, _, err := store.GetCursor()
	require.NoError(t, err)
	require.Equal(t, types.Cursor{Height: 98}, stored)

	require.NoError(t, b.SyncToTip(context.Background()))
	require.Equal(t, int64(104), b.state.Height())
	require.Equal(t, chain.hashAt(104).String(), b.state.Cursor().Hash)

	// reprocessing does not duplicate ids
	require.Equal(t, []string{id}, b.state.Lookup("01020304"))
	ids, err := store.LookupFingerprint("01020304")
	require.NoError(t, err)
	require.Equal(t, []string{id}, ids)
}

func TestProcessNextRollbackClampsAtZero(t *testing.T) {
	chain := newFakeChain()
	chain.extend(t, 0, 3, 0, nil)

	store := newFakeStore()
	b := newTestBuilder(t, chain, store, 0)
	b.state.SetCursor(types.Cursor{Height: 2, Hash: "00"})

	step, err := b.ProcessNext(context.Background())
	require.NoError(t, err)
	require.Equal(t, StepReorg, step)
	require.Equal(t, types.Cursor{Height: 0}, b.state.Cursor())
}

func TestProcessNextFetchErrorKeepsCursor(t *testing.T) {
	chain := newFakeChain()
	chain.extend(t, 10, 12, 0, nil)
	chain.failing[12] = 1

	store := newFakeStore()
	b := newTestBuilder(t, chain, store, 10)

	err := b.SyncToTip(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrBlockFetch))
	require.Equal(t, int64(11), b.state.Height())

	// the same height is retried and succeeds
	require.NoError(t, b.SyncToTip(context.Background()))
	require.Equal(t, int64(12), b.state.Height())
}

func TestProcessNextStoreFailureLeavesMemory(t *testing.T) {
	chain := newFakeChain()
	tx := descriptorTx(t, 3, [4]byte{9, 9, 9, 9})
	chain.extend(t, 50, 51, 0, map[int64][]*wire.MsgTx{51: {tx}})

	store := newFakeStore()
	b := newTestBuilder(t, chain, store, 50)
	store.applyErr = errors.New("disk full")

	_, err := b.ProcessNext(context.Background())
	require.Error(t, err)
	require.Equal(t, types.Cursor{Height: 50}, b.state.Cursor())
	require.Empty(t, b.state.Lookup("09090909"))

	store.applyErr = nil
	step, err := b.ProcessNext(context.Background())
	require.NoError(t, err)
	require.Equal(t, StepAdvanced, step)
	require.Len(t, b.state.Lookup("09090909"), 1)
}

func TestProcessNextRejectsWrongBlock(t *testing.T) {
	chain := newFakeChain()
	chain.extend(t, 20, 22, 0, nil)
	// serve block 22 under the hash of 21
	chain.blocks[21] = fakeBlock{hash: chain.blocks[21].hash, raw: chain.blocks[22].raw}

	b := newTestBuilder(t, chain, newFakeStore(), 20)
	_, err := b.ProcessNext(context.Background())
	require.True(t, errors.Is(err, ErrBlockFetch))
	require.Equal(t, int64(20), b.state.Height())
}

func TestContinuousSyncPollsAndRetries(t *testing.T) {
	chain := newFakeChain()
	chain.extend(t, 0, 5, 0, nil)
	chain.failing[3] = 1

	store := newFakeStore()
	b := newTestBuilder(t, chain, store, 0)

	ticks := make(chan time.Duration)
	start := time.Unix(1_700_000_000, 0)
	testClock := clock.NewTestClockWithTickSignal(start, ticks)
	b.clock = testClock

	worker := NewWorkerExecutor(testOptions)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, worker.Start(ctx))
	defer worker.Stop()
	b.executor = worker

	done := make(chan error, 1)
	go func() { done <- b.ContinuousSync(ctx) }()

	waitTick := func() {
		select {
		case d := <-ticks:
			require.Equal(t, time.Minute, d)
		case <-time.After(5 * time.Second):
			t.Fatal("sync loop did not wait for the poll interval")
		}
	}
	now := start
	advance := func() {
		now = now.Add(time.Minute)
		testClock.SetTime(now)
	}

	// first pass fails at height 3
	waitTick()
	require.Equal(t, int64(2), b.state.Height())

	advance()
	waitTick()
	require.Equal(t, int64(5), b.state.Height())

	chain.extend(t, 6, 7, 0, nil)
	advance()
	waitTick()
	require.Equal(t, int64(7), b.state.Height())

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("sync loop did not stop")
	}
}
