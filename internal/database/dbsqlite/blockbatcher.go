package dbsqlite

import (
	"context"
	"database/sql"

	"github.com/setavenger/xfp-indexer/internal/types"
)

const upsertCursorSQL = `
	INSERT INTO sync_cursor(id, height, block_hash) VALUES (0, ?, ?)
	ON CONFLICT(id) DO UPDATE SET height=excluded.height, block_hash=excluded.block_hash`

// BlockBatcher wraps the transaction of one block write.
type BlockBatcher struct {
	tx       *sql.Tx
	delPairs *sql.Stmt
	insPair  *sql.Stmt
}

// BeginBatch opens the tx and prepares the statements once.
func BeginBatch(ctx context.Context, db *sql.DB) (*BlockBatcher, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	delPairs, err := tx.PrepareContext(ctx, "DELETE FROM xfp_pairs WHERE fingerprint = ?")
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	insPair, err := tx.PrepareContext(ctx, "INSERT INTO xfp_pairs(fingerprint, position, inscription_id) VALUES (?,?,?)")
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	return &BlockBatcher{tx, delPairs, insPair}, nil
}

// ReplaceList swaps the stored list of fp for ids.
func (b *BlockBatcher) ReplaceList(ctx context.Context, fp []byte, ids []string) error {
	if _, err := b.delPairs.ExecContext(ctx, fp); err != nil {
		return err
	}
	for pos, id := range ids {
		if _, err := b.insPair.ExecContext(ctx, fp, pos, id); err != nil {
			return err
		}
	}
	return nil
}

func (b *BlockBatcher) SetCursor(ctx context.Context, cursor types.Cursor) error {
	_, err := b.tx.ExecContext(ctx, upsertCursorSQL, cursor.Height, cursor.Hash)
	return err
}

func (b *BlockBatcher) Commit() error {
	b.close()
	return b.tx.Commit()
}

func (b *BlockBatcher) Rollback() error {
	b.close()
	return b.tx.Rollback()
}

func (b *BlockBatcher) close() {
	_ = b.delPairs.Close()
	_ = b.insPair.Close()
}
