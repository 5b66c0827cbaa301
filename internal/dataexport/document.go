package dataexport

import (
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/setavenger/xfp-indexer/internal/database"
	"github.com/setavenger/xfp-indexer/internal/logging"
	"github.com/setavenger/xfp-indexer/internal/types"
)

// Document is the single file layout {xfpPairs, lastHeight, lastBlockHash} older
// deployments kept the whole index in.
type Document struct {
	XfpPairs      types.XfpPairs `json:"xfpPairs"`
	LastHeight    int64          `json:"lastHeight"`
	LastBlockHash string         `json:"lastBlockHash"`
}

func ReadDocument(db database.DB) (*Document, error) {
	cursor, _, err := db.GetCursor()
	if err != nil {
		return nil, err
	}

	doc := &Document{
		XfpPairs:      make(types.XfpPairs),
		LastHeight:    cursor.Height,
		LastBlockHash: cursor.Hash,
	}
	err = db.ForEach(func(fp string, ids []string) error {
		doc.XfpPairs[fp] = ids
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func ExportDocument(db database.DB, w io.Writer) error {
	doc, err := ReadDocument(db)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// ImportDocument merges a document into db with the same dedup rules as block processing and
// takes over its cursor. Keys that are not 8 hex characters are skipped.
func ImportDocument(db database.DB, r io.Reader) (int, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return 0, errors.Wrap(err, "decode document")
	}

	existing := make(types.XfpPairs)
	err := db.ForEach(func(fp string, ids []string) error {
		existing[fp] = ids
		return nil
	})
	if err != nil {
		return 0, err
	}
	state := types.NewIndexState(existing, types.Cursor{})

	incoming := make(types.XfpPairs, len(doc.XfpPairs))
	for fp, ids := range doc.XfpPairs {
		if !database.IsFingerprint(fp) {
			logging.L.Warn().Str("fingerprint", fp).Msg("skipping malformed key")
			continue
		}
		for _, id := range ids {
			incoming.Add(fp, id)
		}
	}

	delta := state.Delta(incoming)
	update := &database.BlockUpdate{
		Entries: delta,
		Cursor:  types.Cursor{Height: doc.LastHeight, Hash: doc.LastBlockHash},
	}
	if err = db.ApplyBlock(update); err != nil {
		return 0, err
	}

	logging.L.Info().
		Int("fingerprints", len(delta)).
		Int64("height", doc.LastHeight).
		Msg("document imported")
	return len(delta), nil
}
