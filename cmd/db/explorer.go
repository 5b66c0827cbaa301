package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/setavenger/xfp-indexer/internal/database"
	"github.com/setavenger/xfp-indexer/internal/database/backend"
	"github.com/setavenger/xfp-indexer/internal/database/dbpebble"
)

// DatabaseExplorer provides read helpers over the configured store
type DatabaseExplorer struct {
	db database.DB
}

func NewDatabaseExplorer(dbPath string) (*DatabaseExplorer, error) {
	db, err := backend.Open(dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	return &DatabaseExplorer{db: db}, nil
}

func (de *DatabaseExplorer) Close() error {
	return de.db.Close()
}

type listSize struct {
	fingerprint string
	ids         int
}

// PrintDatabaseInfo prints the cursor, totals and the fingerprints with the longest lists.
func (de *DatabaseExplorer) PrintDatabaseInfo(w io.Writer, top int) error {
	cursor, ok, err := de.db.GetCursor()
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(w, "Cursor: not initialised")
	} else {
		fmt.Fprintf(w, "Cursor: height %d, block %q\n", cursor.Height, cursor.Hash)
	}

	var (
		sizes    []listSize
		entries  int
		distinct = make(map[string]struct{})
	)
	err = de.db.ForEach(func(fp string, ids []string) error {
		sizes = append(sizes, listSize{fp, len(ids)})
		entries += len(ids)
		for _, id := range ids {
			distinct[id] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Fingerprints: %d\n", len(sizes))
	fmt.Fprintf(w, "Entries: %d\n", entries)
	fmt.Fprintf(w, "Distinct inscriptions: %d\n", len(distinct))

	sort.SliceStable(sizes, func(i, j int) bool { return sizes[i].ids > sizes[j].ids })
	for i := 0; i < len(sizes) && i < top; i++ {
		fmt.Fprintf(w, "  %s: %d\n", sizes[i].fingerprint, sizes[i].ids)
	}

	if store, ok := de.db.(*dbpebble.Store); ok {
		metrics := store.DB.Metrics()
		fmt.Fprintln(w, "\nPebble Metrics:")
		fmt.Fprintf(w, "  Memtable Size: %d bytes\n", metrics.MemTable.Size)
		fmt.Fprintf(w, "  Block Cache Size: %d bytes\n", metrics.BlockCache.Size)
		fmt.Fprintf(w, "  WAL Files: %d\n", metrics.WAL.Files)
		fmt.Fprintf(w, "  WAL Size: %d bytes\n", metrics.WAL.Size)
	}
	return nil
}

func (de *DatabaseExplorer) PrintLookup(w io.Writer, fingerprint string) error {
	ids, err := de.db.LookupFingerprint(fingerprint)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: %d inscriptions\n", fingerprint, len(ids))
	for _, id := range ids {
		fmt.Fprintf(w, "  %s\n", id)
	}
	return nil
}
