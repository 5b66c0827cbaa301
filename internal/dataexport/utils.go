package dataexport

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/setavenger/xfp-indexer/internal/database"
	"github.com/setavenger/xfp-indexer/internal/logging"
)

// ExportAll writes the CSV table and the JSON document into dir/data-export, suffixed with the timestamp.
func ExportAll(db database.DB, dir string, timestamp time.Time) error {
	logging.L.Info().Msg("Exporting data")
	exportDir := filepath.Join(dir, "data-export")

	logging.L.Info().Msg("Exporting fingerprints")
	err := ExportFingerprints(db, filepath.Join(exportDir, fmt.Sprintf("xfp-pairs-%d.csv", timestamp.Unix())))
	if err != nil {
		logging.L.Err(err).Msg("error exporting fingerprints")
		return err
	}

	logging.L.Info().Msg("Exporting document")
	file, err := os.Create(filepath.Join(exportDir, fmt.Sprintf("db-%d.json", timestamp.Unix())))
	if err != nil {
		return err
	}
	defer file.Close()
	if err = ExportDocument(db, file); err != nil {
		logging.L.Err(err).Msg("error exporting document")
		return err
	}

	logging.L.Info().Msg("Export Done")
	return nil
}
