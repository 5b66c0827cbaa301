package dataexport

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/setavenger/xfp-indexer/internal/database"
	"github.com/setavenger/xfp-indexer/internal/logging"
)

func writeToCSV(path string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	logging.L.Info().Msgf("Writing to %s", path)
	file, err := os.Create(path)
	if err != nil {
		logging.L.Err(err).Msg("failed creating file")
		return err
	}
	defer file.Close()

	return writeRecords(file, records)
}

func writeRecords(w io.Writer, records [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(records); err != nil {
		return err
	}
	return writer.Error()
}

/* Fingerprints */

func ExportFingerprints(db database.DB, path string) error {
	records, err := convertFingerprintsToRecords(db)
	if err != nil {
		logging.L.Err(err).Msg("error converting fingerprints to records")
		return err
	}
	return writeToCSV(path, records)
}

func convertFingerprintsToRecords(db database.DB) ([][]string, error) {
	records := [][]string{{
		"xfpPairFingerprint",
		"position",
		"inscriptionId",
	}}
	err := db.ForEach(func(fp string, ids []string) error {
		for i, id := range ids {
			records = append(records, []string{fp, strconv.Itoa(i), id})
		}
		return nil
	})
	return records, err
}
