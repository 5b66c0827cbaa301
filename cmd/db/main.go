package main

import (
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/setavenger/xfp-indexer/internal/config"
	"github.com/setavenger/xfp-indexer/internal/database"
	"github.com/setavenger/xfp-indexer/internal/dataexport"
	"github.com/setavenger/xfp-indexer/internal/logging"
	"github.com/spf13/cobra"
)

var (
	Version = "0.0.0"

	// Global flags
	datadir    string
	configFile string
	dbPath     string

	// info flags
	top int
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(
		&datadir,
		"datadir",
		config.DefaultBaseDirectory,
		"Set the base directory of the indexer. Default directory is ./data",
	)
	rootCmd.PersistentFlags().StringVar(
		&configFile,
		"config",
		"",
		"Path to config file (default: datadir/xfp-indexer.toml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&dbPath,
		"db",
		"",
		"Path to the database directory (default: datadir/db/<backend>)",
	)

	infoCmd.Flags().IntVar(
		&top,
		"top",
		10,
		"Number of fingerprints with the most inscriptions to list",
	)
}

var rootCmd = &cobra.Command{
	Use:   "db-explorer",
	Short: "xfp-indexer Database Explorer",
	Long: `xfp-indexer Database Explorer inspects, exports and imports the
fingerprint index of the xfp-indexer service. The backend is taken from the config.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Set directories and initialize config
		config.BaseDirectory = datadir
		config.SetDirectories()

		logging.L.Info().Msgf("base directory %s", config.BaseDirectory)

		if configFile == "" {
			configFile = path.Join(config.BaseDirectory, config.ConfigFileName)
		}
		config.LoadConfigs(configFile)
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show database information",
	Long: `Show the sync cursor, fingerprint and inscription totals and the
fingerprints with the longest lists.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		explorer, err := NewDatabaseExplorer(dbPath)
		if err != nil {
			return err
		}
		defer explorer.Close()

		return explorer.PrintDatabaseInfo(cmd.OutOrStdout(), top)
	},
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <xfpPairFingerprint>",
	Short: "List the inscriptions stored for a fingerprint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fp := strings.ToLower(args[0])
		if !database.IsFingerprint(fp) {
			return fmt.Errorf("%q is not an 8 character hex fingerprint", args[0])
		}

		explorer, err := NewDatabaseExplorer(dbPath)
		if err != nil {
			return err
		}
		defer explorer.Close()

		return explorer.PrintLookup(cmd.OutOrStdout(), fp)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the index as CSV and JSON document",
	Long:  `Writes datadir/data-export/xfp-pairs-<ts>.csv and datadir/data-export/db-<ts>.json.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		explorer, err := NewDatabaseExplorer(dbPath)
		if err != nil {
			return err
		}
		defer explorer.Close()

		return dataexport.ExportAll(explorer.db, config.BaseDirectory, time.Now())
	},
}

var importCmd = &cobra.Command{
	Use:   "import <db.json>",
	Short: "Merge a JSON document into the index",
	Long: `Merges a {xfpPairs, lastHeight, lastBlockHash} document into the index
and takes over its cursor. The indexer must not be running.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer file.Close()

		explorer, err := NewDatabaseExplorer(dbPath)
		if err != nil {
			return err
		}
		defer explorer.Close()

		touched, err := dataexport.ImportDocument(explorer.db, file)
		if err != nil {
			return fmt.Errorf("error importing document: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d fingerprints\n", touched)
		return nil
	},
}

func main() {
	// Add subcommands
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)

	// Execute the root command
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
