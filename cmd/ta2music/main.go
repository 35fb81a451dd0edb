package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time
	Version = "dev"

	rootCmd = &cobra.Command{
		Use:   "ta2music",
		Short: "Bridge TubeArchivist downloads into a Navidrome music library",
		Long: `ta2music watches the TubeArchivist media directory for newly archived
videos, checks whether each one belongs to a MUSIC* playlist, and if so
downloads an MP3 copy (with embedded cover art) via yt-dlp into the
Navidrome music directory. Processed videos are tracked by content hash
so nothing is downloaded twice.`,
		Version:      Version,
		SilenceUsage: true,
		RunE:         runDaemon,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().String("input-dir", "/youtube", "TubeArchivist media directory to watch")
	rootCmd.PersistentFlags().String("output-dir", "/music", "Navidrome music directory MP3s are written to")
	rootCmd.PersistentFlags().String("db", "/app/data/mp3_downloaded.db", "dedup ledger database file")
	rootCmd.PersistentFlags().String("api-url", "", "TubeArchivist API base URL (empty disables playlist checks)")
	rootCmd.PersistentFlags().String("api-token", "", "TubeArchivist API token")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")

	// Bind flags to viper
	viper.BindPFlag("input_dir", rootCmd.PersistentFlags().Lookup("input-dir"))
	viper.BindPFlag("output_dir", rootCmd.PersistentFlags().Lookup("output-dir"))
	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("api_url", rootCmd.PersistentFlags().Lookup("api-url"))
	viper.BindPFlag("api_token", rootCmd.PersistentFlags().Lookup("api-token"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))

	// Read in environment variables that match
	viper.SetEnvPrefix("TA2MUSIC")
	viper.AutomaticEnv()

	// Legacy environment names used by the original deployment manifests
	viper.BindEnv("input_dir", "TA2MUSIC_INPUT_DIR", "TUBEARCHIVIST_DIR")
	viper.BindEnv("output_dir", "TA2MUSIC_OUTPUT_DIR", "NAVIDROME_DIR")
	viper.BindEnv("db", "TA2MUSIC_DB", "DB_FILE")
	viper.BindEnv("api_url", "TA2MUSIC_API_URL", "TA_API_URL")
	viper.BindEnv("api_token", "TA2MUSIC_API_TOKEN", "TA_TOKEN")

	rootCmd.AddCommand(statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
