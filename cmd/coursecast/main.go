package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"coursecast/internal/config"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	flagConfig string
	flagOutput string
	flagDryRun bool
)

var rootCmd = &cobra.Command{
	Use:   "coursecast",
	Short: "Deterministic podcast feed generator for course material",
	Long: "coursecast turns a listing of course-material files into a podcast RSS feed:\n" +
		"files are filtered, classified, scheduled, composed, and ordered the same\n" +
		"way on every run against the same library.",
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("coursecast %s (commit: %s)\n", version, commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")

	generateCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "run the pipeline and report the would-be output without writing")
	generateCmd.Flags().StringVar(&flagOutput, "output", "feed.xml", "path of the generated feed document")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

func newLogger() *log.Logger {
	return log.New(os.Stderr, "coursecast ", log.LstdFlags|log.Lmsgprefix)
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.DefaultPath()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
