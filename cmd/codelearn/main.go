// Package main provides the codelearn CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version is the current codelearn CLI version
var Version = "0.3.1"

var rootCmd = &cobra.Command{
	Use:     "codelearn",
	Short:   "codelearn - learn a codemod from your last change",
	Long:    `codelearn reduces the uncommitted change of a Git working tree to minimal before/after snippets and submits them to the codemod learning service.`,
	Version: Version,
}

var learnCmd = &cobra.Command{
	Use:   "learn [paths...]",
	Short: "Extract before/after snippets from modified files and submit them",
	Long: `Learn compares modified files with the last commit and reduces each diff to
before/after snippet pairs. Without paths, every modified supported file is used.`,
	RunE: runLearn,
}

var hunksCmd = &cobra.Command{
	Use:   "hunks <path>",
	Short: "Print the parsed diff hunks of one file as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runHunks,
}

var (
	repoPath     string
	configPath   string
	refFlag      string
	strategyFlag string
	matchFlag    string
	includeFlag  []string
	excludeFlag  []string
	workersFlag  int
	contextFlag  int
	dryRun       bool
	jsonFlag     bool
	debugFlag    bool
)

func init() {
	rootCmd.SilenceUsage = true
	addGlobalFlags(rootCmd)
	addLearnFlags(learnCmd)

	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(hunksCmd)
}

// addGlobalFlags registers the flags shared by every command. Registering
// resets the bound variables to their defaults.
func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&repoPath, "repo", ".", "Path inside the Git repository")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default <repo root>/.codelearn.yaml)")
	cmd.PersistentFlags().StringVar(&refFlag, "ref", "", "Commit to compare the working tree with (default HEAD)")
	cmd.PersistentFlags().IntVar(&contextFlag, "context", 3, "Diff context lines")
	cmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
}

func addLearnFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&strategyFlag, "strategy", "", "Reduction strategy: hunks or statements")
	cmd.Flags().StringVar(&matchFlag, "match", "", "Statement match mode: position or substring")
	cmd.Flags().StringSliceVar(&includeFlag, "include", nil, "Only learn from paths matching these globs")
	cmd.Flags().StringSliceVar(&excludeFlag, "exclude", nil, "Skip paths matching these globs")
	cmd.Flags().IntVar(&workersFlag, "workers", 0, "Files processed concurrently (default GOMAXPROCS)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the snippet pairs instead of submitting them")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Output as JSON")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
