package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"codelearn/internal/config"
	"codelearn/internal/correlate"
	"codelearn/internal/diag"
	"codelearn/internal/gitio"
	"codelearn/internal/hunk"
	"codelearn/internal/learn"
	"codelearn/internal/pathfilter"
	"codelearn/internal/remote"
)

func runLearn(cmd *cobra.Command, args []string) error {
	repo, err := gitio.Open(repoPath)
	if err != nil {
		return fmt.Errorf("the file on which you tried to run the operation is not in a git repository: %w", err)
	}

	cfg, err := loadConfig(cmd, repo.Root())
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Debug)

	strategy, err := learn.ParseStrategy(cfg.Strategy)
	if err != nil {
		return err
	}
	mode, err := correlate.ParseMode(cfg.Match)
	if err != nil {
		return err
	}
	filter, err := pathfilter.New(cfg.Include, cfg.Exclude)
	if err != nil {
		return err
	}

	var candidates []string
	if len(args) > 0 {
		candidates, err = repoRelative(repo.Root(), args)
	} else {
		candidates, err = repo.ModifiedFiles()
	}
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return errors.New("could not find any modified file to run the command on")
	}

	paths, rejected := filter.Apply(candidates)
	for _, p := range sortedKeys(rejected) {
		logger.Info("skipping file", "path", p, "reason", string(rejected[p]))
	}
	if len(paths) == 0 {
		return errors.New("no supported modified files (.js, .jsx, .ts, .tsx, .py) to learn from")
	}

	source, err := gitio.NewSource(repo, cfg.Ref, cfg.Context)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	out := cmd.OutOrStdout()
	if !jsonFlag {
		fmt.Fprintf(out, "Learning \"git diff\" against %s has begun...\n", source.Commit()[:7])
	}

	extractor := learn.New(source, learn.Options{
		Strategy: strategy,
		Mode:     mode,
		Workers:  cfg.Workers,
		Logger:   logger,
	})
	req, diags, err := extractor.Run(ctx, paths)
	diag.Log(logger, diags)
	if err != nil {
		if errors.Is(err, diag.ErrNothingToLearn) {
			return errors.New("nothing to learn: no modified file produced a before/after snippet")
		}
		return err
	}

	if dryRun {
		if jsonFlag {
			return printJSON(out, req.Files)
		}
		for _, f := range req.Files {
			for i, p := range f.Pairs {
				fmt.Fprintf(out, "=== %s [%d/%d]\n--- before\n%s\n+++ after\n%s\n", f.Path, i+1, len(f.Pairs), p.Before, p.After)
			}
		}
		return nil
	}

	client := remote.NewClient(cfg.Server, cfg.Token)
	client.Compress = cfg.Compress
	resp, err := client.CreateCodeDiff(ctx, cfg.Engine, req)
	if err != nil {
		return fmt.Errorf("submitting snippets: %w", err)
	}

	url, err := remote.StudioURL(cfg.StudioURL, cfg.Engine, resp.ID, resp.IV)
	if err != nil {
		return err
	}

	if jsonFlag {
		return printJSON(out, map[string]interface{}{
			"diffId": resp.ID,
			"iv":     resp.IV,
			"url":    url,
			"pairs":  len(req.Pairs),
		})
	}
	fmt.Fprintf(out, "Learning went successful! Submitted %d snippet pair(s) from %d file(s).\n", len(req.Pairs), len(req.Files))
	fmt.Fprintf(out, "Open the studio: %s\n", url)
	return nil
}

func runHunks(cmd *cobra.Command, args []string) error {
	repo, err := gitio.Open(repoPath)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, repo.Root())
	if err != nil {
		return err
	}

	paths, err := repoRelative(repo.Root(), args)
	if err != nil {
		return err
	}
	source, err := gitio.NewSource(repo, cfg.Ref, cfg.Context)
	if err != nil {
		return err
	}

	text, err := source.Diff(cmd.Context(), paths[0])
	if err != nil {
		return err
	}
	hunks, errs := hunk.Parse(text)
	for _, e := range errs {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", e)
	}
	if hunks == nil {
		hunks = []hunk.Hunk{}
	}
	return printJSON(cmd.OutOrStdout(), hunks)
}

// loadConfig reads the config file and applies flags the user set.
func loadConfig(cmd *cobra.Command, root string) (*config.Config, error) {
	path := configPath
	if path == "" {
		path = filepath.Join(root, config.FileName)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("ref") {
		cfg.Ref = refFlag
	}
	if flags.Changed("context") {
		cfg.Context = contextFlag
	}
	if flags.Changed("debug") {
		cfg.Debug = debugFlag
	}
	if flags.Lookup("strategy") != nil && flags.Changed("strategy") {
		cfg.Strategy = strategyFlag
	}
	if flags.Lookup("match") != nil && flags.Changed("match") {
		cfg.Match = matchFlag
	}
	if flags.Lookup("include") != nil && flags.Changed("include") {
		cfg.Include = includeFlag
	}
	if flags.Lookup("exclude") != nil && flags.Changed("exclude") {
		cfg.Exclude = excludeFlag
	}
	if flags.Lookup("workers") != nil && flags.Changed("workers") {
		cfg.Workers = workersFlag
	}
	return cfg, nil
}

// repoRelative converts user-supplied paths to slash-separated paths
// relative to the repository root.
func repoRelative(root string, args []string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(absRoot, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("%s is not in the git repository at %s", arg, absRoot)
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out, nil
}

func sortedKeys(m map[string]pathfilter.Reason) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
