// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/berkanimo/autolatex/internal/archive"
	"github.com/berkanimo/autolatex/internal/batch"
	"github.com/berkanimo/autolatex/internal/ghrepo"
	"github.com/berkanimo/autolatex/internal/history"
	"github.com/berkanimo/autolatex/pkg/types"
)

var batchCmd = &cobra.Command{
	Use:   "batch <repo-url> [paths...]",
	Short: "Compile many repository files concurrently",
	Long: `Batch compiles each named .tex path of a GitHub repository through the
reference-mode service. Compiles run concurrently up to --max-concurrency,
and the report keeps the order the paths were given in. The produced PDFs
can be sealed into an encrypted archive (--archive with --passphrase) or
pushed back to the repository (--push with --folder).`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().Int("max-concurrency", 0, "maximum simultaneous compile calls (default 4)")
	batchCmd.Flags().Duration("timeout", 0, "HTTP request timeout per compile (default 90s)")
	batchCmd.Flags().Bool("skip-check", false, "skip the repository pre-flight check")
	batchCmd.Flags().String("archive", "", "seal produced PDFs into this encrypted archive file")
	batchCmd.Flags().String("passphrase", "", "archive passphrase (default: archive-passphrase secret)")
	batchCmd.Flags().Bool("push", false, "push produced PDFs back to the repository")
	batchCmd.Flags().String("folder", "compiled", "repository folder to push artifacts under")
	batchCmd.Flags().String("branch", "", "branch to push to (default: repository default branch)")
	batchCmd.Flags().String("token", "", "GitHub API token (default: github-token secret)")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("provide a repository URL and at least one .tex path")
	}
	repoURL, targets := args[0], args[1:]

	workdir, err := workDir(cmd)
	if err != nil {
		return err
	}

	maxConcurrency, _ := cmd.Flags().GetInt("max-concurrency")
	if maxConcurrency == 0 {
		maxConcurrency = viper.GetInt("batch.max_concurrency")
	}
	cfg := types.BatchConfig{
		Remote:         remoteConfig(cmd, workdir),
		MaxConcurrency: maxConcurrency,
	}
	client := &http.Client{Timeout: cfg.Remote.Timeout}
	token, _ := cmd.Flags().GetString("token")
	token = secretDefault("github-token", token)

	check := repoCheck(cmd, token)

	result := batch.Run(cmd.Context(), client, repoURL, targets, cfg, check, os.Stderr)
	for _, entry := range result.Entries {
		if entry.Result.OK() {
			fmt.Fprintf(cmd.OutOrStdout(), "Compiled: %s -> %s\n", entry.Target, entry.Result.ArtifactPath)
		} else {
			fmt.Fprintf(os.Stderr, "Failed: %s\n%s\n", entry.Target, entry.Result.Log)
		}
	}

	if store, err := history.Open(workdir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: compile history unavailable: %v\n", err)
	} else {
		if err := store.RecordBatch(result); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: recording batch history: %v\n", err)
		}
		store.Close()
	}

	if err := sealArtifacts(cmd, result.Artifacts()); err != nil {
		return err
	}
	if err := pushArtifacts(cmd, repoURL, token, result.Artifacts()); err != nil {
		return err
	}

	if result.HasFailures() {
		return fmt.Errorf("%d document(s) failed to compile", result.Failed)
	}
	return nil
}

// repoCheck returns the pre-flight repository check, or nil when
// --skip-check is set or no API client can be built.
func repoCheck(cmd *cobra.Command, token string) batch.CheckFunc {
	if skip, _ := cmd.Flags().GetBool("skip-check"); skip {
		return nil
	}
	gh, err := ghrepo.NewClient(token)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: repository pre-flight disabled: %v\n", err)
		return nil
	}
	return gh.CheckRepo
}

func sealArtifacts(cmd *cobra.Command, artifacts []string) error {
	path, _ := cmd.Flags().GetString("archive")
	if path == "" {
		return nil
	}
	if len(artifacts) == 0 {
		fmt.Fprintln(os.Stderr, "Warning: no artifacts to archive")
		return nil
	}
	passphrase, _ := cmd.Flags().GetString("passphrase")
	passphrase = secretDefault("archive-passphrase", passphrase)
	if err := archive.Create(path, passphrase, artifacts); err != nil {
		return fmt.Errorf("archiving artifacts: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Archived %d artifact(s) to %s\n", len(artifacts), path)
	return nil
}

func pushArtifacts(cmd *cobra.Command, repoURL, token string, artifacts []string) error {
	if push, _ := cmd.Flags().GetBool("push"); !push {
		return nil
	}
	if len(artifacts) == 0 {
		fmt.Fprintln(os.Stderr, "Warning: no artifacts to push")
		return nil
	}

	folder, _ := cmd.Flags().GetString("folder")
	branch, _ := cmd.Flags().GetString("branch")
	cfg := types.PushConfig{Folder: folder, Branch: branch, Token: token}

	owner, repo, err := ghrepo.Parse(repoURL)
	if err != nil {
		return err
	}
	gh, err := ghrepo.NewClient(token)
	if err != nil {
		return fmt.Errorf("building GitHub client: %w", err)
	}

	pushed, err := gh.Push(owner, repo, cfg, artifacts, os.Stderr)
	if err != nil {
		return fmt.Errorf("pushed %d artifact(s) before failing: %w", pushed, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pushed %d artifact(s) to %s/%s/%s\n", pushed, owner, repo, folder)
	return nil
}
