// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/berkanimo/autolatex/internal/ghrepo"
	"github.com/berkanimo/autolatex/pkg/types"
)

var pushCmd = &cobra.Command{
	Use:   "push <repo-url> [artifacts...]",
	Short: "Push PDF artifacts back to a GitHub repository",
	Long: `Push uploads artifacts into a folder of the repository through the GitHub
contents API, creating the folder if it does not exist and updating files
that are already there. The first failed upload aborts the run.`,
	RunE: runPush,
}

func init() {
	pushCmd.Flags().String("folder", "compiled", "repository folder to push artifacts under")
	pushCmd.Flags().String("branch", "", "branch to push to (default: repository default branch)")
	pushCmd.Flags().String("token", "", "GitHub API token (default: github-token secret)")

	rootCmd.AddCommand(pushCmd)
}

func runPush(cmd *cobra.Command, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("provide a repository URL and at least one artifact")
	}
	repoURL, artifacts := args[0], args[1:]

	owner, repo, err := ghrepo.Parse(repoURL)
	if err != nil {
		return err
	}

	folder, _ := cmd.Flags().GetString("folder")
	branch, _ := cmd.Flags().GetString("branch")
	token, _ := cmd.Flags().GetString("token")
	token = secretDefault("github-token", token)
	cfg := types.PushConfig{Folder: folder, Branch: branch, Token: token}

	gh, err := ghrepo.NewClient(token)
	if err != nil {
		return fmt.Errorf("building GitHub client: %w", err)
	}
	if err := gh.CheckRepo(owner, repo); err != nil {
		return err
	}

	pushed, err := gh.Push(owner, repo, cfg, artifacts, os.Stderr)
	if err != nil {
		return fmt.Errorf("pushed %d artifact(s) before failing: %w", pushed, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pushed %d artifact(s) to %s/%s/%s\n", pushed, owner, repo, folder)
	return nil
}
