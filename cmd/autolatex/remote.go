// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/berkanimo/autolatex/internal/document"
	"github.com/berkanimo/autolatex/internal/history"
	"github.com/berkanimo/autolatex/internal/remote"
	"github.com/berkanimo/autolatex/pkg/types"
)

var remoteCmd = &cobra.Command{
	Use:   "remote [files...]",
	Short: "Compile through a hosted compile service",
	Long: `Remote compiles documents without a local TeX installation. With file
arguments the document content is uploaded to the content-mode service. With
--repo and --path the reference-mode service compiles the file straight out
of the GitHub repository; --raw instead fetches the file over
raw.githubusercontent.com and uploads its content.`,
	RunE: runRemote,
}

func init() {
	remoteCmd.Flags().String("repo", "", "GitHub repository URL for reference-mode compiles")
	remoteCmd.Flags().String("path", "", "path of the .tex file inside the repository")
	remoteCmd.Flags().Bool("raw", false, "fetch the repository file raw and compile it content-mode")
	remoteCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 90s)")

	rootCmd.AddCommand(remoteCmd)
}

func runRemote(cmd *cobra.Command, args []string) error {
	repoURL, _ := cmd.Flags().GetString("repo")
	target, _ := cmd.Flags().GetString("path")
	raw, _ := cmd.Flags().GetBool("raw")

	if repoURL == "" && len(args) == 0 {
		return fmt.Errorf("provide files to upload, or --repo and --path")
	}
	if repoURL != "" && target == "" {
		return fmt.Errorf("--repo requires --path")
	}

	workdir, err := workDir(cmd)
	if err != nil {
		return err
	}
	cfg := remoteConfig(cmd, workdir)
	client := &http.Client{Timeout: cfg.Timeout}

	store, err := history.Open(workdir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: compile history unavailable: %v\n", err)
	} else {
		defer store.Close()
	}

	failed := 0
	report := func(source string, res types.Result) {
		if store != nil {
			if err := store.Record(history.ModeRemote, source, res); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: recording compile history: %v\n", err)
			}
		}
		if res.OK() {
			fmt.Fprintf(cmd.OutOrStdout(), "Compiled: %s -> %s\n", source, res.ArtifactPath)
		} else {
			fmt.Fprintf(os.Stderr, "Failed: %s\n%s\n", source, res.Log)
			failed++
		}
	}

	if repoURL != "" {
		source := repoURL + " " + target
		if raw {
			report(source, remote.CompileRaw(cmd.Context(), client, repoURL, target, cfg, os.Stderr))
		} else {
			report(source, remote.CompileReference(client, repoURL, target, cfg, os.Stderr))
		}
	}

	for _, arg := range args {
		name := filepath.Base(arg)
		content, err := os.ReadFile(arg)
		if err != nil {
			report(arg, types.Failure(fmt.Sprintf("reading %s: %v", arg, err)))
			continue
		}
		if document.IsPlainText(name) && !document.HasPreamble(bytes.NewReader(content)) {
			report(arg, types.Failure(fmt.Sprintf("skipped: %s has no LaTeX preamble", name)))
			continue
		}
		report(arg, remote.CompileContent(client, name, content, cfg, os.Stderr))
	}

	if failed > 0 {
		return fmt.Errorf("%d document(s) failed to compile", failed)
	}
	return nil
}
