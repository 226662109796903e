// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/berkanimo/autolatex/internal/compiler"
	"github.com/berkanimo/autolatex/internal/document"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup [names...]",
	Short: "Remove auxiliary files left by pdflatex",
	Long: `Cleanup removes the .aux, .log, .out, .toc, .synctex.gz, .nav and .snm
files a pdflatex run leaves in the working directory. Names may be given
with or without an extension; with no arguments every .tex file in the
working directory is cleaned. Already-removed files are skipped silently.`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	workdir, err := workDir(cmd)
	if err != nil {
		return err
	}

	bases := make([]string, 0, len(args))
	for _, arg := range args {
		bases = append(bases, document.Stem(arg))
	}
	if len(bases) == 0 {
		entries, err := os.ReadDir(workdir)
		if err != nil {
			return fmt.Errorf("reading working directory: %w", err)
		}
		for _, e := range entries {
			if !e.IsDir() && document.IsCompilable(e.Name()) {
				bases = append(bases, document.Stem(e.Name()))
			}
		}
	}

	removed := compiler.Cleanup(workdir, bases, false, os.Stderr)
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d auxiliary file(s)\n", removed)
	return nil
}
