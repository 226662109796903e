// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/berkanimo/autolatex/internal/compiler"
	"github.com/berkanimo/autolatex/internal/document"
	"github.com/berkanimo/autolatex/internal/history"
	"github.com/berkanimo/autolatex/pkg/types"
)

var compileCmd = &cobra.Command{
	Use:   "compile [files...]",
	Short: "Compile LaTeX documents with a local pdflatex",
	Long: `Compile stages each input file in the working directory and runs pdflatex
on it. A .txt input is compiled only if it begins with a LaTeX preamble, in
which case it is renamed to .tex first. Auxiliary files left behind by
pdflatex are removed unless --keep-aux is set.`,
	RunE: runCompile,
}

func init() {
	compileCmd.Flags().String("pdflatex", "", "explicit path to the pdflatex executable")
	compileCmd.Flags().String("output-dir", "", "move produced PDFs here after a successful compile")
	compileCmd.Flags().Duration("timeout", 0, "timeout per pdflatex run (default 60s)")
	compileCmd.Flags().Bool("keep-aux", false, "keep .aux/.log/.out and other auxiliary files")

	rootCmd.AddCommand(compileCmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more .tex or .txt files")
	}

	workdir, err := workDir(cmd)
	if err != nil {
		return err
	}

	pdflatex, _ := cmd.Flags().GetString("pdflatex")
	if pdflatex == "" {
		pdflatex = viper.GetString("local.pdflatex_path")
	}
	outputDir, _ := cmd.Flags().GetString("output-dir")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	keepAux, _ := cmd.Flags().GetBool("keep-aux")

	cfg := types.LocalConfig{
		WorkDir:        workdir,
		OutputDir:      outputDir,
		PdflatexPath:   pdflatex,
		CompileTimeout: timeout,
	}

	store, err := history.Open(workdir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: compile history unavailable: %v\n", err)
	} else {
		defer store.Close()
	}

	failed := 0
	bases := make([]string, 0, len(args))
	for _, arg := range args {
		name, err := stageInput(workdir, arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed: %s: %v\n", arg, err)
			failed++
			continue
		}

		res := compiler.Compile(name, cfg, os.Stderr)
		bases = append(bases, document.Stem(name))
		if store != nil {
			if err := store.Record(history.ModeLocal, name, res); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: recording compile history: %v\n", err)
			}
		}
		if res.OK() {
			fmt.Fprintf(cmd.OutOrStdout(), "Compiled: %s -> %s\n", arg, res.ArtifactPath)
		} else {
			fmt.Fprintf(os.Stderr, "Failed: %s\n%s\n", arg, res.Log)
			failed++
		}
	}

	if !keepAux {
		compiler.Cleanup(workdir, bases, true, os.Stderr)
	}

	if failed > 0 {
		return fmt.Errorf("%d document(s) failed to compile", failed)
	}
	return nil
}

// stageInput copies an input file into the working directory if it is
// not already there, returning the staged base name.
func stageInput(workdir, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("staging %s: %w", path, err)
	}
	if err := document.CheckSize(filepath.Base(path), info.Size()); err != nil {
		return "", err
	}

	name := filepath.Base(path)
	dst := filepath.Join(workdir, name)
	if abs, err := filepath.Abs(path); err == nil {
		if staged, err2 := filepath.Abs(dst); err2 == nil && abs == staged {
			return name, nil
		}
	}

	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("staging %s: %w", path, err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("staging %s: %w", path, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return "", fmt.Errorf("staging %s: %w", path, err)
	}
	return name, nil
}
