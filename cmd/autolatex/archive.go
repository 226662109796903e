// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/berkanimo/autolatex/internal/archive"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Seal artifacts into, or extract from, an encrypted archive",
}

var archiveSealCmd = &cobra.Command{
	Use:   "seal <archive-file> [artifacts...]",
	Short: "Seal PDF artifacts into an encrypted archive",
	RunE:  runArchiveSeal,
}

var archiveExtractCmd = &cobra.Command{
	Use:   "extract <archive-file>",
	Short: "Extract an encrypted archive into the working directory",
	RunE:  runArchiveExtract,
}

func init() {
	archiveSealCmd.Flags().String("passphrase", "", "archive passphrase (default: archive-passphrase secret)")
	archiveExtractCmd.Flags().String("passphrase", "", "archive passphrase (default: archive-passphrase secret)")

	archiveCmd.AddCommand(archiveSealCmd)
	archiveCmd.AddCommand(archiveExtractCmd)
	rootCmd.AddCommand(archiveCmd)
}

func runArchiveSeal(cmd *cobra.Command, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("provide an archive file and at least one artifact")
	}

	passphrase, _ := cmd.Flags().GetString("passphrase")
	passphrase = secretDefault("archive-passphrase", passphrase)

	if err := archive.Create(args[0], passphrase, args[1:]); err != nil {
		return fmt.Errorf("sealing archive: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Sealed %d artifact(s) to %s\n", len(args)-1, args[0])
	return nil
}

func runArchiveExtract(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("provide exactly one archive file")
	}

	workdir, err := workDir(cmd)
	if err != nil {
		return err
	}
	passphrase, _ := cmd.Flags().GetString("passphrase")
	passphrase = secretDefault("archive-passphrase", passphrase)

	files, err := archive.Open(args[0], passphrase)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		dst := filepath.Join(workdir, filepath.Base(name))
		if err := os.WriteFile(dst, files[name], 0o644); err != nil {
			return fmt.Errorf("extracting %s: %w", name, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Extracted: %s\n", dst)
	}
	return nil
}
