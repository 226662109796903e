// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/berkanimo/autolatex/internal/texbin"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Locate and probe the pdflatex executable",
	Long: `Validate resolves the pdflatex executable from the --pdflatex flag, the
config file, or $PATH, probing known install-path variants, and confirms it
actually is pdfTeX by running it with --version.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().String("pdflatex", "", "explicit path to the pdflatex executable")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	explicit, _ := cmd.Flags().GetString("pdflatex")
	if explicit == "" {
		explicit = viper.GetString("local.pdflatex_path")
	}

	path, err := texbin.Find(explicit)
	if err != nil {
		return fmt.Errorf("validating pdflatex: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "pdflatex OK: %s\n", path)
	return nil
}
