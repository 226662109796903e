// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the autolatex CLI. Each
// compilation surface is a subcommand: compile (local pdflatex), remote
// (hosted compile services), batch (concurrent reference-mode runs),
// plus archive, push, cleanup, history and the serve web frontend.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/berkanimo/autolatex/internal/secrets"
	"github.com/berkanimo/autolatex/pkg/types"
)

const (
	defaultTimeout   = 90 * time.Second
	defaultUserAgent = "autolatex/0.1"
	defaultWorkDir   = "workspace"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback if set, otherwise the secret value for
// key if one was loaded.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the autolatex CLI.
var rootCmd = &cobra.Command{
	Use:   "autolatex",
	Short: "Compile LaTeX documents locally, remotely, and in batches",
	Long: `autolatex turns LaTeX sources into PDFs through three surfaces: a local
pdflatex subprocess, hosted compile services (content upload or straight out
of a GitHub repository), and a concurrent batch runner that keeps results in
input order.

Finished PDFs can be sealed into an encrypted archive or pushed back to a
GitHub repository.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./autolatex.yaml or ~/.config/autolatex/config.yaml)")
	rootCmd.PersistentFlags().String("workdir", "", "working directory for staged inputs and artifacts (default: workspace)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("autolatex")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "autolatex"))
		}
	}

	viper.SetEnvPrefix("AUTOLATEX")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// workDir resolves the working directory from the flag, the config
// file, or the default, and creates it.
func workDir(cmd *cobra.Command) (string, error) {
	dir, _ := cmd.Flags().GetString("workdir")
	if dir == "" {
		dir = viper.GetString("workdir")
	}
	if dir == "" {
		dir = defaultWorkDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating working directory: %w", err)
	}
	return dir, nil
}

// remoteConfig assembles the remote-service settings shared by the
// remote and batch subcommands.
func remoteConfig(cmd *cobra.Command, workdir string) types.RemoteConfig {
	cfg := types.RemoteConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   defaultTimeout,
			UserAgent: defaultUserAgent,
		},
		WorkDir:           workdir,
		ContentEndpoint:   viper.GetString("remote.content_endpoint"),
		ReferenceEndpoint: viper.GetString("remote.reference_endpoint"),
		Compiler:          viper.GetString("remote.compiler"),
		Branches:          viper.GetStringSlice("remote.branches"),
	}
	if t, err := cmd.Flags().GetDuration("timeout"); err == nil && t > 0 {
		cfg.Timeout = t
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
