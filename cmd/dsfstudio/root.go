/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"dsfstudio/internal/config"
	applog "dsfstudio/internal/log"
	"dsfstudio/internal/telemetry"
	"dsfstudio/internal/version"
)

var rootFlags struct {
	configPath string
	storeURL   string
	logLevel   string
}

// cfg is loaded before any command runs.
var cfg config.AppConfig

var rootCmd = &cobra.Command{
	Use:               "dsfstudio",
	Short:             "Author multilingual digital comics made of image and text sections",
	Version:           version.Version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		telemetry.Flush(cmd.Context())
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.configPath, "config", "", "config file (default is the user config dir)")
	pf.StringVar(&rootFlags.storeURL, "store", "", "work store URL: dir://, sqlite://, postgres:// or https://")
	pf.StringVar(&rootFlags.logLevel, "log-level", "", "debug, info, warn or error")
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func setup(cmd *cobra.Command, _ []string) error {
	var err error
	if rootFlags.configPath != "" {
		cfg, err = config.LoadFrom(rootFlags.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if rootFlags.storeURL != "" {
		cfg.Store.URL = rootFlags.storeURL
	}
	if rootFlags.logLevel != "" {
		cfg.Logging.Level = rootFlags.logLevel
	}
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	telemetry.NewDefault(telemetry.FromConfig(cfg.Telemetry))
	if dir, err := config.ConfigDir(); err == nil {
		session.Dir = filepath.Join(dir, "crash")
	}
	applog.WithComponent("cli").Debug("start", slog.String("command", cmd.CommandPath()), slog.String("store", cfg.Store.URL))
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

func init() { rootCmd.AddCommand(versionCmd) }
