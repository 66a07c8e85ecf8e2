/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dsfstudio/internal/backend"
	"dsfstudio/internal/config"
	"dsfstudio/internal/document"
	applog "dsfstudio/internal/log"
	"dsfstudio/internal/media"
)

var serveArgs struct {
	addr string
	db   string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the works API over Postgres or the local store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		addr := serveArgs.addr
		if addr == "" {
			addr = cfg.Backend.Addr
		}
		dsn := serveArgs.db
		if dsn == "" {
			dsn = cfg.Backend.DatabaseURL
		}
		storeURL := cfg.Store.URL
		if dsn != "" {
			storeURL = dsn
		}
		if strings.HasPrefix(storeURL, "http://") || strings.HasPrefix(storeURL, "https://") {
			return fmt.Errorf("serve needs a local or Postgres store, not %s", storeURL)
		}
		s, closeFn, err := openStore(cmd.Context(), storeURL)
		if err != nil {
			return err
		}
		defer func() { _ = closeFn() }()
		applog.WithComponent("cli").Info("serving works", slog.String("addr", addr))
		return backend.NewServer(s, cfg.Backend.AuthSecret).Run(cmd.Context(), addr)
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the remote store token in the OS keychain",
}

var tokenSetCmd = &cobra.Command{
	Use:   "set <token>",
	Short: "Save a token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return config.SetToken(strings.TrimSpace(args[0]))
	},
}

var tokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the saved token",
	Args:  cobra.NoArgs,
	RunE:  func(cmd *cobra.Command, _ []string) error { return config.DeleteToken() },
}

var tokenIssueArgs struct {
	subject string
	ttl     time.Duration
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Request a token from the remote store and save it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		url := cfg.Store.URL
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			return fmt.Errorf("store %s is not remote", url)
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Store.Timeout())
		defer cancel()
		tok, err := backend.NewClient(url, "").Token(ctx, tokenIssueArgs.subject, tokenIssueArgs.ttl)
		if err != nil {
			return err
		}
		if err := config.SetToken(tok.Token); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Token saved, expires %s\n", tok.ExpiresAt)
		return nil
	},
}

var uploadArgs struct {
	thumb   bool
	file    string
	section int
}

var uploadCmd = &cobra.Command{
	Use:   "upload <image>",
	Short: "Compress an image into the blob store and print its reference",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		blobs, err := media.NewBlobDir(cfg.Media.BlobDir)
		if err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		data, info, err := media.Compress(f, cfg.Media.MaxWidth, cfg.Media.JPEGQuality)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(args[0]), err)
		}
		ref, err := blobs.Upload(data, "jpg")
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s  %dx%d %s %d bytes\n", ref, info.Width, info.Height, info.Format, info.Bytes)
		if uploadArgs.thumb {
			thumb, err := media.Thumbnail(bytes.NewReader(data), cfg.Editor.ThumbSize)
			if err != nil {
				return err
			}
			tref, err := blobs.Upload(thumb, "jpg")
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s  thumbnail %s\n", tref, cfg.Editor.ThumbSize)
		}
		if uploadArgs.file == "" {
			return nil
		}
		return editFile(uploadArgs.file, func(e *document.Editor) error {
			if err := e.ChangeSection(uploadArgs.section - 1); err != nil {
				return err
			}
			return e.UpdateSectionField("background", ref)
		})
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveArgs.addr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().StringVar(&serveArgs.db, "db", "", "Postgres URL; overrides the store")

	tokenIssueCmd.Flags().StringVar(&tokenIssueArgs.subject, "subject", "", "token subject (default dev)")
	tokenIssueCmd.Flags().DurationVar(&tokenIssueArgs.ttl, "ttl", time.Hour, "token lifetime, at most 24h")
	tokenCmd.AddCommand(tokenSetCmd, tokenClearCmd, tokenIssueCmd)

	uploadCmd.Flags().BoolVar(&uploadArgs.thumb, "thumb", false, "also store a thumbnail in the configured size")
	uploadCmd.Flags().StringVar(&uploadArgs.file, "set", "", "project file whose section background becomes the upload")
	uploadCmd.Flags().IntVarP(&uploadArgs.section, "section", "s", 1, "section number for --set")

	rootCmd.AddCommand(serveCmd, tokenCmd, uploadCmd)
}
