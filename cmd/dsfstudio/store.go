/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"dsfstudio/internal/backend"
	"dsfstudio/internal/config"
	"dsfstudio/internal/document"
	"dsfstudio/internal/domain"
	applog "dsfstudio/internal/log"
	"dsfstudio/internal/storage"
)

// openStore maps a store URL to an implementation. The returned close
// function is never nil.
func openStore(ctx context.Context, raw string) (storage.Store, func() error, error) {
	noop := func() error { return nil }
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return nil, noop, errors.New("no store configured; set --store or store.url")
	case strings.HasPrefix(raw, "sqlite://"):
		s, err := storage.OpenSQLite(strings.TrimPrefix(raw, "sqlite://"))
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		s, err := backend.OpenPG(ctx, raw)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		token, err := config.Token()
		if err != nil {
			applog.WithComponent("cli").Warn("keyring unavailable; continuing without token")
		}
		return backend.NewClient(raw, token), noop, nil
	default:
		s, err := storage.NewFileStore(strings.TrimPrefix(raw, "dir://"))
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	}
}

// withStore runs fn against the configured store with the store timeout.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, s storage.Store) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Store.Timeout())
	defer cancel()
	s, closeFn, err := openStore(ctx, cfg.Store.URL)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()
	return fn(ctx, s)
}

var saveCmd = &cobra.Command{
	Use:   "save <file>",
	Short: "Save a project file to the work store",
	Long:  "Save a project file to the work store. A project without an id gets one, and the id is written back to the file so later saves update the same work.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := readDoc(args[0])
		if err != nil {
			return err
		}
		return withStore(cmd, func(ctx context.Context, s storage.Store) error {
			wasNew := d.Project.ID.IsNull()
			id, err := s.Put(applog.WithProject(ctx, d.Project.ID.String()), &d.Project)
			if err != nil {
				return err
			}
			if wasNew && args[0] != "-" {
				if err := writeDoc(args[0], d); err != nil {
					return fmt.Errorf("record id in %s: %w", args[0], err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		})
	},
}

var loadOut string

var loadCmd = &cobra.Command{
	Use:   "load <id>",
	Short: "Load a work from the store into a file (or stdout)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, s storage.Store) error {
			p, err := s.Get(ctx, args[0])
			if err != nil {
				return err
			}
			d := document.FromProject(p)
			session.Doc = d
			return writeDoc(loadOut, d)
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List works in the store, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(cmd, func(ctx context.Context, s storage.Store) error {
			works, err := s.List(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tSECTIONS\tLANGUAGES\tUPDATED\tPREVIEW")
			for _, w := range works {
				title := w.Title
				if title == "" {
					title = "(untitled)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n", w.ID, title, w.Sections, strings.Join(w.Languages, ","), w.UpdatedAt.Local().Format(time.DateTime), w.Preview)
			}
			return tw.Flush()
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a work from the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !promptConfirmer(os.Stdin, cmd.ErrOrStderr()).Confirm(fmt.Sprintf("Delete work %s?", args[0])) {
			return document.ErrCancelled
		}
		return withStore(cmd, func(ctx context.Context, s storage.Store) error {
			return s.Delete(ctx, args[0])
		})
	},
}

// revisionStore is implemented by stores that keep history.
type revisionStore interface {
	Revisions(ctx context.Context, id string) ([]storage.Revision, error)
	Revision(ctx context.Context, id string, ver int) (domain.Project, error)
	PruneRevisions(ctx context.Context, id string, keep int) (int64, error)
}

var revArgs struct {
	show  int
	out   string
	prune int
}

var revisionsCmd = &cobra.Command{
	Use:   "revisions <id>",
	Short: "List, restore or prune saved versions of a work",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		return withStore(cmd, func(ctx context.Context, s storage.Store) error {
			if fs, ok := s.(*storage.FileStore); ok {
				backups, err := fs.Backups(id)
				if err != nil {
					return err
				}
				for _, b := range backups {
					fmt.Fprintln(cmd.OutOrStdout(), b)
				}
				return nil
			}
			rs, ok := s.(revisionStore)
			if !ok {
				return fmt.Errorf("store %s keeps no revisions", cfg.Store.URL)
			}
			switch {
			case revArgs.show > 0:
				p, err := rs.Revision(ctx, id, revArgs.show)
				if err != nil {
					return err
				}
				return writeDoc(revArgs.out, document.FromProject(p))
			case revArgs.prune > 0:
				n, err := rs.PruneRevisions(ctx, id, revArgs.prune)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d revision(s)\n", n)
				return nil
			}
			revs, err := rs.Revisions(ctx, id)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VERSION\tSAVED\tBYTES")
			for _, r := range revs {
				fmt.Fprintf(tw, "%d\t%s\t%d\n", r.Version, r.CreatedAt.Local().Format(time.DateTime), r.Size)
			}
			return tw.Flush()
		})
	},
}

func init() {
	loadCmd.Flags().StringVarP(&loadOut, "out", "o", "-", "output file")
	revisionsCmd.Flags().IntVar(&revArgs.show, "show", 0, "write revision N instead of listing")
	revisionsCmd.Flags().StringVarP(&revArgs.out, "out", "o", "-", "output file for --show")
	revisionsCmd.Flags().IntVar(&revArgs.prune, "prune", 0, "keep only the newest N revisions")
	rootCmd.AddCommand(saveCmd, loadCmd, listCmd, deleteCmd, revisionsCmd)
}
