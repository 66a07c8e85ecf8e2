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
	"os"

	"github.com/spf13/cobra"

	"dsfstudio/internal/bundle"
	"dsfstudio/internal/document"
	"dsfstudio/internal/media"
)

var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Move a work and its uploaded images as one zip file",
}

var bundlePackCmd = &cobra.Command{
	Use:   "pack <file> <out.zip>",
	Short: "Pack a project and the images it references",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := readDoc(args[0])
		if err != nil {
			return err
		}
		blobs, err := media.NewBlobDir(cfg.Media.BlobDir)
		if err != nil {
			return err
		}
		if err := bundle.Pack(args[1], d.Project, blobs); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "packed %s (%d images)\n", args[1], len(bundle.Refs(d.Project)))
		return nil
	},
}

var bundleForce bool

var bundleUnpackCmd = &cobra.Command{
	Use:   "unpack <bundle.zip> <file>",
	Short: "Install a bundle's images and write its project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(args[1]); err == nil && !bundleForce {
			return fmt.Errorf("%s exists; use --force to replace it", args[1])
		}
		blobs, err := media.NewBlobDir(cfg.Media.BlobDir)
		if err != nil {
			return err
		}
		p, n, err := bundle.Unpack(args[0], blobs)
		if err != nil {
			return err
		}
		d := document.FromProject(p)
		session.Doc = d
		if err := writeDoc(args[1], d); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s, installed %d images\n", args[1], n)
		return nil
	},
}

func init() {
	bundleUnpackCmd.Flags().BoolVarP(&bundleForce, "force", "f", false, "replace an existing file")
	bundleCmd.AddCommand(bundlePackCmd, bundleUnpackCmd)
	rootCmd.AddCommand(bundleCmd)
}
