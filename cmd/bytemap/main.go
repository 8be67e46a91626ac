// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command bytemap loads newline-delimited keys into a bytemap and reports how
// they are laid out in the slot array.
//
//	bytemap stats keys.txt
//	bytemap dump --hash=xxhash --remove-every=3 < keys.txt
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "bytemap",
		Short:        "Inspect how a set of keys lays out in a bytemap",
		SilenceUsage: true,
	}
	root.AddCommand(newStatsCommand(), newDumpCommand())
	return root
}
