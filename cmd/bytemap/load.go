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

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/bytemap"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// hashFlag selects the Hasher by name.
type hashFlag string

var _ pflag.Value = (*hashFlag)(nil)

func (h *hashFlag) String() string {
	if *h == "" {
		return "fnv"
	}
	return string(*h)
}

func (h *hashFlag) Set(s string) error {
	switch s {
	case "fnv", "xxhash":
		*h = hashFlag(s)
		return nil
	}
	return fmt.Errorf("unknown hash %q (want fnv or xxhash)", s)
}

func (h *hashFlag) Type() string {
	return "hash"
}

func (h *hashFlag) hasher() bytemap.Hasher {
	if *h == "xxhash" {
		return bytemap.XXHash
	}
	return bytemap.FNV1a
}

type loadFlags struct {
	hash        hashFlag
	capacity    int
	removeEvery int
	// release, if set, sees every value the map drops.
	release func(int)
}

func (f *loadFlags) register(fs *pflag.FlagSet) {
	fs.Var(&f.hash, "hash", "hash function: fnv or xxhash")
	fs.IntVar(&f.capacity, "capacity", 0, "initial slot count (0 for the default)")
	fs.IntVar(&f.removeEvery, "remove-every", 0, "remove every Nth key after inserting it, leaving a tombstone")
}

// load inserts every line of the named files, or of stdin when there are
// none, with its 1-based line number as the value. Repeated lines overwrite.
func (f *loadFlags) load(cmd *cobra.Command, args []string) (_ *bytemap.OwnedMap[int], err error) {
	if f.removeEvery < 0 {
		return nil, fmt.Errorf("--remove-every must not be negative")
	}
	m, err := bytemap.NewOwned[int](f.release,
		bytemap.WithHasher[int](f.hash.hasher()),
		bytemap.WithCapacity[int](f.capacity))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			m.Close()
		}
	}()

	var line int
	read := func(r io.Reader) error {
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			line++
			if _, err := m.Set(sc.Bytes(), line); err != nil {
				return err
			}
			if f.removeEvery > 0 && line%f.removeEvery == 0 {
				m.Remove(sc.Bytes())
			}
		}
		return sc.Err()
	}

	if len(args) == 0 {
		if err := read(cmd.InOrStdin()); err != nil {
			return nil, err
		}
		return m, nil
	}
	for _, name := range args {
		file, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		err = read(file)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	return m, nil
}

func newStatsCommand() *cobra.Command {
	var flags loadFlags
	cmd := &cobra.Command{
		Use:   "stats [file...]",
		Short: "Print occupancy and probe-length statistics as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := flags.load(cmd, args)
			if err != nil {
				return err
			}
			defer m.Close()
			out, err := yaml.Marshal(m.Stats())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func newDumpCommand() *cobra.Command {
	var flags loadFlags
	cmd := &cobra.Command{
		Use:   "dump [file...]",
		Short: "Print one character per slot: 0 empty, 1 live, x removed",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := flags.load(cmd, args)
			if err != nil {
				return err
			}
			defer m.Close()
			_, err = fmt.Fprintln(cmd.OutOrStdout(), m.BucketDump())
			return err
		},
	}
	flags.register(cmd.Flags())
	return cmd
}
