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

package bytemap

import (
	"hash/fnv"
	"math/rand"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/require"
)

func TestFNV1a(t *testing.T) {
	testCases := []struct {
		key      string
		expected uint32
	}{
		{"", 0x811c9dc5},
		{"a", 0xe40c292c},
		{"foobar", 0xbf9cf968},
	}
	for _, c := range testCases {
		t.Run(c.key, func(t *testing.T) {
			require.EqualValues(t, c.expected, FNV1a([]byte(c.key)))
		})
	}

	// Cross-check against the standard library on random input, including
	// bytes with the high bit set.
	buf := make([]byte, 64)
	for i := 0; i < 100; i++ {
		b := buf[:rand.Intn(len(buf))]
		rand.Read(b)
		h := fnv.New32a()
		_, _ = h.Write(b)
		require.Equal(t, h.Sum32(), FNV1a(b))
	}
}

func TestXXHash(t *testing.T) {
	for _, k := range []string{"", "a", "foobar"} {
		require.Equal(t, uint32(xxhash.Sum64String(k)), XXHash([]byte(k)))
	}
	require.NotEqual(t, XXHash([]byte("a")), XXHash([]byte("b")))
}
