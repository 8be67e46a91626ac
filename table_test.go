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
	"testing"

	"github.com/stretchr/testify/require"
)

// chain returns the slot indexes on the insertion-order chain, tombstones
// included.
func (t *table[V]) chain() []int {
	var r []int
	for i := t.first; i != chainEnd; i = t.slots[i].next {
		r = append(r, i)
	}
	return r
}

func TestChainAnchors(t *testing.T) {
	m, err := New[int](WithHasher[int](constHasher(3)))
	require.NoError(t, err)

	// An empty chain appends through first itself.
	require.Equal(t, chainEnd, m.first)
	require.Same(t, &m.first, m.tail)

	_, err = m.Set(StrKey("a"), 1)
	require.NoError(t, err)
	require.Equal(t, 3, m.first)
	require.Same(t, &m.slots[3].next, m.tail)
	require.Equal(t, chainEnd, m.slots[3].next)

	_, err = m.Set(StrKey("b"), 2)
	require.NoError(t, err)
	require.Equal(t, []int{3, 4}, m.chain())
	require.Same(t, &m.slots[4].next, m.tail)

	// Overwrites leave the chain alone.
	_, err = m.Set(StrKey("a"), 3)
	require.NoError(t, err)
	require.Equal(t, []int{3, 4}, m.chain())

	require.NoError(t, m.resize(2*m.Capacity()))
	require.Equal(t, []int{3, 4}, m.chain())
	require.Same(t, &m.slots[4].next, m.tail)

	m.Clear()
	require.Equal(t, chainEnd, m.first)
	require.Same(t, &m.first, m.tail)
}

func TestFindSkipsTombstones(t *testing.T) {
	m, err := NewRemovable[int](WithHasher[int](constHasher(0)))
	require.NoError(t, err)
	for i, k := range []string{"a", "b", "c"} {
		_, err := m.Set(StrKey(k), i)
		require.NoError(t, err)
	}
	require.True(t, m.Remove(StrKey("b")))
	require.Equal(t, "1x100000000000000000", m.BucketDump())

	// "c" sits behind the tombstone and stays reachable.
	v, ok := m.Get(StrKey("c"))
	require.True(t, ok)
	require.Equal(t, 2, v)

	// A miss probes past the tombstone to the first empty slot.
	require.Equal(t, 3, m.find(StrKey("b"), 0))

	// The tombstone is still chained but not iterated.
	require.Equal(t, []int{0, 1, 2}, m.chain())
	require.Equal(t, []entry{{"a", 0}, {"c", 2}}, entries(m))
}

func TestResizeDropsTombstones(t *testing.T) {
	m, err := NewRemovable[int]()
	require.NoError(t, err)
	keys := makeKeys(12)
	for i, k := range keys {
		_, err := m.Set(k, i)
		require.NoError(t, err)
	}
	for i := 0; i < len(keys); i += 2 {
		require.True(t, m.Remove(keys[i]))
	}
	require.Equal(t, 12, m.used)
	require.Equal(t, 6, m.tombstones)

	require.NoError(t, m.resize(2*m.Capacity()))
	require.Equal(t, 6, m.used)
	require.Equal(t, 0, m.tombstones)
	require.Equal(t, 6, m.Len())
	require.Len(t, m.chain(), 6)

	var want []entry
	for i := 1; i < len(keys); i += 2 {
		want = append(want, entry{string(keys[i]), i})
	}
	require.Equal(t, want, entries(m))
}

func TestHashOncePerOperation(t *testing.T) {
	if invariants {
		t.Skip("invariant checks rehash every key")
	}

	var hashed int
	h := func(k []byte) uint32 {
		hashed++
		return uint32(len(k))
	}
	m, err := New[int](WithHasher[int](h))
	require.NoError(t, err)

	// Same length and same home slot, different bytes.
	_, err = m.Set(StrKey("ab"), 1)
	require.NoError(t, err)
	_, err = m.Set(StrKey("cd"), 2)
	require.NoError(t, err)
	v, ok := m.Get(StrKey("cd"))
	require.True(t, ok)
	require.Equal(t, 2, v)

	// The hash runs once per operation; probing reuses the cached hashes.
	require.Equal(t, 3, hashed)
}

func TestDebugString(t *testing.T) {
	m, err := NewRemovable[int](WithCapacity[int](4), WithHasher[int](constHasher(1)))
	require.NoError(t, err)
	_, err = m.Set(StrKey("a"), 1)
	require.NoError(t, err)
	_, err = m.Set(StrKey("b"), 2)
	require.NoError(t, err)
	require.True(t, m.Remove(StrKey("a")))

	expected := "capacity=4  used=2  tombstones=1  first=1\n" +
		"     0: empty\n" +
		"     1: tombstone [next=2]\n" +
		"     2: \"b\" [hash=00000001 home=1 next=-1]\n" +
		"     3: empty\n"
	require.Equal(t, expected, m.debugString())
}
