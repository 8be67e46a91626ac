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

import "unsafe"

// StrKey returns the bytes of s as a key without copying. The result shares
// memory with s and must not be modified; the map never writes to keys, so
// it is safe to store. It is intended for string literals, whose lifetime is
// the whole program.
func StrKey(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// KeysWithValue returns the keys of all entries whose value equals v, in
// insertion order. It walks the whole map.
func KeysWithValue[V comparable](c Container[V], v V) [][]byte {
	var keys [][]byte
	c.All(func(key []byte, value V) bool {
		if value == v {
			keys = append(keys, key)
		}
		return true
	})
	return keys
}
