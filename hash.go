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

import "github.com/cespare/xxhash/v2"

// Hasher computes the 32-bit hash of a key. It must be deterministic: the
// Map caches the result per slot and compares cached hashes during probing
// and resizing.
type Hasher func(key []byte) uint32

const (
	offset32 = 2166136261
	prime32  = 16777619
)

// FNV1a computes the 32-bit FNV-1a hash of key. It is the default Hasher.
// It is not resistant to adversarial keys.
func FNV1a(key []byte) uint32 {
	h := uint32(offset32)
	for _, c := range key {
		h ^= uint32(c)
		h *= prime32
	}
	return h
}

// XXHash folds the 64-bit xxHash of key to 32 bits by truncation.
func XXHash(key []byte) uint32 {
	return uint32(xxhash.Sum64(key))
}
