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

import "strings"

// Stats describes the occupancy of a Map's slot array.
type Stats struct {
	Len        int `yaml:"len"`
	Capacity   int `yaml:"capacity"`
	Tombstones int `yaml:"tombstones"`
	// LoadFactor counts tombstones as occupied, matching the growth check.
	LoadFactor float64 `yaml:"load_factor"`
	// MaxProbe and MeanProbe are the distances of live entries from their
	// home slot.
	MaxProbe  int     `yaml:"max_probe"`
	MeanProbe float64 `yaml:"mean_probe"`
}

// Stats returns occupancy statistics. It scans the whole slot array.
func (m *Map[V]) Stats() Stats {
	capacity := len(m.slots)
	st := Stats{
		Len:        m.len(),
		Capacity:   capacity,
		Tombstones: m.tombstones,
	}
	if capacity == 0 {
		return st
	}
	st.LoadFactor = float64(m.used) / float64(capacity)

	var total int
	for i := range m.slots {
		s := &m.slots[i]
		if s.state != slotLive {
			continue
		}
		d := (i - int(s.hash%uint32(capacity)) + capacity) % capacity
		total += d
		st.MaxProbe = max(st.MaxProbe, d)
	}
	if st.Len > 0 {
		st.MeanProbe = float64(total) / float64(st.Len)
	}
	return st
}

// BucketDump renders the slot array with one character per slot: '0' for
// empty, '1' for live and 'x' for a tombstone. Runs of '1' show clustering.
func (m *Map[V]) BucketDump() string {
	var buf strings.Builder
	buf.Grow(len(m.slots))
	for i := range m.slots {
		switch m.slots[i].state {
		case slotEmpty:
			buf.WriteByte('0')
		case slotLive:
			buf.WriteByte('1')
		default:
			buf.WriteByte('x')
		}
	}
	return buf.String()
}
