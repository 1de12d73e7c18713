// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package db

import (
	"sort"
	"sync"
)

// MemoryIndex is an Index for offline use and tests.
type MemoryIndex struct {
	mutex sync.Mutex
	bakes map[string]Bake
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{bakes: make(map[string]Bake)}
}

func (m *MemoryIndex) UpdateBake(bake Bake) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if old, ok := m.bakes[bake.Name]; ok && old.Updated > bake.Updated {
		return nil
	}
	m.bakes[bake.Name] = bake
	return nil
}

func (m *MemoryIndex) ReadBake(name string) (Bake, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	bake, ok := m.bakes[name]
	if !ok {
		return Bake{}, ErrNotFound
	}
	return bake, nil
}

// ReadBakes returns every bake sorted by name.
func (m *MemoryIndex) ReadBakes() ([]Bake, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	bakes := make([]Bake, 0, len(m.bakes))
	for _, bake := range m.bakes {
		bakes = append(bakes, bake)
	}
	sort.Slice(bakes, func(i, j int) bool {
		return bakes[i].Name < bakes[j].Name
	})
	return bakes, nil
}
