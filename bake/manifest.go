// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package bake

import (
	"fmt"

	"github.com/SoftbearStudios/swell/cloud/fs"
	"github.com/SoftbearStudios/swell/ocean"
	jsoniter "github.com/json-iterator/go"
)

// ManifestName is written next to the frames when a bake starts and again once it completes.
const ManifestName = "manifest.json"

var json = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	CaseSensitive:          true,
}.Froze()

type manifest struct {
	Options     Options      `json:"options"`
	Params      ocean.Params `json:"params"`
	ResolutionX int          `json:"resolution_x"`
	ResolutionY int          `json:"resolution_y"`
	Times       []float64    `json:"times"`
	Baked       bool         `json:"baked"`
}

func readManifest(fs fs.Filesystem) (*manifest, error) {
	data, err := fs.ReadFile(ManifestName)
	if err != nil {
		return nil, err
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", ManifestName, err)
	}
	return &m, nil
}

func writeManifest(fs fs.Filesystem, m *manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return fs.WriteFile(ManifestName, data)
}
