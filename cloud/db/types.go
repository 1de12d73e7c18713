// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package db

// Bake records one bake run, partial or complete.
type Bake struct {
	Name     string `dynamo:"name" json:"name"`
	Location string `dynamo:"location" json:"location"` // filesystem the frames were written to
	Spectrum string `dynamo:"spectrum" json:"spectrum"`
	Seed     int64  `dynamo:"seed" json:"seed"`
	Start    int    `dynamo:"start" json:"start"`
	End      int    `dynamo:"end" json:"end"`
	Frames   int    `dynamo:"frames" json:"frames"` // frames written so far
	Baked    bool   `dynamo:"baked" json:"baked"`
	Updated  int64  `dynamo:"updated" json:"updated"` // unix millis
	TTL      int64  `dynamo:"ttl,omitempty" json:"-"`
}
