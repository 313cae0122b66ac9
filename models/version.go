// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Nikita Delyukov

package models

import (
	"fmt"
	"strconv"
	"strings"
)

// CurrentProtocolVersion is the synchronization protocol revision spoken by
// this server. Clients compare it against their own last-known version to
// decide whether a full re-sync is required after an upgrade.
var CurrentProtocolVersion = ProtocolVersion{Major: 1, Minor: 2, Patch: 0}

// ProtocolVersion identifies a revision of the synchronization protocol as a
// three-component tuple. It is distinct from the per-entity integer version
// used for optimistic concurrency ([EntityVersion.Version]).
type ProtocolVersion struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

// ParseProtocolVersion parses a "major.minor.patch" string.
// All three components must be present and non-negative.
func ParseProtocolVersion(s string) (ProtocolVersion, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return ProtocolVersion{}, fmt.Errorf("invalid protocol version %q: want major.minor.patch", s)
	}

	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return ProtocolVersion{}, fmt.Errorf("invalid protocol version component %q in %q", part, s)
		}
		nums[i] = n
	}

	return ProtocolVersion{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// Compare orders two protocol versions lexicographically component by
// component. It returns -1 when v is older than other, 0 when equal,
// and +1 when v is newer.
func (v ProtocolVersion) Compare(other ProtocolVersion) int {
	pairs := [3][2]int{
		{v.Major, other.Major},
		{v.Minor, other.Minor},
		{v.Patch, other.Patch},
	}
	for _, p := range pairs {
		switch {
		case p[0] < p[1]:
			return -1
		case p[0] > p[1]:
			return 1
		}
	}
	return 0
}

// String returns the canonical "major.minor.patch" form.
func (v ProtocolVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}
