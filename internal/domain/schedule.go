package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Schedule maps a frame index to the regions to blur in that frame. It is
// sparse: most frames have no entry. The wire format keys frames with
// stringified indices ("3"); ingestion parses them to int immediately so the
// rest of the system only ever sees integer indices.
type Schedule map[int][]Region

// Regions returns the regions scheduled for a frame index, or nil when the
// frame has no entry.
func (s Schedule) Regions(index int) []Region {
	if s == nil {
		return nil
	}
	return s[index]
}

// FrameCount returns the number of frames that have at least one region.
func (s Schedule) FrameCount() int {
	return len(s)
}

// RegionCount returns the total number of regions across all frames.
func (s Schedule) RegionCount() int {
	n := 0
	for _, regions := range s {
		n += len(regions)
	}
	return n
}

// UnmarshalJSON accepts objects keyed by stringified frame indices. Keys that
// do not parse as non-negative integers reject the whole document.
func (s *Schedule) UnmarshalJSON(data []byte) error {
	var raw map[string][]Region
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal schedule: %w", err)
	}

	out := make(Schedule, len(raw))
	for key, regions := range raw {
		index, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("schedule key %q is not a frame index", key)
		}
		if index < 0 {
			return fmt.Errorf("schedule key %q is negative", key)
		}
		out[index] = regions
	}

	*s = out
	return nil
}

// MarshalJSON emits string keys, the wire convention for frame indices.
func (s Schedule) MarshalJSON() ([]byte, error) {
	raw := make(map[string][]Region, len(s))
	for index, regions := range s {
		raw[strconv.Itoa(index)] = regions
	}
	return json.Marshal(raw)
}

// Validate checks every region in the schedule. Invalid entries report the
// frame they belong to.
func (s Schedule) Validate() error {
	for index, regions := range s {
		for i, region := range regions {
			if !region.Valid() {
				return fmt.Errorf("frame %d region %d: invalid bounds or confidence", index, i)
			}
		}
	}
	return nil
}
