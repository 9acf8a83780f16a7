package frequency

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultBand is used when no band is configured.
const DefaultBand = "10-1009"

// ParseBand expands a band description such as "10-15,20,30-32" into
// the ordered list of frequencies it names. Duplicates are rejected.
func ParseBand(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty frequency band")
	}

	var band []int
	seen := make(map[int]struct{})
	add := func(f int) error {
		if _, dup := seen[f]; dup {
			return fmt.Errorf("frequency %d listed twice", f)
		}
		seen[f] = struct{}{}
		band = append(band, f)
		return nil
	}

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if strings.Contains(part, "-") {
			rangeParts := strings.Split(part, "-")
			if len(rangeParts) != 2 {
				return nil, fmt.Errorf("invalid frequency range: %s", part)
			}

			start, err := strconv.Atoi(strings.TrimSpace(rangeParts[0]))
			if err != nil {
				return nil, fmt.Errorf("invalid range start %q: %w", rangeParts[0], err)
			}
			end, err := strconv.Atoi(strings.TrimSpace(rangeParts[1]))
			if err != nil {
				return nil, fmt.Errorf("invalid range end %q: %w", rangeParts[1], err)
			}
			if start > end || start < 0 {
				return nil, fmt.Errorf("invalid frequency range: %d-%d", start, end)
			}

			for f := start; f <= end; f++ {
				if err := add(f); err != nil {
					return nil, err
				}
			}
			continue
		}

		f, err := strconv.Atoi(part)
		if err != nil || f < 0 {
			return nil, fmt.Errorf("invalid frequency: %s", part)
		}
		if err := add(f); err != nil {
			return nil, err
		}
	}

	if len(band) == 0 {
		return nil, fmt.Errorf("no frequencies in band %q", raw)
	}
	return band, nil
}
