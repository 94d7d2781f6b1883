package util

import "fmt"

var byteUnits = []string{"KB", "MB", "GB", "TB"}

// Human formats a byte count with binary units.
func Human(n int64) string {
	if n < 1<<10 {
		return fmt.Sprintf("%d B", n)
	}

	v, unit := float64(n)/(1<<10), byteUnits[0]
	for _, u := range byteUnits[1:] {
		if v < 1<<10 {
			break
		}
		v, unit = v/(1<<10), u
	}

	return fmt.Sprintf("%.2f %s", v, unit)
}
