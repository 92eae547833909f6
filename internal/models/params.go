package models

import (
	"strconv"
	"strings"
)

// CoerceString returns raw unchanged
func CoerceString(raw string) string {
	return raw
}

// CoerceInt converts raw to an int, or 0 when it is not a number
func CoerceInt(raw string) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return v
}

// CoerceFloat converts raw to a float64, or 0 when it is not a number
func CoerceFloat(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v
}
