package content

import (
	"fmt"
	"sort"
)

// NormalizeMediaOrder returns a copy sorted by Order (stable) and renumbered 0..n-1.
func NormalizeMediaOrder(items []MediaItem) []MediaItem {
	if items == nil {
		return nil
	}
	out := append([]MediaItem(nil), items...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	for i := range out {
		out[i].Order = i
	}
	return out
}

// MoveMedia moves the item at position from to position to and renumbers every sibling.
// Positions refer to the normalized order.
func MoveMedia(items []MediaItem, from, to int) ([]MediaItem, error) {
	out := NormalizeMediaOrder(items)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) {
		return nil, fmt.Errorf("move media: position out of range (from=%d to=%d len=%d)", from, to, len(out))
	}
	if from == to {
		return out, nil
	}
	item := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]MediaItem{item}, out[to:]...)...)
	for i := range out {
		out[i].Order = i
	}
	return out, nil
}

// Featured returns the first featured item, if any.
func Featured(items []MediaItem) (MediaItem, bool) {
	for _, it := range NormalizeMediaOrder(items) {
		if it.Featured {
			return it, true
		}
	}
	return MediaItem{}, false
}
