package stock

import "sort"

// VariantKey is the stable ordering key for a variant quantity cell. Locks
// are always acquired in ascending key order to rule out lock-ordering
// deadlocks between overlapping multi-line requests.
func VariantKey(productID, color, size string) string {
	return productID + ":" + color + ":" + size
}

func SortDeltas(deltas []Delta) {
	sort.Slice(deltas, func(i, j int) bool {
		return VariantKey(deltas[i].ProductID, deltas[i].Color, deltas[i].Size) <
			VariantKey(deltas[j].ProductID, deltas[j].Color, deltas[j].Size)
	})
}
