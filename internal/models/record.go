package models

// Record is a week-scoped entity that merges by identity
type Record[T any] interface {
	Identity() string
	Merge(incoming T) T
}

// MergeByIdentity merges incoming records into existing ones. Matches are
// merged in place; unmatched records are appended in arrival order.
func MergeByIdentity[T Record[T]](existing, incoming []T) []T {
	out := make([]T, len(existing), len(existing)+len(incoming))
	copy(out, existing)

	index := make(map[string]int, len(out))
	for i, record := range out {
		index[record.Identity()] = i
	}

	for _, record := range incoming {
		if i, ok := index[record.Identity()]; ok {
			out[i] = out[i].Merge(record)
			continue
		}
		index[record.Identity()] = len(out)
		out = append(out, record)
	}
	return out
}
