package history

import "sort"

// Diff compares two field snapshots and returns the changed field names in
// sorted order plus parallel old/new value maps. Only fields present in
// both snapshots are compared; a field missing from either side is not a
// change.
func Diff(prev, curr map[string]string) (changed []string, oldValues, newValues map[string]string) {
	oldValues = make(map[string]string)
	newValues = make(map[string]string)

	for name, newVal := range curr {
		oldVal, exists := prev[name]
		if !exists || oldVal == newVal {
			continue
		}
		changed = append(changed, name)
		oldValues[name] = oldVal
		newValues[name] = newVal
	}

	sort.Strings(changed)
	return changed, oldValues, newValues
}
