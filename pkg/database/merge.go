package database

// MergeJSON shallow-merges incoming into stored: incoming keys overwrite
// stored keys of the same name, every other stored key persists. Neither
// input map is mutated.
func MergeJSON(stored, incoming map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(stored)+len(incoming))
	for k, v := range stored {
		merged[k] = v
	}
	for k, v := range incoming {
		merged[k] = v
	}
	return merged
}
