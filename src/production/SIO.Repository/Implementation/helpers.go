package implementation

// ensureMapNotNull ensures a JSON map column is never written as SQL null
func ensureMapNotNull(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return make(map[string]interface{})
	}
	return m
}
