package config

// typeMatches mirrors the capability package's field-type check. Kept as a
// local copy (rather than exported from capability) since config validates
// adapter input schemas, a distinct concern from capability payload
// validation, even though both use the same Field/type vocabulary.
func typeMatches(t string, v any) bool {
	switch t {
	case "string":
		_, ok := v.(string)
		return ok
	case "number":
		switch v.(type) {
		case float64, int, int64:
			return true
		}
		return false
	case "bool":
		_, ok := v.(bool)
		return ok
	case "array":
		_, ok := v.([]any)
		return ok
	case "object":
		_, ok := v.(map[string]any)
		return ok
	default:
		return true
	}
}
