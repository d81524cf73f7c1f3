package settings

// Category names. Each category is one independently synced blob.
const (
	CategoryModel    = "model"
	CategorySpeech   = "speech"
	CategoryCommands = "commands"
	CategoryGeneral  = "general"
)

// Categories lists every known category in sync order.
var Categories = []string{CategoryModel, CategorySpeech, CategoryCommands, CategoryGeneral}

// Known reports whether category is a valid settings category.
func Known(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Defaults returns the baseline blob for a category. Saved fields are merged
// over these, so a load always yields a complete record.
func Defaults(category string) map[string]any {
	switch category {
	case CategoryModel:
		return map[string]any{
			"provider":    "openai",
			"model":       "",
			"temperature": 0.7,
			"max_tokens":  float64(1024),
		}
	case CategorySpeech:
		return map[string]any{
			"enabled": false,
			"source":  "local",
			"voice":   "",
			"rate":    1.0,
			"pitch":   1.0,
			"volume":  1.0,
		}
	case CategoryCommands:
		return map[string]any{
			"enabled":         true,
			"confirm_execute": false,
			"aliases":         map[string]any{},
		}
	case CategoryGeneral:
		return map[string]any{
			"theme":     "system",
			"language":  "en",
			"debug_log": false,
		}
	default:
		return map[string]any{}
	}
}

// Merge overlays fields of over onto base: shallow per top-level key, one
// level recursive for nested objects, last write wins at the leaf. Neither
// input is mutated.
func Merge(base, over map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		nested, ok := v.(map[string]any)
		if !ok {
			out[k] = v
			continue
		}
		existing, ok := out[k].(map[string]any)
		if !ok {
			out[k] = nested
			continue
		}
		merged := make(map[string]any, len(existing)+len(nested))
		for kk, vv := range existing {
			merged[kk] = vv
		}
		for kk, vv := range nested {
			merged[kk] = vv
		}
		out[k] = merged
	}
	return out
}
