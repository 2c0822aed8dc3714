package analytics

import "strings"

// homeKey is the sentinel stored for the site root path, which would
// otherwise sanitize to an empty field key.
const homeKey = "_home_"

var whitespaceReplacer = strings.NewReplacer(" ", "_", "\t", "_", "\n", "_", "\r", "_")

// SanitizeKey converts an arbitrary page path or country name into a
// string safe to use as a field-path segment in the document store.
// "/" separates URL segments and "." separates nested fields in the
// store, so both fold to "_"; whitespace is trimmed and internal runs
// collapse to a single "_". Leading and trailing "_" are dropped so
// "/blog" stores as "blog". The result is never empty: the root path
// (and anything that reduces to nothing) maps to "_home_".
func SanitizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" || key == "/" {
		return homeKey
	}

	key = strings.ReplaceAll(key, "/", "_")
	key = strings.ReplaceAll(key, ".", "_")
	key = whitespaceReplacer.Replace(key)

	// Collapse runs introduced by adjacent separators/whitespace.
	for strings.Contains(key, "__") {
		key = strings.ReplaceAll(key, "__", "_")
	}

	key = strings.Trim(key, "_")
	if key == "" {
		return homeKey
	}
	return key
}

// UnsanitizeKey is the best-effort inverse of SanitizeKey for display:
// "_home_" maps back to "/"; any other key gets its "_" separators
// restored to "/" under a leading slash. The mapping is lossy: a page
// path containing literal underscores or dots is not recoverable,
// because every "_" in the sanitized key is assumed to have been a
// path separator. Callers needing the exact original path should read
// it from the raw PageViewEvent records, which store it verbatim.
func UnsanitizeKey(key string) string {
	if key == homeKey {
		return "/"
	}
	return "/" + strings.ReplaceAll(key, "_", "/")
}
