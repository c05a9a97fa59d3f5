package files

import (
	"path/filepath"
	"strings"
)

// InferLabel derives a node label from a file name: "product_reviews.csv"
// becomes "ProductReview". The trailing plural "s" is dropped from the last
// word since labels name one entity.
func InferLabel(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	words := strings.FieldsFunc(base, func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})
	if len(words) == 0 {
		return "Entity"
	}

	last := len(words) - 1
	if w := words[last]; len(w) > 3 && strings.HasSuffix(strings.ToLower(w), "s") && !strings.HasSuffix(strings.ToLower(w), "ss") {
		words[last] = w[:len(w)-1]
	}

	var b strings.Builder
	for _, w := range words {
		if w == "" {
			continue
		}
		b.WriteString(strings.ToUpper(w[:1]))
		if len(w) > 1 {
			b.WriteString(strings.ToLower(w[1:]))
		}
	}
	return b.String()
}

// InferKeyProperty picks the identifier-like column from a header: the
// first column ending in "_id" or named "id", falling back to the first
// column when nothing looks like an identifier.
func InferKeyProperty(columns []string) string {
	if len(columns) == 0 {
		return ""
	}
	for _, col := range columns {
		lower := strings.ToLower(col)
		if lower == "id" || strings.HasSuffix(lower, "_id") {
			return col
		}
	}
	return columns[0]
}
