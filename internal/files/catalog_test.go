package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-kg-poc/server/internal/agent/model"
	errx "github.com/agentic-kg-poc/server/internal/core/error"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "products.csv", "product_id,name,supplier_id\np1,Widget,s1\np2,Gadget,s2\n")
	writeFile(t, dir, "notes/overview.md", "# Supply chain overview\nProducts ship from suppliers.\n")
	writeFile(t, dir, "ignore.bin", "\x00\x01")

	candidates, err := Discover(dir)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	// Sorted by path.
	assert.Equal(t, filepath.Join("notes", "overview.md"), candidates[0].Path)
	assert.Equal(t, model.FileUnstructured, candidates[0].Kind)
	assert.Contains(t, candidates[0].Sample, "Supply chain overview")

	assert.Equal(t, "products.csv", candidates[1].Path)
	assert.Equal(t, model.FileStructured, candidates[1].Kind)
	assert.Equal(t, []string{"product_id", "name", "supplier_id"}, candidates[1].Columns)
	assert.Contains(t, candidates[1].Sample, "p1,Widget,s1")
}

func TestDiscoverMissingDir(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindNotFound))
}

func TestRows(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "orders.csv", "order_id,product_id,quantity\no1,p1,5\no2,p2\n")

	rows, err := Rows(dir, "orders.csv")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "o1", rows[0]["order_id"])
	assert.Equal(t, "5", rows[0]["quantity"])

	// Short rows are padded, not dropped.
	assert.Equal(t, "o2", rows[1]["order_id"])
	assert.Equal(t, "", rows[1]["quantity"])
}

func TestRowsMissingFile(t *testing.T) {
	_, err := Rows(t.TempDir(), "missing.csv")
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindNotFound))
}

func TestInferLabel(t *testing.T) {
	tests := map[string]string{
		"products.csv":        "Product",
		"product_reviews.csv": "ProductReview",
		"data/suppliers.csv":  "Supplier",
		"press.md":            "Press",
		"boss.txt":            "Boss",
		"overview.md":         "Overview",
	}
	for path, want := range tests {
		assert.Equal(t, want, InferLabel(path), path)
	}
}

func TestInferKeyProperty(t *testing.T) {
	assert.Equal(t, "product_id", InferKeyProperty([]string{"product_id", "name"}))
	assert.Equal(t, "id", InferKeyProperty([]string{"name", "id"}))
	assert.Equal(t, "name", InferKeyProperty([]string{"name", "city"}))
	assert.Equal(t, "", InferKeyProperty(nil))
}
