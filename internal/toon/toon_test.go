package toon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScalarsAndArray(t *testing.T) {
	text := "plan_id: add-x\n" +
		"current_phase: 2-refine\n" +
		"affected_files[2]{path,domain}:\n" +
		"a/b.go,backend\n" +
		"c/d.go,frontend\n"

	doc, err := Parse(text)
	require.NoError(t, err)

	assert.Equal(t, "add-x", doc.Get("plan_id"))
	assert.Equal(t, "2-refine", doc.Get("current_phase"))

	arr := doc.Array("affected_files")
	require.NotNil(t, arr)
	assert.Equal(t, []string{"path", "domain"}, arr.Fields)
	require.Len(t, arr.Rows, 2)
	assert.Equal(t, []string{"a/b.go", "backend"}, arr.Rows[0])

	maps := RowsToMaps(arr)
	require.Len(t, maps, 2)
	assert.Equal(t, "a/b.go", maps[0]["path"])
	assert.Equal(t, "frontend", maps[1]["domain"])
}

func TestRenderRoundTrip(t *testing.T) {
	doc := &Document{}
	doc.Set("plan_id", "add-x")
	doc.SetArray("affected_files", []string{"path", "domain"}, [][]string{
		{"a/b.go", "backend"},
	})

	rendered := Render(doc)
	reparsed, err := Parse(rendered)
	require.NoError(t, err)
	assert.Equal(t, "add-x", reparsed.Get("plan_id"))
	arr := reparsed.Array("affected_files")
	require.NotNil(t, arr)
	assert.Equal(t, [][]string{{"a/b.go", "backend"}}, arr.Rows)
}

func TestParseTruncatedArrayErrors(t *testing.T) {
	text := "items[3]{a}:\nx\ny\n"
	_, err := Parse(text)
	require.Error(t, err)
}

func TestSetOverwritesExisting(t *testing.T) {
	doc := &Document{}
	doc.Set("k", "v1")
	doc.Set("k", "v2")
	assert.Equal(t, "v2", doc.Get("k"))
	assert.Len(t, doc.Nodes, 1)
}
