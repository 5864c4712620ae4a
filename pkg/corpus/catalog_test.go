package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalog(t *testing.T) {
	c := Catalog{
		{Name: "iwataGPT1.0", Source: "iwataGPT1.0.json"},
		{Name: "remote", Source: "https://example.com/remote.json"},
		{Name: "stored", Source: "sqlite:./corpus.db#stored"},
		{Name: "lines", Source: "file:./lines.txt"},
	}

	def, ok := c.Default()
	assert.True(t, ok)
	assert.Equal(t, "iwataGPT1.0", def.Name)

	e, ok := c.Resolve("remote")
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/remote.json", e.Source)

	e, ok = c.Resolve("iwataGPT1.0.json")
	assert.True(t, ok, "resolving by source identifier")
	assert.Equal(t, "iwataGPT1.0", e.Name)

	_, ok = c.Resolve("nope")
	assert.False(t, ok)

	assert.Equal(t, []string{"iwataGPT1.0", "remote", "stored", "lines"}, c.Names())

	var paths []string
	for _, e := range c {
		if p, ok := e.LocalPath(); ok {
			paths = append(paths, p)
		}
	}
	assert.Equal(t, []string{"iwataGPT1.0.json", "./lines.txt"}, paths)
}

func TestEmptyCatalog(t *testing.T) {
	_, ok := Catalog(nil).Default()
	assert.False(t, ok)
	assert.Equal(t, "iwataGPT1.0.json", DefaultCatalog()[0].Source)
}
