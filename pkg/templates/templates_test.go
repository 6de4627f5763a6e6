package templates

import (
	stderrors "errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	set := Default()
	require.Equal(t, 5, set.Len())
	for i, tpl := range set.Templates {
		assert.Equal(t, 1, strings.Count(string(tpl), Placeholder), "template %d", i)
	}
}

func TestRender(t *testing.T) {
	assert.Equal(t, "Eid Mubarak, Ahmed!", Render("Eid Mubarak, {name}!", "Ahmed"))
	// braces other than the placeholder are left alone
	assert.Equal(t, "{x} سلام يا سارة", Render("{x} سلام يا {name}", "سارة"))
	// a name that looks like a placeholder is not expanded again
	assert.Equal(t, "hi {name}", Render("hi {name}", "{name}"))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "captions.yaml")
	require.NoError(t, os.WriteFile(path, []byte("templates:\n  - \"Happy Eid {name}\"\n  - \"{name}, Eid Mubarak\"\n"), 0644))

	set, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []Template{"Happy Eid {name}", "{name}, Eid Mubarak"}, set.Templates)
	assert.Equal(t, path, set.Source)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("templates: []\n"), 0644))
	_, err := Load(empty)
	assert.True(t, stderrors.Is(err, ErrNoTemplates))

	noPlaceholder := filepath.Join(dir, "none.yaml")
	require.NoError(t, os.WriteFile(noPlaceholder, []byte("templates:\n  - \"Eid Mubarak\"\n"), 0644))
	_, err = Load(noPlaceholder)
	assert.True(t, stderrors.Is(err, ErrPlaceholder))

	twice := filepath.Join(dir, "twice.yaml")
	require.NoError(t, os.WriteFile(twice, []byte("templates:\n  - \"{name} {name}\"\n"), 0644))
	_, err = Load(twice)
	assert.True(t, stderrors.Is(err, ErrPlaceholder))

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadOrDefault(t *testing.T) {
	set, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, "built-in", set.Source)
}

func TestPickerDeterministic(t *testing.T) {
	set := &Set{Templates: []Template{"a {name}", "b {name}", "c {name}"}}

	p1 := NewPicker(set, rand.New(rand.NewSource(42)))
	p2 := NewPicker(set, rand.New(rand.NewSource(42)))
	for i := 0; i < 20; i++ {
		i1, t1 := p1.Pick()
		i2, t2 := p2.Pick()
		assert.Equal(t, i1, i2)
		assert.Equal(t, t1, t2)
		assert.Equal(t, set.Templates[i1], t1)
	}
}

func TestPickerCoversAllTemplates(t *testing.T) {
	set := Default()
	p := NewPicker(set, rand.New(rand.NewSource(1)))

	seen := make(map[int]int)
	for i := 0; i < 1000; i++ {
		idx, _ := p.Pick()
		seen[idx]++
	}
	assert.Len(t, seen, set.Len())
	for idx, n := range seen {
		// uniform draw: each of 5 templates should land near 200
		assert.Greater(t, n, 120, "template %d picked too rarely", idx)
	}
}
