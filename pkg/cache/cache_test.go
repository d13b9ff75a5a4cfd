package cache

import (
	"bytes"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyDeterministic(t *testing.T) {
	k1 := Key("int main() {}", "slice", "13", "11", "sum", "backward")
	k2 := Key("int main() {}", "slice", "13", "11", "sum", "backward")
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 64)
}

func TestKeySensitiveToSourceAndParts(t *testing.T) {
	base := Key("int main() {}", "slice", "13")
	assert.NotEqual(t, base, Key("int main()  {}", "slice", "13"))
	assert.NotEqual(t, base, Key("int main() {}", "slice", "14"))
	assert.NotEqual(t, base, Key("int main() {}", "inline", "13"))

	// part boundaries matter
	assert.NotEqual(t, Key("s", "ab", "c"), Key("s", "a", "bc"))
}

func TestSetAndGet(t *testing.T) {
	c := New(Options{})

	want := Result{Lines: []int{5, 6, 8}, Warnings: []string{"unreachable code"}}
	c.Set("k", want)

	got, found := c.Get("k")
	require.True(t, found)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, c.Len())

	_, found = c.Get("missing")
	assert.False(t, found)
}

func TestSetOverwrites(t *testing.T) {
	c := New(Options{})

	c.Set("k", Result{Text: "first"})
	c.Set("k", Result{Text: "second version"})

	got, found := c.Get("k")
	require.True(t, found)
	assert.Equal(t, "second version", got.Text)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, int64(len("second version")), c.CurrentBytes())
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	c := New(Options{
		MaxEntries: 3,
		OnEvict:    func(key string, _ Result) { evicted = append(evicted, key) },
	})

	c.Set("a", Result{Text: "a"})
	c.Set("b", Result{Text: "b"})
	c.Set("c", Result{Text: "c"})

	// touch a so b becomes the oldest
	_, found := c.Get("a")
	require.True(t, found)

	c.Set("d", Result{Text: "d"})

	assert.Equal(t, []string{"b"}, evicted)
	assert.Equal(t, 3, c.Len())
	_, found = c.Get("b")
	assert.False(t, found)
	_, found = c.Get("a")
	assert.True(t, found)
}

func TestEvictsOnByteLimit(t *testing.T) {
	c := New(Options{MaxBytes: 100})

	for i := 0; i < 10; i++ {
		c.Set(fmt.Sprintf("k%d", i), Result{Text: "0123456789012345678901234"})
	}

	assert.Less(t, c.CurrentBytes(), int64(100))
	assert.Less(t, c.Len(), 10)

	_, found := c.Get("k9")
	assert.True(t, found, "most recent entry survives eviction")
}

func TestDelete(t *testing.T) {
	c := New(Options{})
	c.Set("a", Result{Text: "a"})
	c.Set("b", Result{Text: "b"})

	c.Delete("a")
	c.Delete("nope")

	_, found := c.Get("a")
	assert.False(t, found)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, int64(1), c.CurrentBytes())
}

func TestClear(t *testing.T) {
	c := New(Options{})
	c.Set("a", Result{Text: "a"})
	c.Set("b", Result{Text: "b"})

	c.Clear()

	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int64(0), c.CurrentBytes())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c := New(Options{})
	c.Set("slice", Result{Lines: []int{5, 6, 8, 9, 10, 13}})
	c.Set("inline", Result{Text: "int main(void) {\n}\n", Warnings: []string{"arity mismatch"}})

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	restored := New(Options{})
	require.NoError(t, restored.Load(&buf))

	assert.Equal(t, 2, restored.Len())
	assert.Equal(t, c.CurrentBytes(), restored.CurrentBytes())

	got, found := restored.Get("slice")
	require.True(t, found)
	assert.Equal(t, []int{5, 6, 8, 9, 10, 13}, got.Lines)

	got, found = restored.Get("inline")
	require.True(t, found)
	assert.Equal(t, []string{"arity mismatch"}, got.Warnings)
}

func TestLoadPreservesRecencyOrder(t *testing.T) {
	c := New(Options{})
	c.Set("old", Result{Text: "old"})
	c.Set("new", Result{Text: "new"})

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	restored := New(Options{MaxEntries: 1})
	require.NoError(t, restored.Load(&buf))
	restored.Set("extra", Result{Text: "extra"})

	_, found := restored.Get("old")
	assert.False(t, found, "least recent entry evicted first after load")
}

func TestPersistToFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.msgpack")

	c := New(Options{})
	c.Set("k", Result{Lines: []int{1, 2}})
	require.NoError(t, PersistToFile(c, path))

	restored := New(Options{})
	require.NoError(t, LoadFromFile(restored, path))

	got, found := restored.Get("k")
	require.True(t, found)
	assert.Equal(t, []int{1, 2}, got.Lines)
}

func TestLoadFromMissingFile(t *testing.T) {
	c := New(Options{})
	require.NoError(t, LoadFromFile(c, filepath.Join(t.TempDir(), "absent.msgpack")))
	assert.Equal(t, 0, c.Len())
}

func TestLoadGarbageFails(t *testing.T) {
	c := New(Options{})
	err := c.Load(bytes.NewReader([]byte("not msgpack at all")))
	assert.Error(t, err)
}
