package container

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ssargent/tagfile/pkg/adapter"
	"github.com/ssargent/tagfile/pkg/codec"
	"github.com/ssargent/tagfile/pkg/metrics"
)

// newTestContainer opens a content container with the built-in adapters in a
// fresh temporary directory
func newTestContainer(t *testing.T) *Container {
	t.Helper()

	path := filepath.Join(t.TempDir(), "store.tagfile")
	c, err := Open(Config{
		Path:        path,
		ContentFile: true,
		Registry:    adapter.NewDefaultRegistry(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func reopen(t *testing.T, c *Container) *Container {
	t.Helper()

	path := c.Path()
	require.NoError(t, c.Close())

	reopened, err := Open(Config{
		Path:        path,
		ContentFile: true,
		Registry:    adapter.NewDefaultRegistry(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	return reopened
}

func sizeOf(t *testing.T, path string) int64 {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info.Size()
}

func TestOpen_CreatesContentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "store.tagfile")

	c, err := Open(Config{Path: path, ContentFile: true})
	require.NoError(t, err)
	defer c.Close()

	assert.FileExists(t, path)
	assert.Empty(t, c.Names())
	assert.Empty(t, c.AdapterTags())
}

func TestOpen_PlainFileSkipsIndex(t *testing.T) {
	c := newTestContainer(t)
	require.NoError(t, c.Write("v", "name", adapter.TagString))
	path := c.Path()

	plain, err := Open(Config{Path: path, ContentFile: false, Registry: adapter.NewDefaultRegistry()})
	require.NoError(t, err)
	defer plain.Close()

	assert.False(t, plain.Exists("name"))

	// A plain container still reads by scanning
	got, err := plain.Read("name")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestOpen_PlainFileDoesNotCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.bin")

	c, err := Open(Config{Path: path})
	require.NoError(t, err)
	defer c.Close()

	assert.NoFileExists(t, path)
}

func TestOpen_RequiresPath(t *testing.T) {
	c, err := Open(Config{})
	assert.Error(t, err)
	assert.Nil(t, c)
}

func TestContainer_HelloWorld(t *testing.T) {
	c := newTestContainer(t)

	require.NoError(t, c.Write("hello world", "greeting", "string"))

	got, err := c.Read("greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)

	_, err = c.Read("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEntryNotFound)

	var notFound *EntryNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "missing", notFound.Name)
}

func TestContainer_RoundTripAllAdapters(t *testing.T) {
	c := newTestContainer(t)

	testCases := []struct {
		name  string
		tag   string
		value any
	}{
		{"text", adapter.TagString, "some text"},
		{"texts", adapter.TagStringArray, []string{"a", "b", "c"}},
		{"number", adapter.TagInt, int32(-7)},
		{"numbers", adapter.TagIntArray, []int32{20, 0, 20}},
		{"flag", adapter.TagBool, true},
		{"blob", adapter.TagBytes, []byte{0xde, 0xad, 0xbe, 0xef}},
		{"asset", adapter.TagFile, adapter.File{Name: "icon.png", Data: []byte{0x89, 'P', 'N', 'G'}}},
	}

	for _, tc := range testCases {
		require.NoError(t, c.Write(tc.value, tc.name, tc.tag), "write %s", tc.name)
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			entry, err := c.ReadEntry(tc.name)
			require.NoError(t, err)
			assert.Equal(t, tc.name, entry.Name)
			assert.Equal(t, tc.tag, entry.Tag)
			assert.Equal(t, tc.value, entry.Value)
		})
	}

	// Same values after a reopen
	c = reopen(t, c)
	for _, tc := range testCases {
		got, err := c.Read(tc.name)
		require.NoError(t, err)
		assert.Equal(t, tc.value, got)
	}
}

func TestContainer_DuplicateWrite(t *testing.T) {
	c := newTestContainer(t)

	require.NoError(t, c.Write("first", "dup", adapter.TagString))
	sizeBefore := sizeOf(t, c.Path())

	err := c.Write("second", "dup", adapter.TagString)
	assert.ErrorIs(t, err, ErrDuplicateEntry)

	var dupErr *DuplicateEntryError
	require.True(t, errors.As(err, &dupErr))
	assert.Equal(t, "dup", dupErr.Name)

	assert.Equal(t, sizeBefore, sizeOf(t, c.Path()), "file must not grow on duplicate write")

	got, err := c.Read("dup")
	require.NoError(t, err)
	assert.Equal(t, "first", got)
}

func TestContainer_DuplicateCheckedBeforeTag(t *testing.T) {
	c := newTestContainer(t)
	require.NoError(t, c.Write("v", "name", adapter.TagString))

	err := c.Write("v", "name", "unknown-tag")
	assert.ErrorIs(t, err, ErrDuplicateEntry)
}

func TestContainer_UnregisteredTag(t *testing.T) {
	c := newTestContainer(t)
	sizeBefore := sizeOf(t, c.Path())

	err := c.Write("value", "x", "unknown-tag")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAdapterNotRegistered)

	var tagErr *AdapterNotRegisteredError
	require.True(t, errors.As(err, &tagErr))
	assert.Equal(t, "unknown-tag", tagErr.Tag)

	assert.False(t, c.Exists("x"))
	assert.Empty(t, c.Names())
	assert.Equal(t, sizeBefore, sizeOf(t, c.Path()))
}

func TestContainer_EncodeFailureWritesNothing(t *testing.T) {
	c := newTestContainer(t)

	err := c.Write(12, "wrong", adapter.TagString)
	assert.ErrorIs(t, err, adapter.ErrUnsupportedValue)
	assert.False(t, c.Exists("wrong"))
	assert.Equal(t, int64(0), sizeOf(t, c.Path()))
}

func TestContainer_EmptyName(t *testing.T) {
	c := newTestContainer(t)
	assert.ErrorIs(t, c.Write("v", "", adapter.TagString), ErrInvalidName)
}

func TestContainer_ReadMissingOnEmpty(t *testing.T) {
	c := newTestContainer(t)

	_, err := c.Read("nope")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestContainer_IndexScanEquivalence(t *testing.T) {
	c := newTestContainer(t)

	const n = 50
	written := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("entry-%03d", i)
		require.NoError(t, c.Write(int32(i), name, adapter.TagInt))
		written[name] = true
	}

	check := func(c *Container) {
		for name := range written {
			assert.True(t, c.Exists(name), "expected %s to exist", name)
		}
		for _, other := range []string{"", "entry-", "entry-050", "ENTRY-001", "entry-1"} {
			assert.False(t, c.Exists(other), "unexpected name %q", other)
		}
		assert.Len(t, c.Names(), n)
	}

	check(c)
	check(reopen(t, c))
}

func TestContainer_NamesSorted(t *testing.T) {
	c := newTestContainer(t)
	for _, name := range []string{"charlie", "alpha", "bravo"} {
		require.NoError(t, c.Write(name, name, adapter.TagString))
	}
	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, c.Names())
}

func TestContainer_ValuesContainingMarkerLengths(t *testing.T) {
	c := newTestContainer(t)

	// A 20 byte string has the length prefix 14 00 00 00, which looks like
	// START to the scanner
	twenty := "abcdefghijklmnopqrst"
	require.Len(t, twenty, 20)

	require.NoError(t, c.Write(twenty, "first", adapter.TagString))
	require.NoError(t, c.Write([]int32{20, 20, 20}, "second", adapter.TagIntArray))
	require.NoError(t, c.Write("after", "third", adapter.TagString))

	c = reopen(t, c)
	assert.True(t, c.Exists("first"))
	assert.True(t, c.Exists("second"))
	assert.True(t, c.Exists("third"))

	got, err := c.Read("third")
	require.NoError(t, err)
	assert.Equal(t, "after", got)

	got, err = c.Read("first")
	require.NoError(t, err)
	assert.Equal(t, twenty, got)
}

func TestContainer_FalseMarkerInPayload(t *testing.T) {
	// Payload bytes that spell out a full entry are indistinguishable from a
	// real one. This is a limitation of the format.
	c := newTestContainer(t)

	var forged bytes.Buffer
	require.NoError(t, WriteEmbedded(&forged, adapter.NewDefaultRegistry(), "boo", "ghost", adapter.TagString))

	require.NoError(t, c.Write(forged.Bytes(), "carrier", adapter.TagBytes))

	c = reopen(t, c)
	assert.True(t, c.Exists("carrier"))
	assert.True(t, c.Exists("ghost"))

	got, err := c.Read("ghost")
	require.NoError(t, err)
	assert.Equal(t, "boo", got)

	carrier, err := c.Read("carrier")
	require.NoError(t, err)
	assert.Equal(t, forged.Bytes(), carrier)
}

func TestContainer_SkipsCandidatesThatFailToDecode(t *testing.T) {
	c := newTestContainer(t)

	// An entry whose tag is not registered, then a valid entry with the same
	// name appended behind the index's back
	unknown := adapter.NewRegistry()
	require.NoError(t, unknown.Register(adapter.Rename(adapter.String{}, "mystery")))

	var raw bytes.Buffer
	require.NoError(t, WriteEmbedded(&raw, unknown, "hidden", "dup", "mystery"))
	require.NoError(t, WriteEmbedded(&raw, adapter.NewDefaultRegistry(), "visible", "dup", adapter.TagString))
	_, err := appendToFile(c.Path(), raw.Bytes())
	require.NoError(t, err)

	got, err := c.Read("dup")
	require.NoError(t, err)
	assert.Equal(t, "visible", got)
}

func TestContainer_CorruptEntryIsNotFound(t *testing.T) {
	c := newTestContainer(t)
	require.NoError(t, c.Write("ok", "good", adapter.TagString))

	// Marker, name and tag of a bool entry followed by an invalid bool byte
	header, err := codec.EncodeEntryHeader("bad", adapter.TagBool)
	require.NoError(t, err)
	_, err = appendToFile(c.Path(), append(header, 0x07))
	require.NoError(t, err)

	c = reopen(t, c)
	assert.True(t, c.Exists("bad"))

	_, err = c.Read("bad")
	assert.ErrorIs(t, err, ErrEntryNotFound)

	got, err := c.Read("good")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestContainer_TruncatedTail(t *testing.T) {
	c := newTestContainer(t)
	require.NoError(t, c.Write("kept", "a", adapter.TagString))
	require.NoError(t, c.Write("lost", "b", adapter.TagString))

	// Chop the last entry in the middle of its payload
	size := sizeOf(t, c.Path())
	require.NoError(t, os.Truncate(c.Path(), size-2))

	c = reopen(t, c)
	assert.True(t, c.Exists("a"))
	assert.True(t, c.Exists("b"), "the name of a truncated entry is still indexed")

	got, err := c.Read("a")
	require.NoError(t, err)
	assert.Equal(t, "kept", got)

	_, err = c.Read("b")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestContainer_LeadingGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.tagfile")
	require.NoError(t, os.WriteFile(path, []byte{0x00, 0x14, 0xff, 0x13, 0x14}, 0644))

	c, err := Open(Config{Path: path, ContentFile: true, Registry: adapter.NewDefaultRegistry()})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Write("value", "name", adapter.TagString))

	c = reopen(t, c)
	got, err := c.Read("name")
	require.NoError(t, err)
	assert.Equal(t, "value", got)
	assert.Equal(t, []string{"name"}, c.Names())
}

func TestContainer_ReadAs(t *testing.T) {
	c := newTestContainer(t)
	require.NoError(t, c.Write("hello", "greeting", adapter.TagString))
	require.NoError(t, c.Write(int32(3), "count", adapter.TagInt))

	s, err := ReadAs[string](c, "greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	n, err := ReadAs[int32](c, "count")
	require.NoError(t, err)
	assert.Equal(t, int32(3), n)

	_, err = ReadAs[string](c, "count")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	var mismatch *TypeMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "count", mismatch.Name)
	assert.Equal(t, "string", mismatch.Want)
	assert.Equal(t, "int32", mismatch.Got)

	_, err = ReadAs[string](c, "absent")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestContainer_RegistryPassThrough(t *testing.T) {
	c, err := Open(Config{Path: filepath.Join(t.TempDir(), "s.tagfile"), ContentFile: true})
	require.NoError(t, err)
	defer c.Close()

	assert.False(t, c.AdapterExists(adapter.TagString))
	require.NoError(t, c.RegisterAdapter(adapter.String{}))
	require.NoError(t, c.RegisterAdapter(adapter.Bool{}))

	assert.True(t, c.AdapterExists(adapter.TagString))
	assert.Equal(t, []string{"bool", "string"}, c.AdapterTags())

	a, ok := c.Adapter(adapter.TagBool)
	require.True(t, ok)
	assert.Equal(t, adapter.TagBool, a.Tag())

	assert.True(t, c.UnregisterAdapter(adapter.TagBool))
	assert.False(t, c.AdapterExists(adapter.TagBool))
	assert.ErrorIs(t, c.Write(true, "flag", adapter.TagBool), ErrAdapterNotRegistered)
}

func TestContainer_UnregisteredOnReadIsNotFound(t *testing.T) {
	c := newTestContainer(t)
	require.NoError(t, c.Write(true, "flag", adapter.TagBool))

	c.UnregisterAdapter(adapter.TagBool)

	_, err := c.Read("flag")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestContainer_Delete(t *testing.T) {
	c := newTestContainer(t)
	require.NoError(t, c.Write("v", "name", adapter.TagString))

	require.NoError(t, c.Delete())
	assert.NoFileExists(t, c.Path())
	assert.False(t, c.Exists("name"))

	// Deleting again is fine
	require.NoError(t, c.Delete())

	// The container keeps working on a fresh file
	require.NoError(t, c.Write("again", "name", adapter.TagString))
	got, err := c.Read("name")
	require.NoError(t, err)
	assert.Equal(t, "again", got)
}

func TestContainer_Stats(t *testing.T) {
	c := newTestContainer(t)

	stats, err := c.Stats()
	require.NoError(t, err)
	assert.Equal(t, Stats{Entries: 0, Size: 0}, stats)

	require.NoError(t, c.Write("hello world", "greeting", adapter.TagString))

	stats, err = c.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Entries)
	// marker + name + tag + payload
	assert.Equal(t, int64(2+(4+8)+(4+6)+(4+11)), stats.Size)
}

func TestContainer_Rescan(t *testing.T) {
	c := newTestContainer(t)

	var raw bytes.Buffer
	require.NoError(t, WriteEmbedded(&raw, c.Registry(), "external", "outside", adapter.TagString))
	_, err := appendToFile(c.Path(), raw.Bytes())
	require.NoError(t, err)

	assert.False(t, c.Exists("outside"))
	require.NoError(t, c.Rescan())
	assert.True(t, c.Exists("outside"))
}

func TestContainer_Closed(t *testing.T) {
	c := newTestContainer(t)
	require.NoError(t, c.Write("v", "name", adapter.TagString))
	assert.False(t, c.Closed())
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.True(t, c.Closed())
	assert.Nil(t, c.Registry())

	assert.ErrorIs(t, c.Write("v", "other", adapter.TagString), ErrClosed)
	_, err := c.Read("name")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = c.Stats()
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, c.Delete(), ErrClosed)
	assert.ErrorIs(t, c.Rescan(), ErrClosed)
	assert.ErrorIs(t, c.RegisterAdapter(adapter.String{}), ErrClosed)
	assert.False(t, c.Exists("name"))
	assert.False(t, c.AdapterExists(adapter.TagString))
	assert.Nil(t, c.Names())
	assert.Nil(t, c.AdapterTags())

	// The file is left alone
	assert.FileExists(t, c.Path())
}

func TestContainer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)

	c, err := Open(Config{
		Path:        filepath.Join(t.TempDir(), "m.tagfile"),
		ContentFile: true,
		Registry:    adapter.NewDefaultRegistry(),
		Metrics:     m,
	})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Write("v", "name", adapter.TagString))
	_, _ = c.Read("name")
	_, _ = c.Read("missing")

	families, err := reg.Gather()
	require.NoError(t, err)

	found := map[string]bool{}
	for _, f := range families {
		found[f.GetName()] = true
	}
	assert.True(t, found["tagfile_operations_total"])
	assert.True(t, found["tagfile_scan_bytes_total"])
	assert.True(t, found["tagfile_entries"])
}

func TestContainer_LogsSkippedCandidates(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)

	path := filepath.Join(t.TempDir(), "log.tagfile")
	c, err := Open(Config{
		Path:        path,
		ContentFile: true,
		Registry:    adapter.NewDefaultRegistry(),
		Logger:      zap.New(core),
	})
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, 1, logs.FilterMessage("built name index").Len())

	header, err := codec.EncodeEntryHeader("bad", adapter.TagBool)
	require.NoError(t, err)
	_, err = appendToFile(path, append(header, 0x09))
	require.NoError(t, err)

	_, err = c.Read("bad")
	assert.ErrorIs(t, err, ErrEntryNotFound)
	assert.Equal(t, 1, logs.FilterMessage("skipping unreadable candidate").Len())
}
