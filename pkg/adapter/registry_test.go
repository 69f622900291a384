package adapter

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAdapter is a minimal adapter without text support
type stubAdapter struct {
	tag string
}

func (s *stubAdapter) Tag() string                   { return s.tag }
func (s *stubAdapter) Encode(io.Writer, any) error   { return nil }
func (s *stubAdapter) Decode(io.Reader) (any, error) { return s.tag, nil }

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Tags())
	assert.False(t, r.Exists(TagString))
}

func TestNewDefaultRegistry(t *testing.T) {
	r := NewDefaultRegistry()
	assert.Equal(t, []string{"bool", "bytes", "file", "int", "int[]", "string", "string[]"}, r.Tags())

	a, ok := r.Get(TagString)
	require.True(t, ok)
	assert.Equal(t, TagString, a.Tag())
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(&stubAdapter{tag: "custom"}))
	assert.True(t, r.Exists("custom"))
	assert.Equal(t, 1, r.Len())

	assert.ErrorIs(t, r.Register(&stubAdapter{tag: ""}), ErrEmptyTag)
	assert.ErrorIs(t, r.Register(nil), ErrNilAdapter)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_LastRegistrationWins(t *testing.T) {
	r := NewRegistry()
	first := &stubAdapter{tag: "dup"}
	second := &stubAdapter{tag: "dup"}

	require.NoError(t, r.Register(first))
	require.NoError(t, r.Register(second))

	got, ok := r.Get("dup")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewDefaultRegistry()

	assert.True(t, r.Unregister(TagBool))
	assert.False(t, r.Exists(TagBool))
	assert.False(t, r.Unregister(TagBool))

	_, ok := r.Get(TagBool)
	assert.False(t, ok)
}

func TestRegistry_Clear(t *testing.T) {
	r := NewDefaultRegistry()
	r.Clear()
	assert.Equal(t, 0, r.Len())

	// Still usable after clearing
	require.NoError(t, r.Register(String{}))
	assert.True(t, r.Exists(TagString))
}

func TestRegistry_RenamedAdapter(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Rename(String{}, "text")))

	assert.True(t, r.Exists("text"))
	assert.False(t, r.Exists(TagString))
}
