package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casualjim/rivulet/transport"
)

type fakeAdapter struct{ name string }

func (f fakeAdapter) Name() string { return f.name }

func (f fakeAdapter) NewRequest(Request) (transport.Request, error) {
	return transport.Request{}, nil
}

func (f fakeAdapter) NewParser() FrameParser { return nil }

func TestRegistry_GetAndNames(t *testing.T) {
	r := NewRegistry(fakeAdapter{"beta"}, fakeAdapter{"alpha"}, fakeAdapter{"gamma"})

	a, err := r.Get("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", a.Name())

	// registration order, not sorted
	assert.Equal(t, []string{"beta", "alpha", "gamma"}, r.Names())
}

func TestRegistry_UnknownProvider(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "nope"`)
}

func TestRegistry_RegisterReplacesInPlace(t *testing.T) {
	r := NewRegistry(fakeAdapter{"a"}, fakeAdapter{"b"})
	r.Register(fakeAdapter{"a"})
	assert.Equal(t, []string{"a", "b"}, r.Names())
}
