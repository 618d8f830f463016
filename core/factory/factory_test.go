package factory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct{ A int }

type sampleConf struct {
	A       int           `json:"a"`
	Enabled bool          `json:"enabled"`
	Timeout time.Duration `json:"timeout"`
}

func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry[*sample]("sample")
	require.NoError(t, reg.Register("s", func(conf map[string]any) (*sample, error) {
		var c sampleConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &sample{A: c.A}, nil
	}))
	inst, err := reg.Create(ModuleConfig{Type: "s", Conf: map[string]any{"a": 3}})
	require.NoError(t, err)
	assert.Equal(t, 3, inst.A)

	inst, err = reg.Create(ModuleConfig{Type: "s"})
	require.NoError(t, err)
	assert.Equal(t, 0, inst.A)
}

func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry[int]("number")
	require.NoError(t, reg.Register("x", func(map[string]any) (int, error) { return 1, nil }))
	assert.Error(t, reg.Register("x", func(map[string]any) (int, error) { return 2, nil }))
	assert.Error(t, reg.Register("y", nil))

	_, err := reg.Create(ModuleConfig{Type: "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown number type")
	assert.Equal(t, []string{"x"}, reg.Types())
}

func TestDecode_WeakTypes(t *testing.T) {
	var c sampleConf
	require.NoError(t, Decode(map[string]any{"a": "7", "enabled": "true", "timeout": "2s"}, &c))
	assert.Equal(t, sampleConf{A: 7, Enabled: true, Timeout: 2 * time.Second}, c)
}
