package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToInterval(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{name: "seconds", duration: 5 * time.Second, expected: "5.000000s"},
		{name: "minutes", duration: 2 * time.Minute, expected: "120.000000s"},
		{name: "sub_second", duration: 250 * time.Millisecond, expected: "0.250000s"},
		{name: "zero", duration: 0, expected: "0.000000s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, toInterval(tt.duration))
		})
	}
}

func TestMarshalEmbedding(t *testing.T) {
	encoded, err := marshalEmbedding([]float32{0.25, -1, 3})
	require.NoError(t, err)
	assert.JSONEq(t, "[0.25,-1,3]", string(encoded))

	decoded, err := unmarshalEmbedding(encoded)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, -1, 3}, decoded)
}

func TestMarshalEmbedding_Nil(t *testing.T) {
	encoded, err := marshalEmbedding(nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(encoded))

	decoded, err := unmarshalEmbedding(encoded)
	require.NoError(t, err)
	assert.Nil(t, decoded)
}

func TestUnmarshalEmbedding_Empty(t *testing.T) {
	decoded, err := unmarshalEmbedding(nil)
	require.NoError(t, err)
	assert.Nil(t, decoded)
}

func TestUnmarshalEmbedding_Invalid(t *testing.T) {
	_, err := unmarshalEmbedding([]byte("{not json"))
	assert.Error(t, err)
}
