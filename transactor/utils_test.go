package transactor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNilOrEmpty(t *testing.T) {
	t.Parallel()

	empty := ""
	blank := "  \t"
	value := "x"

	assert.True(t, IsNilOrEmpty(nil))
	assert.True(t, IsNilOrEmpty(&empty))
	assert.True(t, IsNilOrEmpty(&blank))
	assert.False(t, IsNilOrEmpty(&value))
}

func TestIsUUID(t *testing.T) {
	t.Parallel()

	assert.True(t, IsUUID("123e4567-e89b-12d3-a456-426614174000"))
	assert.False(t, IsUUID("not-a-uuid"))
	assert.False(t, IsUUID(""))
}

func TestGenerateUUIDv7(t *testing.T) {
	t.Parallel()

	first, err := GenerateUUIDv7()
	require.NoError(t, err)

	second, err := GenerateUUIDv7()
	require.NoError(t, err)

	assert.Equal(t, 7, int(first.Version()))
	assert.NotEqual(t, first, second)
}

func TestSafeUint32ToUint16(t *testing.T) {
	t.Parallel()

	v, ok := SafeUint32ToUint16(math.MaxUint16)
	assert.True(t, ok)
	assert.Equal(t, uint16(math.MaxUint16), v)

	_, ok = SafeUint32ToUint16(math.MaxUint16 + 1)
	assert.False(t, ok)
}

func TestValidateServerAddress(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ":8080", ValidateServerAddress(":8080"))
	assert.Equal(t, "localhost:50051", ValidateServerAddress("localhost:50051"))
	assert.Equal(t, "", ValidateServerAddress("localhost"))
}
