package interests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllReturnsCatalogInOrder(t *testing.T) {
	all, err := All()
	require.NoError(t, err)
	require.Len(t, all, 15)
	assert.Equal(t, "amusement_park", all[0].ID)
	assert.Equal(t, "beach", all[len(all)-1].ID)

	all[0].ID = "mutated"
	again, err := All()
	require.NoError(t, err)
	assert.Equal(t, "amusement_park", again[0].ID)
}

func TestLookup(t *testing.T) {
	in, ok := Lookup("cafe")
	require.True(t, ok)
	assert.Equal(t, "Cafes", in.Label)

	_, ok = Lookup("casino")
	assert.False(t, ok)
}
