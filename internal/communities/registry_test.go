package communities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByIndexMatchesMenuOrder(t *testing.T) {
	all := All()
	require.NotEmpty(t, all)

	for i, want := range all {
		got, ok := ByIndex(i + 1)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok := ByIndex(0)
	assert.False(t, ok)
	_, ok = ByIndex(len(all) + 1)
	assert.False(t, ok)
}

func TestByCode(t *testing.T) {
	c, ok := ByCode("kibera")
	require.True(t, ok)
	assert.Equal(t, "Kibera", c.Name)
	assert.Positive(t, c.DefaultVouchers)

	_, ok = ByCode("atlantis")
	assert.False(t, ok)
}

func TestCategoryByIndex(t *testing.T) {
	first, ok := CategoryByIndex(1)
	require.True(t, ok)
	assert.Equal(t, ShopCategories[0], first)

	_, ok = CategoryByIndex(len(ShopCategories) + 1)
	assert.False(t, ok)
}
