package order

import (
	"testing"

	"github.com/matthieukhl/receipter/internal/catalog"
	"github.com/matthieukhl/receipter/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]models.Product{
		{Name: "Pizza Margherita", Price: 1500},
		{Name: "Cola", Price: 400},
	})
	require.NoError(t, err)
	return c
}

func TestOrder_AddKeepsDuplicates(t *testing.T) {
	o := New(testCatalog(t))
	require.NoError(t, o.AddAll([]string{"Cola", "Pizza Margherita", "Cola"}))

	assert.Equal(t, 3, o.Len())
	assert.Equal(t, []models.OrderLine{
		{Name: "Cola", Price: 400},
		{Name: "Pizza Margherita", Price: 1500},
		{Name: "Cola", Price: 400},
	}, o.Lines())
	assert.Equal(t, []int64{400, 1500, 400}, o.Prices())
	assert.Equal(t, "Cola (x2), Pizza Margherita (x1)", o.Summary())
}

func TestOrder_UnknownProduct(t *testing.T) {
	o := New(testCatalog(t))
	require.NoError(t, o.Add("Cola"))

	err := o.AddAll([]string{"Pizza Margherita", "Sprite", "Cola"})
	assert.ErrorIs(t, err, ErrUnknownProduct)
	assert.Equal(t, 2, o.Len())
}

func TestCounter(t *testing.T) {
	c := NewCounter(0)
	assert.Equal(t, 1, c.Current())
	assert.Equal(t, 2, c.Advance())
	assert.Equal(t, 2, c.Current())

	assert.Equal(t, 42, NewCounter(42).Current())
}
