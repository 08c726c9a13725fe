package cart

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momofof/genie-cart/internal/domain"
)

func tee(color string, qty int) domain.LineItem {
	return domain.LineItem{
		ProductID:         "tee-1",
		ProductName:       "Custom Tee",
		UnitPrice:         2500,
		Quantity:          qty,
		VariantAttributes: map[string]string{"color": color},
	}
}

func mug(qty int) domain.LineItem {
	return domain.LineItem{
		ProductID:   "mug-1",
		ProductName: "Custom Mug",
		UnitPrice:   1200,
		Quantity:    qty,
	}
}

func TestStore_AddItem_MergesMatchingLine(t *testing.T) {
	s := NewStore()
	s.AddItem(tee("red", 1))
	s.AddItem(mug(1))
	got := s.AddItem(tee("red", 2))

	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].Quantity)
	assert.Equal(t, "mug-1", got[1].ProductID)
}

func TestStore_AddItem_AppendsDistinctLine(t *testing.T) {
	s := NewStore()
	s.AddItem(tee("red", 1))
	got := s.AddItem(tee("blue", 1))

	require.Len(t, got, 2)
	assert.Equal(t, "red", got[0].VariantAttributes["color"])
	assert.Equal(t, "blue", got[1].VariantAttributes["color"])
}

func TestStore_RemoveItem(t *testing.T) {
	s := NewStore()
	s.AddItem(tee("red", 1))
	s.AddItem(mug(1))

	got, err := s.RemoveItem(0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "mug-1", got[0].ProductID)
}

func TestStore_RemoveItem_OutOfRange(t *testing.T) {
	s := NewStore()
	s.AddItem(mug(1))

	_, err := s.RemoveItem(1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = s.RemoveItem(-1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.Equal(t, 1, s.Len())
}

func TestStore_SetQuantity(t *testing.T) {
	s := NewStore()
	s.AddItem(mug(1))

	got, err := s.SetQuantity(0, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, got[0].Quantity)
}

func TestStore_SetQuantity_ZeroRemoves(t *testing.T) {
	s := NewStore()
	s.AddItem(tee("red", 2))
	s.AddItem(mug(1))

	got, err := s.SetQuantity(0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "mug-1", got[0].ProductID)

	got, err = s.SetQuantity(0, -3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_SetQuantity_OutOfRange(t *testing.T) {
	s := NewStore()
	_, err := s.SetQuantity(0, 1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestStore_DeleteSelected_PreservesOrder(t *testing.T) {
	s := NewStore()
	s.AddItem(tee("red", 1))
	s.AddItem(tee("blue", 1))
	s.AddItem(mug(1))
	s.AddItem(tee("green", 1))

	got, err := s.DeleteSelected([]int{2, 0, 0})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "blue", got[0].VariantAttributes["color"])
	assert.Equal(t, "green", got[1].VariantAttributes["color"])
}

func TestStore_DeleteSelected_InvalidIndexLeavesSnapshotUntouched(t *testing.T) {
	s := NewStore()
	s.AddItem(tee("red", 1))
	s.AddItem(mug(1))

	_, err := s.DeleteSelected([]int{0, 5})
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.Equal(t, 2, s.Len())
}

func TestStore_DeleteSelected_AllIndices(t *testing.T) {
	s := NewStore()
	s.AddItem(tee("red", 1))
	s.AddItem(mug(1))

	got, err := s.DeleteSelected([]int{0, 1})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_Clear(t *testing.T) {
	s := NewStore()
	s.AddItem(mug(3))
	s.Clear()

	assert.Empty(t, s.Items())
	assert.Zero(t, s.Total())
}

func TestStore_Replace_Normalizes(t *testing.T) {
	s := NewStore()
	s.Replace(domain.Snapshot{tee("red", 1), mug(1), tee("red", 2)})

	got := s.Items()
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].Quantity)
}

func TestStore_Total(t *testing.T) {
	s := NewStore()
	s.AddItem(tee("red", 2)) // 5000
	s.AddItem(mug(3))        // 3600

	assert.Equal(t, int64(8600), s.Total())
}

func TestStore_Items_ReturnsCopy(t *testing.T) {
	s := NewStore()
	s.AddItem(tee("red", 1))

	got := s.Items()
	got[0].Quantity = 99
	got[0].VariantAttributes["color"] = "black"

	fresh := s.Items()
	assert.Equal(t, 1, fresh[0].Quantity)
	assert.Equal(t, "red", fresh[0].VariantAttributes["color"])
}

func TestStore_ConcurrentAdds(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddItem(mug(1))
		}()
	}
	wg.Wait()

	got := s.Items()
	require.Len(t, got, 1)
	assert.Equal(t, 50, got[0].Quantity)
}
