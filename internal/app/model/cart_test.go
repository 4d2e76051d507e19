package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCartItem_SameLine(t *testing.T) {
	variantA := uint(3)
	variantB := uint(4)

	bare := CartItem{ProductID: 1}
	assert.True(t, bare.SameLine(1, nil))
	assert.False(t, bare.SameLine(2, nil))
	assert.False(t, bare.SameLine(1, &variantA))

	withVariant := CartItem{ProductID: 1, VariantID: &variantA}
	assert.True(t, withVariant.SameLine(1, &variantA))
	assert.False(t, withVariant.SameLine(1, &variantB))
	assert.False(t, withVariant.SameLine(1, nil))
}

func TestCartItem_LineTotal(t *testing.T) {
	item := CartItem{Quantity: 3, UnitPrice: 9.99}
	assert.InDelta(t, 29.97, item.LineTotal(), 0.0001)
}
