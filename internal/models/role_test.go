package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleCapabilities(t *testing.T) {
	tests := []struct {
		role Role
		cap  Capability
		want bool
	}{
		{RoleAdmin, CapManageOrders, true},
		{RoleAdmin, CapReviewProducts, true},
		{RoleAdmin, CapManageStock, true},
		{RoleStaff, CapManageOrders, false},
		{RoleStaff, CapManageStock, false},
		{RoleStaff, CapCreateProducts, true},
		{RoleCustomer, CapViewAllOrders, false},
		{RoleCustomer, CapCreateProducts, false},
		{Role("superuser"), CapManageOrders, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.role.Can(tt.cap), "%s/%d", tt.role, tt.cap)
	}
}

func TestOrderStatusValid(t *testing.T) {
	assert.True(t, OrderDelivered.Valid())
	assert.True(t, OrderCancelled.Valid())
	assert.False(t, OrderStatus("invalid_state").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestContactAddress(t *testing.T) {
	assert.Equal(t, "+251911000000", (&Account{Email: "a@b.io", Phone: "+251911000000"}).ContactAddress())
	assert.Equal(t, "a@b.io", (&Account{Email: "a@b.io"}).ContactAddress())
}
