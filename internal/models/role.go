package models

import "github.com/google/uuid"

// Role is the closed set of account roles.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "user"
	RoleAdmin    Role = "admin"
)

// Capability is an action guarded by role.
type Capability int

const (
	CapManageOrders Capability = iota + 1
	CapViewAllOrders
	CapManageAccounts
	CapCreateProducts
	CapReviewProducts
	CapManageStock
)

var roleCapabilities = map[Role]map[Capability]bool{
	RoleCustomer: {},
	RoleStaff: {
		CapViewAllOrders:  true,
		CapCreateProducts: true,
	},
	RoleAdmin: {
		CapManageOrders:   true,
		CapViewAllOrders:  true,
		CapManageAccounts: true,
		CapCreateProducts: true,
		CapReviewProducts: true,
		CapManageStock:    true,
	},
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Can reports whether r holds capability c. Unknown roles hold nothing.
func (r Role) Can(c Capability) bool {
	return roleCapabilities[r][c]
}

// IsStaff is true for back-office roles.
func (r Role) IsStaff() bool {
	return r == RoleStaff || r == RoleAdmin
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// Can reports whether the actor's role holds capability c.
func (a Actor) Can(c Capability) bool {
	return a.Role.Can(c)
}
