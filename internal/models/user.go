package models

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User is a storefront account. Admins manage the back office; customers may
// check out as guests, so orders do not require one.
type User struct {
	BaseModel
	Name         string  `json:"name"`
	Email        string  `gorm:"uniqueIndex" json:"email"`
	Phone        string  `json:"phone"`
	PasswordHash string  `json:"-"`
	Role         string  `gorm:"index" json:"role"`
	Orders       []Order `gorm:"foreignKey:CustomerID" json:"orders,omitempty"`
}

// IsAdmin reports whether the user may access back-office routes.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
