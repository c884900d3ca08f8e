package domain

// Role is a student's designation inside a part. Lower values carry more
// authority: Accountant outranks SubAccountant outranks Member.
type Role int32

const (
	RoleAccountant    Role = 1
	RoleSubAccountant Role = 2
	RoleMember        Role = 3
)

// CanReviewPurchases reports whether the role may approve or reject purchase
// requests within its part.
func (r Role) CanReviewPurchases() bool {
	return r == RoleAccountant || r == RoleSubAccountant
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	return r >= RoleAccountant && r <= RoleMember
}

func (r Role) String() string {
	switch r {
	case RoleAccountant:
		return "accountant"
	case RoleSubAccountant:
		return "sub_accountant"
	case RoleMember:
		return "member"
	}
	return "unknown"
}
