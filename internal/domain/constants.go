package domain

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// DefaultWordsLimit is the monthly allowance given to new accounts.
const DefaultWordsLimit = 5000
