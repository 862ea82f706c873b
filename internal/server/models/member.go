package models

import "time"

// Member is a participant of the deposit programme. Members created by a
// first deposit carry only Phone; Username and PasswordHash are set for
// registered accounts.
type Member struct {
	ID               int64
	Phone            string
	Username         string
	PasswordHash     string
	FirstName        string
	LastName         string
	Email            string
	CumulativeWeight Quantity
	PointBalance     Quantity
	CreatedAt        time.Time
}

// Registered reports whether the member can log in.
func (m *Member) Registered() bool {
	return m.Username != "" && m.PasswordHash != ""
}

// Balances is the ledger state returned by an increment.
type Balances struct {
	MemberID         int64
	CumulativeWeight Quantity
	PointBalance     Quantity
}
