package models

import "time"

// DepositEvent is one row of the append-only history log.
type DepositEvent struct {
	ID           int64
	MemberID     int64
	WeightAmount Quantity
	PointsEarned Quantity
	CreatedAt    time.Time
}

// DepositResult is what the deposit processor reports back to the caller.
type DepositResult struct {
	MemberID         int64
	Phone            string
	Created          bool
	CumulativeWeight Quantity
	PointsEarned     Quantity
	PointBalance     Quantity
}
