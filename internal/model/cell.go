package model

import "github.com/saldo27/shiftsched/internal/dateutil"

// Cell is one (date, post) coverage slot. WorkerID is empty when unfilled.
type Cell struct {
	Date     dateutil.Date
	Post     int
	WorkerID string
}

// Empty reports whether the cell currently has no worker assigned.
func (c Cell) Empty() bool { return c.WorkerID == "" }
