package models

import (
	"fmt"
	"strings"
	"time"
)

// Job lifecycle statuses. Comparison is case-insensitive; these are the
// canonical forms written back to the store.
const (
	StatusNew       = "New"
	StatusAssigned  = "ASSIGNED"
	StatusPickedUp  = "PICKED_UP"
	StatusInTransit = "IN_TRANSIT"
	StatusArrived   = "ARRIVED"
	StatusDelivered = "DELIVERED"
	StatusCompleted = "Completed"
	StatusCancelled = "CANCELLED"
	StatusFailed    = "Failed"
)

// Driver payment statuses. Thai legacy spellings still appear on old rows
// and are accepted on read; writes always use the canonical form.
const (
	PaymentPending = "PENDING"
	PaymentPaid    = "Paid"
	PaymentOverdue = "OVERDUE"
)

// Customer billing statuses.
const (
	BillingPending = "รอวางบิล"
	BillingBilled  = "Billed"
	BillingPaid    = "ชำระแล้ว"
)

var statusCanonical = map[string]string{
	"new":        StatusNew,
	"assigned":   StatusAssigned,
	"planned":    StatusAssigned, // legacy planner spelling
	"picked_up":  StatusPickedUp,
	"in_transit": StatusInTransit,
	"arrived":    StatusArrived,
	"delivered":  StatusDelivered,
	"completed":  StatusCompleted,
	"cancelled":  StatusCancelled,
	"failed":     StatusFailed,
}

// CanonicalStatus maps any accepted spelling onto the canonical member of
// the status set. Unknown spellings come back unchanged with ok=false.
func CanonicalStatus(s string) (string, bool) {
	c, ok := statusCanonical[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return s, false
	}
	return c, true
}

// IsTerminalStatus reports whether a job can no longer move.
func IsTerminalStatus(s string) bool {
	c, _ := CanonicalStatus(s)
	return c == StatusCompleted || c == StatusCancelled || c == StatusFailed
}

// IsPaid compares a driver payment status against Paid across the legacy
// spellings (Paid, PAID, จ่ายแล้ว).
func IsPaid(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "paid", "จ่ายแล้ว":
		return true
	}
	return false
}

// IsBilled compares a billing status against Billed.
func IsBilled(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), BillingBilled)
}

// statusFlow is the allowed transition graph. Terminal statuses have no
// outgoing edges; CANCELLED and Failed are reachable from every live
// status.
var statusFlow = map[string][]string{
	StatusNew:       {StatusAssigned, StatusCancelled, StatusFailed},
	StatusAssigned:  {StatusPickedUp, StatusNew, StatusCancelled, StatusFailed},
	StatusPickedUp:  {StatusInTransit, StatusCancelled, StatusFailed},
	StatusInTransit: {StatusArrived, StatusDelivered, StatusCancelled, StatusFailed},
	StatusArrived:   {StatusDelivered, StatusCancelled, StatusFailed},
	StatusDelivered: {StatusCompleted, StatusFailed},
	StatusCompleted: {},
	StatusCancelled: {},
	StatusFailed:    {},
}

// CanTransition reports whether from -> to is an allowed move. Writing
// the current status again is a no-op and always allowed.
func CanTransition(from, to string) bool {
	f, _ := CanonicalStatus(from)
	t, ok := CanonicalStatus(to)
	if !ok {
		return false
	}
	if f == t {
		return true
	}
	for _, s := range statusFlow[f] {
		if s == t {
			return true
		}
	}
	return false
}

// ApplyTransition moves a job to the target status, maintaining the POD
// time fields. It enforces the GPS invariant: DELIVERED and Completed
// need a non-zero delivery fix.
func ApplyTransition(j *Job, to string, now time.Time) error {
	if j == nil {
		return fmt.Errorf("job is nil: %w", ErrValidation)
	}
	target, ok := CanonicalStatus(to)
	if !ok {
		return fmt.Errorf("status %q: %w", to, ErrValidation)
	}
	if !CanTransition(j.JobStatus, target) {
		return fmt.Errorf("%s -> %s: %w", j.JobStatus, target, ErrInvalidTransition)
	}
	if (target == StatusDelivered || target == StatusCompleted) &&
		(j.DeliveryLat == 0 || j.DeliveryLon == 0) {
		return fmt.Errorf("job %s: %w", j.JobID, ErrGpsRequired)
	}

	j.JobStatus = target
	ts := JSONTime(now)
	switch target {
	case StatusPickedUp:
		if j.ActualPickupTime == nil {
			j.ActualPickupTime = &ts
		}
	case StatusArrived:
		if j.ArriveDestTime == nil {
			j.ArriveDestTime = &ts
		}
	case StatusDelivered, StatusCompleted:
		if j.ArriveDestTime == nil {
			j.ArriveDestTime = &ts
		}
		if j.ActualDeliveryTime == nil {
			j.ActualDeliveryTime = &ts
		}
	}
	return nil
}

// CheckPaymentLock rejects mutation of the financially locked fields on a
// Paid row. changed lists the column names the caller intends to write.
func CheckPaymentLock(j *Job, changed []string) error {
	if !IsPaid(j.PaymentStatus) {
		return nil
	}
	locked := map[string]bool{
		"Cost_Driver_Total": true,
		"Payment_Date":      true,
		"Payment_Slip_Url":  true,
	}
	for _, col := range changed {
		if locked[col] {
			return fmt.Errorf("job %s field %s: %w", j.JobID, col, ErrPaymentLocked)
		}
	}
	return nil
}

// CheckBillingLock rejects mutation of Price_Cust_Total on a Billed row.
func CheckBillingLock(j *Job, changed []string) error {
	if !IsBilled(j.BillingStatus) {
		return nil
	}
	for _, col := range changed {
		if col == "Price_Cust_Total" {
			return fmt.Errorf("job %s: %w", j.JobID, ErrBillingLocked)
		}
	}
	return nil
}
