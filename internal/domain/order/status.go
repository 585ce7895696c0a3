package order

import "fmt"

// Status is the lifecycle state of a service order. The lifecycle is
// forward-only: each status is left through exactly one operation, listed
// in the transition table below.
type Status string

const (
	StatusReceived         Status = "received"
	StatusInDiagnosis      Status = "in_diagnosis"
	StatusAwaitingApproval Status = "awaiting_approval"
	StatusInExecution      Status = "in_execution"
	StatusCompleted        Status = "completed"
	StatusDelivered        Status = "delivered"

	// StatusCancelled is terminal but has no entry in the transition table.
	// Orders only reach it through direct administrative override.
	StatusCancelled Status = "cancelled"
)

// ParseStatus converts a wire value into a known Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusReceived, StatusInDiagnosis, StatusAwaitingApproval,
		StatusInExecution, StatusCompleted, StatusDelivered, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Terminal reports whether no further transitions leave this status.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// TerminalStatuses is the set excluded by the active-order uniqueness check.
func TerminalStatuses() []Status {
	return []Status{StatusCompleted, StatusDelivered, StatusCancelled}
}

// Operation is a named status transition.
type Operation string

const (
	OpStartDiagnosis  Operation = "start_diagnosis"
	OpRequestApproval Operation = "request_approval"
	OpApprove         Operation = "approve"
	OpComplete        Operation = "complete"
	OpDeliver         Operation = "deliver"
)

// transitions maps (source status, operation) to the resulting status. Any
// pair absent from the table is rejected with *InvalidTransitionError.
var transitions = map[Status]map[Operation]Status{
	StatusReceived:         {OpStartDiagnosis: StatusInDiagnosis},
	StatusInDiagnosis:      {OpRequestApproval: StatusAwaitingApproval},
	StatusAwaitingApproval: {OpApprove: StatusInExecution},
	StatusInExecution:      {OpComplete: StatusCompleted},
	StatusCompleted:        {OpDeliver: StatusDelivered},
}

// OperationFor returns the operation that moves an order from one status to
// another, if the transition table contains one.
func OperationFor(from, to Status) (Operation, bool) {
	for op, target := range transitions[from] {
		if target == to {
			return op, true
		}
	}
	return "", false
}
