package inventory

import "strings"

// Identity is the {name, employee id} pair attributed to a receive or
// release action. It is snapshotted onto the records it touches and is
// never resolved back to an operator account afterwards.
type Identity struct {
	Name       string `json:"name"`
	EmployeeID string `json:"employee_id"`
}

// IsZero reports whether the identity carries no attribution
func (i Identity) IsZero() bool {
	return strings.TrimSpace(i.Name) == "" && strings.TrimSpace(i.EmployeeID) == ""
}
