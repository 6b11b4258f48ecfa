package enum

import "fmt"

// Status is the order lifecycle state. The set is closed: the backend stores
// the literal label, so parsing rejects anything outside the three values.
type Status string

const (
	StatusEmPreparo Status = "Em preparo"
	StatusPronto    Status = "Pronto"
	StatusEntregue  Status = "Entregue"
)

// Statuses lists every valid order status in natural lifecycle order.
// Transitions are not restricted to this order; any status may move to any
// other, and a same-status change is a no-op.
var Statuses = []Status{StatusEmPreparo, StatusPronto, StatusEntregue}

// ParseStatus validates a raw label against the closed status set.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusEmPreparo, StatusPronto, StatusEntregue:
		return Status(s), nil
	}
	return "", fmt.Errorf("invalid status %q", s)
}

// Valid reports whether st is one of the three known statuses.
func (st Status) Valid() bool {
	_, err := ParseStatus(string(st))
	return err == nil
}
