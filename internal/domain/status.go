package domain

// Status is the main progression of an order. Archival is tracked separately.
type Status string

const (
	StatusReceived      Status = "received"
	StatusConfirmed     Status = "confirmed"
	StatusInPreparation Status = "in_preparation"
	StatusReady         Status = "ready"
	StatusDelivered     Status = "delivered"
)

var statusOrder = []Status{StatusReceived, StatusConfirmed, StatusInPreparation, StatusReady, StatusDelivered}

var statusLabels = map[Status]string{
	StatusReceived:      "Ricevuto",
	StatusConfirmed:     "Confermato",
	StatusInPreparation: "In preparazione",
	StatusReady:         "Pronto",
	StatusDelivered:     "Consegnato",
}

func Statuses() []Status { return append([]Status(nil), statusOrder...) }

func (s Status) rank() int {
	for i, x := range statusOrder {
		if x == s {
			return i
		}
	}
	return -1
}

func (s Status) Valid() bool { return s.rank() >= 0 }

func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// CanMoveTo allows staying put and moving forward, never backward.
func (s Status) CanMoveTo(next Status) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	return next.rank() >= s.rank()
}
