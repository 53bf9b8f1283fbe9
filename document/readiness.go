package document

// Readiness mirrors the driver connection state. The numeric values follow
// the conventional ordering used by document-store drivers.
type Readiness int32

const (
	Disconnected  Readiness = 0
	Connected     Readiness = 1
	Connecting    Readiness = 2
	Disconnecting Readiness = 3
)

func (r Readiness) String() string {
	switch r {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case Connecting:
		return "connecting"
	case Disconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}
