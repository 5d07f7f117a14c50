package models

// Phase — состояние дневного цикла. Idle — и начальное, и конечное
// состояние между торговыми днями (blackout-пауза).
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePlacing
	PhaseMonitoring
	PhaseClosing
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePlacing:
		return "placing"
	case PhaseMonitoring:
		return "monitoring"
	case PhaseClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// EngineStatus — снапшот для команды /status.
type EngineStatus struct {
	Phase       Phase
	Day         string
	OpenOrders  []TrackedOrder
	LastSummary *FillSummary
}
