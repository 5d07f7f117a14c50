package models

import "errors"

// Таксономия ошибок движка. Транзиентные ошибки биржи не получают
// отдельного типа: их просто повторяем на следующем тике.
var (
	// ErrInvalidConfiguration — фатально на старте, процесс не запускаем.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrPlacementRejected — биржа отклонила одну ступень (minimum notional
	// и т.п.). Логируем и продолжаем с остальными ступенями.
	ErrPlacementRejected = errors.New("placement rejected")

	// ErrOrderNotFound — заявки уже нет на бирже (cancel по несуществующей).
	ErrOrderNotFound = errors.New("order not found")

	// ErrNoActiveCycle — ручной /cancel вне активного цикла.
	ErrNoActiveCycle = errors.New("no active cycle")

	// ErrCycleActive — ручной /place при уже идущем цикле.
	ErrCycleActive = errors.New("cycle already active")
)
