package domain

import "time"

// TimelineEvent — одна запись в истории жизненного цикла заказа.
// Type — имя события ("OrderCreated" и т.п.), Reason заполняется,
// когда у события есть внешняя причина.
type TimelineEvent struct {
	OrderID  int64
	Type     string
	Reason   string
	Occurred time.Time
}
