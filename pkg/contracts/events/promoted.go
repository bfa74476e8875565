package events

import "time"

// Evento emitido quando uma PromotedOdd visível é criada (fan-out de notificação).
type PromotedNotice struct {
	MessageID     string    `json:"message_id"`
	PromotedOddID int64     `json:"promoted_odd_id"`
	Channel       int       `json:"channel"` // 1 = surebet, 2 = steam
	Ts            time.Time `json:"ts"`
}
