package table

import "time"

// 占有イベントの種類（ルーティングキーとしても使う）
const (
	EventSeated = "table.seated"
	EventFreed  = "table.freed"
)

// OccupancyEvent はテーブルの着席・退席を通知するイベント
type OccupancyEvent struct {
	Type          string    `json:"type"`
	TableID       string    `json:"table_id"`
	TableName     string    `json:"table_name"`
	ReservationID string    `json:"reservation_id"`
	People        int       `json:"people,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewSeatedEvent は着席イベントを作成する
func NewSeatedEvent(t *Table, reservationID string, people int) OccupancyEvent {
	return OccupancyEvent{
		Type: EventSeated, TableID: t.ID, TableName: t.Name,
		ReservationID: reservationID, People: people,
		OccurredAt: time.Now().UTC(),
	}
}

// NewFreedEvent は退席イベントを作成する
func NewFreedEvent(t *Table, reservationID string) OccupancyEvent {
	return OccupancyEvent{
		Type: EventFreed, TableID: t.ID, TableName: t.Name,
		ReservationID: reservationID,
		OccurredAt:    time.Now().UTC(),
	}
}
