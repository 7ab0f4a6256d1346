package table

import (
	"strings"
	"time"
)

// MinNameLength はテーブル名の最小文字数
const MinNameLength = 2

// Table はテーブルエンティティを表す
type Table struct {
	ID            string
	Name          string
	Capacity      int
	Occupied      bool
	ReservationID *string // 着席中の reservation_id
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewTable は新しい空きテーブルを作成する
func NewTable(name string, capacity int) *Table {
	now := time.Now()
	return &Table{
		Name:      strings.TrimSpace(name),
		Capacity:  capacity,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsFree はテーブルが空いているかを返す
func (t *Table) IsFree() bool {
	return !t.Occupied
}

// CanHost は人数がテーブルに収まるかを返す
func (t *Table) CanHost(people int) bool {
	return people <= t.Capacity
}

// Occupy はテーブルを予約で埋める
func (t *Table) Occupy(reservationID string, people int) error {
	if t.Occupied {
		return ErrTableOccupied
	}
	if !t.CanHost(people) {
		return ErrInsufficientCapacity
	}
	t.Occupied = true
	t.ReservationID = &reservationID
	t.UpdatedAt = time.Now()
	return nil
}

// Release はテーブルを空け、着席していた reservation_id を返す
func (t *Table) Release() (string, error) {
	if !t.Occupied {
		return "", ErrTableNotOccupied
	}
	var reservationID string
	if t.ReservationID != nil {
		reservationID = *t.ReservationID
	}
	t.Occupied = false
	t.ReservationID = nil
	t.UpdatedAt = time.Now()
	return reservationID, nil
}

// ValidName はテーブル名が前後の空白を除いて MinNameLength 文字以上かを確認する
func ValidName(name string) error {
	if len([]rune(strings.TrimSpace(name))) < MinNameLength {
		return ErrInvalidTableName
	}
	return nil
}

// Validate はテーブル名、定員の順に検証する
func (t *Table) Validate() error {
	if err := ValidName(t.Name); err != nil {
		return err
	}
	if t.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	return nil
}
