package reservation

import "time"

// Status は予約の状態を表す
type Status string

const (
	StatusBooked    Status = "booked"
	StatusSeated    Status = "seated"
	StatusFinished  Status = "finished"
	StatusCancelled Status = "cancelled"
)

// DateLayout は予約日の書式
const DateLayout = "2006-01-02"

// ParseStatus は文字列を Status に変換する
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusBooked, StatusSeated, StatusFinished, StatusCancelled:
		return st, nil
	}
	return "", ErrInvalidStatus
}

// Reservation は予約エンティティを表す
type Reservation struct {
	ID           string
	FirstName    string
	LastName     string
	MobileNumber string
	Date         time.Time // 日付のみ（時刻部分は 00:00）
	Time         string    // HH:MM
	People       int
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewReservation は検証済みドラフトから新しい予約を作成する
func NewReservation(d *Draft) *Reservation {
	now := time.Now()
	return &Reservation{
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		MobileNumber: d.MobileNumber,
		Date:         d.Date,
		Time:         d.Time,
		People:       d.People,
		Status:       StatusBooked,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsFinished は予約が終了済みかを返す
func (r *Reservation) IsFinished() bool {
	return r.Status == StatusFinished
}

// IsBooked は予約が着席待ちかを返す
func (r *Reservation) IsBooked() bool {
	return r.Status == StatusBooked
}

// DateString は予約日を YYYY-MM-DD で返す
func (r *Reservation) DateString() string {
	return r.Date.Format(DateLayout)
}

// Apply はドラフトの内容で予約を書き換える。ステータスは変更しない。
func (r *Reservation) Apply(d *Draft) error {
	if r.IsFinished() {
		return ErrReservationFinished
	}
	r.FirstName = d.FirstName
	r.LastName = d.LastName
	r.MobileNumber = d.MobileNumber
	r.Date = d.Date
	r.Time = d.Time
	r.People = d.People
	r.UpdatedAt = time.Now()
	return nil
}

// TransitionTo はステータスを変更する。
// finished 以外からはどの状態へも遷移できる。
func (r *Reservation) TransitionTo(raw string) error {
	next, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	if r.IsFinished() {
		return ErrReservationFinished
	}
	r.Status = next
	r.UpdatedAt = time.Now()
	return nil
}

// Seat は予約を着席状態にする
func (r *Reservation) Seat() error {
	if !r.IsBooked() {
		return ErrReservationNotBookable
	}
	r.Status = StatusSeated
	r.UpdatedAt = time.Now()
	return nil
}

// Finish は予約を終了状態にする
func (r *Reservation) Finish() {
	r.Status = StatusFinished
	r.UpdatedAt = time.Now()
}
