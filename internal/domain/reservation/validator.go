package reservation

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Input は検証前の予約ペイロード
type Input struct {
	FirstName    string
	LastName     string
	MobileNumber string
	Date         string
	Time         string
	People       any // JSON デコード結果をそのまま受け取る（float64, json.Number 等）
	Status       string
}

// Draft は検証済み・未永続化の予約
type Draft struct {
	FirstName    string
	LastName     string
	MobileNumber string
	Date         time.Time
	Time         string
	People       int
	Status       Status
}

// Candidate はパイプライン実行中の予約候補。各ルールが正規化した値を書き込む。
type Candidate struct {
	Input Input

	date   time.Time
	hour   int
	minute int
	people int
}

// Clock は HH:MM 形式の正規化済み時刻を返す
func (c *Candidate) Clock() string {
	return fmt.Sprintf("%02d:%02d", c.hour, c.minute)
}

// At は予約日時を指定ロケーションで返す
func (c *Candidate) At(loc *time.Location) time.Time {
	return time.Date(c.date.Year(), c.date.Month(), c.date.Day(), c.hour, c.minute, 0, 0, loc)
}

// Rule は予約候補を検証するステップ。失敗時は最初のエラーで打ち切る。
type Rule func(c *Candidate) error

// Pipeline は順序付きのルール列
type Pipeline []Rule

// Run はルールを先頭から適用し、すべて通過すればドラフトを返す
func (p Pipeline) Run(in Input) (*Draft, error) {
	c := &Candidate{Input: in}
	for _, rule := range p {
		if err := rule(c); err != nil {
			return nil, err
		}
	}
	return &Draft{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		MobileNumber: strings.TrimSpace(in.MobileNumber),
		Date:         c.date,
		Time:         c.Clock(),
		People:       c.people,
		Status:       StatusBooked,
	}, nil
}

// RequireFields は必須項目の存在を確認する
func RequireFields(c *Candidate) error {
	fields := []struct {
		name  string
		value string
	}{
		{"first_name", c.Input.FirstName},
		{"last_name", c.Input.LastName},
		{"mobile_number", c.Input.MobileNumber},
		{"reservation_date", c.Input.Date},
		{"reservation_time", c.Input.Time},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}
	if c.Input.People == nil {
		return fmt.Errorf("%w: people", ErrMissingField)
	}
	return nil
}

// ValidDate は予約日が実在する日付かを確認する
func ValidDate(c *Candidate) error {
	d, err := ParseDate(c.Input.Date)
	if err != nil {
		return err
	}
	c.date = d
	return nil
}

// ParseDate は YYYY-MM-DD（または RFC3339 の日付部分）を日付に変換する
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(DateLayout, s); err == nil {
		return d, nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, ErrInvalidDate
}

// ValidTime は予約時刻が HH:MM（00:00〜23:59）かを確認する
func ValidTime(c *Candidate) error {
	parts := strings.Split(strings.TrimSpace(c.Input.Time), ":")
	if len(parts) != 2 {
		return ErrInvalidTime
	}
	limits := [2]int{23, 59}
	var values [2]int
	for i, p := range parts {
		n, ok := twoDigits(p)
		if !ok || n > limits[i] {
			return ErrInvalidTime
		}
		values[i] = n
	}
	c.hour, c.minute = values[0], values[1]
	return nil
}

// twoDigits は ASCII 数字ちょうど2文字を数値にする。符号や全角数字は受け付けない。
func twoDigits(s string) (int, bool) {
	if len(s) != 2 {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}
	return n, true
}

// PositivePartySize は人数が正の整数かを確認する
func PositivePartySize(c *Candidate) error {
	n, ok := partySize(c.Input.People)
	if !ok || n <= 0 {
		return ErrInvalidPartySize
	}
	c.people = n
	return nil
}

func partySize(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil || i > math.MaxInt32 {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}

// AllowStatus は指定があればステータスが許可リストに含まれるかを確認する
func AllowStatus(allowed ...Status) Rule {
	return func(c *Candidate) error {
		if c.Input.Status == "" {
			return nil
		}
		for _, s := range allowed {
			if Status(c.Input.Status) == s {
				return nil
			}
		}
		return fmt.Errorf("%w: status=%s", ErrInvalidStatus, c.Input.Status)
	}
}

// ClosedOn は定休日の予約を拒否する
func ClosedOn(day time.Weekday, loc *time.Location) Rule {
	return func(c *Candidate) error {
		if c.At(loc).Weekday() == day {
			return ErrClosedDay
		}
		return nil
	}
}

// InFuture は予約日時が現在より後かを確認する
func InFuture(now func() time.Time, loc *time.Location) Rule {
	return func(c *Candidate) error {
		if !c.At(loc).After(now()) {
			return ErrNotInFuture
		}
		return nil
	}
}

// WithinHours は予約時刻が営業時間内（両端含む）かを確認する。
// ゼロ埋め HH:MM なので文字列比較で足りる。
func WithinHours(opening, closing string) Rule {
	return func(c *Candidate) error {
		clock := c.Clock()
		if clock < opening || clock > closing {
			return ErrOutsideBusinessHours
		}
		return nil
	}
}

// Policy は店舗の受付ルール
type Policy struct {
	Location  *time.Location
	ClosedDay time.Weekday
	Opening   string
	Closing   string
	Now       func() time.Time
}

// DefaultPolicy は火曜定休・10:30〜21:30 営業のポリシーを返す
func DefaultPolicy(loc *time.Location) Policy {
	if loc == nil {
		loc = time.UTC
	}
	return Policy{
		Location:  loc,
		ClosedDay: time.Tuesday,
		Opening:   "10:30",
		Closing:   "21:30",
		Now:       time.Now,
	}
}

// CreatePipeline は新規予約用の検証パイプラインを返す
func (p Policy) CreatePipeline() Pipeline {
	return Pipeline{
		RequireFields,
		ValidDate,
		ValidTime,
		PositivePartySize,
		AllowStatus(StatusBooked),
		ClosedOn(p.ClosedDay, p.Location),
		InFuture(p.Now, p.Location),
		WithinHours(p.Opening, p.Closing),
	}
}

// UpdatePipeline は予約更新用の検証パイプラインを返す。ステータスは検証しない。
func (p Policy) UpdatePipeline() Pipeline {
	return Pipeline{
		RequireFields,
		ValidDate,
		ValidTime,
		PositivePartySize,
		ClosedOn(p.ClosedDay, p.Location),
		InFuture(p.Now, p.Location),
		WithinHours(p.Opening, p.Closing),
	}
}
