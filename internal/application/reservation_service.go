package application

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sanosuguru/restaurant-reservation/internal/domain/reservation"
	"github.com/sanosuguru/restaurant-reservation/internal/domain/transaction"
	"github.com/sanosuguru/restaurant-reservation/internal/pkg/logger"
	"github.com/sanosuguru/restaurant-reservation/internal/pkg/metrics"
)

type ReservationService struct {
	txManager       transaction.Manager
	reservationRepo reservation.Repository
	policy          reservation.Policy
	metrics         *metrics.Metrics
}

func NewReservationService(tm transaction.Manager, rr reservation.Repository, policy reservation.Policy, m *metrics.Metrics) *ReservationService {
	return &ReservationService{txManager: tm, reservationRepo: rr, policy: policy, metrics: m}
}

// ListQuery は予約一覧の絞り込み条件。どちらか一方だけを指定する。
type ListQuery struct {
	Date         *string
	MobileNumber *string
}

// ListReservations は日付または電話番号で予約を検索する
func (s *ReservationService) ListReservations(ctx context.Context, q ListQuery) ([]*reservation.Reservation, error) {
	switch {
	case q.Date != nil && q.MobileNumber == nil:
		date, err := reservation.ParseDate(strings.TrimSpace(*q.Date))
		if err != nil {
			return nil, fmt.Errorf("%w: date", reservation.ErrBadQuery)
		}
		return s.reservationRepo.ListByDate(ctx, date)
	case q.MobileNumber != nil && q.Date == nil:
		digits := digitsOnly(*q.MobileNumber)
		if digits == "" {
			return nil, fmt.Errorf("%w: mobile_number", reservation.ErrBadQuery)
		}
		return s.reservationRepo.SearchByMobileNumber(ctx, digits)
	}
	return nil, reservation.ErrBadQuery
}

func (s *ReservationService) GetReservation(ctx context.Context, id string) (*reservation.Reservation, error) {
	return s.reservationRepo.GetByID(ctx, id)
}

// CreateReservation は入力を検証して booked の予約を作成する
func (s *ReservationService) CreateReservation(ctx context.Context, in reservation.Input) (res *reservation.Reservation, err error) {
	defer func() { s.record("create", err) }()

	draft, err := s.policy.CreatePipeline().Run(in)
	if err != nil {
		return nil, err
	}
	res = reservation.NewReservation(draft)
	if err := s.reservationRepo.Create(ctx, res); err != nil {
		return nil, err
	}
	logger.Reservation(res.ID).Info("予約を作成しました",
		zap.String("date", res.DateString()),
		zap.String("time", res.Time),
		zap.Int("people", res.People),
	)
	return res, nil
}

// UpdateReservation は予約内容を書き換える。終了済みの予約は検証前に拒否する。
func (s *ReservationService) UpdateReservation(ctx context.Context, id string, in reservation.Input) (res *reservation.Reservation, err error) {
	defer func() { s.record("update", err) }()

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer transaction.Rollback(tx)

	res, err = s.reservationRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if res.IsFinished() {
		return nil, reservation.ErrReservationFinished
	}
	draft, err := s.policy.UpdatePipeline().Run(in)
	if err != nil {
		return nil, err
	}
	if err := res.Apply(draft); err != nil {
		return nil, err
	}
	if err := s.reservationRepo.Update(ctx, tx, res); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}
	return res, nil
}

// UpdateStatus はステータスを変更し、変更後のステータスを返す
func (s *ReservationService) UpdateStatus(ctx context.Context, id, status string) (st reservation.Status, err error) {
	defer func() { s.record("status", err) }()

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer transaction.Rollback(tx)

	res, err := s.reservationRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return "", err
	}
	prev := res.Status
	if err := res.TransitionTo(status); err != nil {
		return "", err
	}
	if err := s.reservationRepo.Update(ctx, tx, res); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("コミットに失敗: %w", err)
	}
	logger.Reservation(id).Info("ステータスを変更しました",
		zap.String("from", string(prev)),
		zap.String("to", string(res.Status)),
	)
	return res.Status, nil
}

func (s *ReservationService) record(operation string, err error) {
	s.metrics.ReservationsTotal.WithLabelValues(operation, resultOf(err)).Inc()
}

// digitsOnly は数字以外を取り除く
func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
