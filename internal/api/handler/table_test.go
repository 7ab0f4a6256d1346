package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/restaurant-reservation/internal/application"
	"github.com/sanosuguru/restaurant-reservation/internal/domain/reservation"
	"github.com/sanosuguru/restaurant-reservation/internal/domain/table"
)

// MockTableService はTableServiceInterfaceのモック
type MockTableService struct {
	mock.Mock
}

func (m *MockTableService) ListTables(ctx context.Context) ([]*table.Table, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*table.Table), args.Error(1)
}

func (m *MockTableService) CreateTable(ctx context.Context, name string, capacity int) (*table.Table, error) {
	args := m.Called(ctx, name, capacity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*table.Table), args.Error(1)
}

func (m *MockTableService) Seat(ctx context.Context, tableID, reservationID string) (*table.Table, error) {
	args := m.Called(ctx, tableID, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*table.Table), args.Error(1)
}

func (m *MockTableService) Unseat(ctx context.Context, tableID string) (*table.Table, error) {
	args := m.Called(ctx, tableID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*table.Table), args.Error(1)
}

func sampleTable(reservationID *string) *table.Table {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	return &table.Table{
		ID: "tbl-1", Name: "Bar #1", Capacity: 6,
		Occupied: reservationID != nil, ReservationID: reservationID,
		CreatedAt: now, UpdatedAt: now,
	}
}

type tableEnvelopeResponse struct {
	Data TableResponse `json:"data"`
}

func TestTableHandler_List(t *testing.T) {
	e := NewTestEcho()
	resID := "res-123"
	mockService := new(MockTableService)
	mockService.On("ListTables", mock.Anything).Return([]*table.Table{sampleTable(nil), sampleTable(&resID)}, nil)
	h := NewTableHandler(mockService)

	req := httptest.NewRequest(http.MethodGet, "/tables", nil)
	rec := httptest.NewRecorder()
	err := h.List(e.NewContext(req, rec))

	require.NoError(t, err)
	var resp struct {
		Data []TableResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.False(t, resp.Data[0].Occupied)
	assert.Nil(t, resp.Data[0].ReservationID)
	assert.True(t, resp.Data[1].Occupied)
	require.NotNil(t, resp.Data[1].ReservationID)
	assert.Equal(t, "res-123", *resp.Data[1].ReservationID)
}

func TestTableHandler_Create(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常にテーブルを作成できる", func(t *testing.T) {
		mockService := new(MockTableService)
		mockService.On("CreateTable", mock.Anything, "Bar #1", 6).Return(sampleTable(nil), nil)
		h := NewTableHandler(mockService)
		c, rec := newJSONContext(e, http.MethodPost, "/tables", `{"data":{"table_name":"Bar #1","capacity":6}}`)

		err := h.Create(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)
		var resp tableEnvelopeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "tbl-1", resp.Data.TableID)
		assert.Equal(t, 6, resp.Data.Capacity)
		mockService.AssertExpectations(t)
	})

	invalidCapacities := []string{`"6"`, `1.5`, `null`, `true`}
	for _, capacity := range invalidCapacities {
		t.Run("capacity "+capacity+" は400", func(t *testing.T) {
			mockService := new(MockTableService)
			h := NewTableHandler(mockService)
			body := fmt.Sprintf(`{"data":{"table_name":"Bar #1","capacity":%s}}`, capacity)
			c, _ := newJSONContext(e, http.MethodPost, "/tables", body)

			err := h.Create(c)

			he := requireHTTPError(t, err, http.StatusBadRequest)
			assert.Equal(t, table.ErrInvalidCapacity.Error(), he.Message)
			mockService.AssertNotCalled(t, "CreateTable", mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("短いテーブル名は400", func(t *testing.T) {
		mockService := new(MockTableService)
		h := NewTableHandler(mockService)
		c, _ := newJSONContext(e, http.MethodPost, "/tables", `{"data":{"table_name":"B","capacity":2}}`)

		err := h.Create(c)

		he := requireHTTPError(t, err, http.StatusBadRequest)
		assert.Equal(t, table.ErrInvalidTableName.Error(), he.Message)
		mockService.AssertNotCalled(t, "CreateTable", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("table_name がなければ400", func(t *testing.T) {
		h := NewTableHandler(new(MockTableService))
		c, _ := newJSONContext(e, http.MethodPost, "/tables", `{"data":{"capacity":2}}`)

		err := h.Create(c)

		he := requireHTTPError(t, err, http.StatusBadRequest)
		assert.Equal(t, "table_name is missing", he.Message)
	})

	t.Run("名前と定員が両方不正なら名前のエラー", func(t *testing.T) {
		h := NewTableHandler(new(MockTableService))
		c, _ := newJSONContext(e, http.MethodPost, "/tables", `{"data":{"table_name":"B","capacity":"many"}}`)

		err := h.Create(c)

		he := requireHTTPError(t, err, http.StatusBadRequest)
		assert.Equal(t, table.ErrInvalidTableName.Error(), he.Message)
	})

	t.Run("data がなければ400", func(t *testing.T) {
		h := NewTableHandler(new(MockTableService))
		c, _ := newJSONContext(e, http.MethodPost, "/tables", `{}`)

		err := h.Create(c)

		he := requireHTTPError(t, err, http.StatusBadRequest)
		assert.Equal(t, "Data is missing", he.Message)
	})
}

func TestTableHandler_Seat(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常に着席できる", func(t *testing.T) {
		resID := "res-123"
		mockService := new(MockTableService)
		mockService.On("Seat", mock.Anything, "tbl-1", "res-123").Return(sampleTable(&resID), nil)
		h := NewTableHandler(mockService)
		c, rec := newJSONContext(e, http.MethodPut, "/tables/tbl-1/seat", `{"data":{"reservation_id":"res-123"}}`)
		c.SetParamNames("table_id")
		c.SetParamValues("tbl-1")

		err := h.Seat(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		var resp tableEnvelopeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Data.Occupied)
	})

	t.Run("reservation_id がなければ400", func(t *testing.T) {
		mockService := new(MockTableService)
		h := NewTableHandler(mockService)
		c, _ := newJSONContext(e, http.MethodPut, "/tables/tbl-1/seat", `{"data":{}}`)
		c.SetParamNames("table_id")
		c.SetParamValues("tbl-1")

		err := h.Seat(c)

		he := requireHTTPError(t, err, http.StatusBadRequest)
		assert.Equal(t, "reservation_id is missing", he.Message)
		mockService.AssertNotCalled(t, "Seat", mock.Anything, mock.Anything, mock.Anything)
	})

	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{name: "テーブルが存在しない", err: table.ErrTableNotFound, wantCode: http.StatusNotFound},
		{name: "予約が存在しない", err: reservation.ErrReservationNotFound, wantCode: http.StatusNotFound},
		{name: "使用中", err: table.ErrTableOccupied, wantCode: http.StatusBadRequest},
		{name: "定員超過", err: table.ErrInsufficientCapacity, wantCode: http.StatusBadRequest},
		{name: "予約が booked でない", err: reservation.ErrReservationNotBookable, wantCode: http.StatusBadRequest},
		{name: "同じテーブルを処理中", err: table.ErrTableBusy, wantCode: http.StatusConflict},
		{name: "部分更新", err: fmt.Errorf("%w: rollback failed", application.ErrPartialUpdate), wantCode: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTableService)
			mockService.On("Seat", mock.Anything, "tbl-1", "res-123").Return(nil, tt.err)
			h := NewTableHandler(mockService)
			c, _ := newJSONContext(e, http.MethodPut, "/tables/tbl-1/seat", `{"data":{"reservation_id":"res-123"}}`)
			c.SetParamNames("table_id")
			c.SetParamValues("tbl-1")

			err := h.Seat(c)

			requireHTTPError(t, err, tt.wantCode)
		})
	}
}

func TestTableHandler_Unseat(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常にテーブルを空けられる", func(t *testing.T) {
		mockService := new(MockTableService)
		mockService.On("Unseat", mock.Anything, "tbl-1").Return(sampleTable(nil), nil)
		h := NewTableHandler(mockService)
		req := httptest.NewRequest(http.MethodDelete, "/tables/tbl-1/seat", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("table_id")
		c.SetParamValues("tbl-1")

		err := h.Unseat(c)

		require.NoError(t, err)
		var resp tableEnvelopeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Data.Occupied)
		assert.Nil(t, resp.Data.ReservationID)
	})

	t.Run("空いているテーブルは400", func(t *testing.T) {
		mockService := new(MockTableService)
		mockService.On("Unseat", mock.Anything, "tbl-1").Return(nil, table.ErrTableNotOccupied)
		h := NewTableHandler(mockService)
		c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/tables/tbl-1/seat", nil), httptest.NewRecorder())
		c.SetParamNames("table_id")
		c.SetParamValues("tbl-1")

		err := h.Unseat(c)

		he := requireHTTPError(t, err, http.StatusBadRequest)
		assert.Equal(t, "table not occupied", he.Message)
	})
}

func TestCapacityValue(t *testing.T) {
	tests := []struct {
		in     any
		want   int
		wantOK bool
	}{
		{in: float64(4), want: 4, wantOK: true},
		{in: 4, want: 4, wantOK: true},
		{in: float64(0), want: 0, wantOK: true},
		{in: 2.5, wantOK: false},
		{in: "4", wantOK: false},
		{in: nil, wantOK: false},
		{in: float64(1 << 40), wantOK: false},
	}
	for _, tt := range tests {
		got, ok := capacityValue(tt.in)
		assert.Equal(t, tt.wantOK, ok, "in=%v", tt.in)
		if tt.wantOK {
			assert.Equal(t, tt.want, got)
		}
	}
}

func TestToHTTPError(t *testing.T) {
	t.Run("未知のエラーは内部エラーを隠す", func(t *testing.T) {
		cause := errors.New("pq: connection refused")
		he := toHTTPError(cause)
		assert.Equal(t, http.StatusInternalServerError, he.Code)
		assert.Equal(t, http.StatusText(http.StatusInternalServerError), he.Message)
		assert.ErrorIs(t, he.Internal, cause)
	})

	t.Run("部分更新は固定メッセージ", func(t *testing.T) {
		he := toHTTPError(fmt.Errorf("%w: tx lost", application.ErrPartialUpdate))
		assert.Equal(t, http.StatusInternalServerError, he.Code)
		assert.Equal(t, application.ErrPartialUpdate.Error(), he.Message)
	})

	t.Run("ラップされた拒否も400", func(t *testing.T) {
		he := toHTTPError(fmt.Errorf("seat: %w", table.ErrTableOccupied))
		assert.Equal(t, http.StatusBadRequest, he.Code)
	})
}
