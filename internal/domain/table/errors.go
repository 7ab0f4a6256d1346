package table

import "errors"

// Table ドメインのエラー定義
var (
	ErrTableNotFound        = errors.New("table does not exist")
	ErrTableOccupied        = errors.New("table occupied")
	ErrTableNotOccupied     = errors.New("table not occupied")
	ErrInsufficientCapacity = errors.New("insufficient capacity at this table")
	ErrInvalidTableName     = errors.New("table_name must be at least 2 characters long")
	ErrInvalidCapacity      = errors.New("capacity must be a positive integer")
	ErrTableBusy            = errors.New("table is being updated by another request")
)
