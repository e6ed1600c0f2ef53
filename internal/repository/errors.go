package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")

	//楽観ロックの競合。読み直してリトライする
	ErrConflict = errors.New("conflict")
)
