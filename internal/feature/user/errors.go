package user

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailConflict      = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactive           = errors.New("user is deactivated")
)

// DatabaseError 包住底层存储错误，不把驱动细节漏到上层
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string { return fmt.Sprintf("user repo %s: %v", e.Op, e.Err) }
func (e *DatabaseError) Unwrap() error { return e.Err }

func dbErr(op string, err error) error { return &DatabaseError{Op: op, Err: err} }

// isDupKey 不依赖 gorm.ErrDuplicatedKey，避免驱动/版本差异导致漏判
func isDupKey(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "duplicate key")
}
