package domain

import "fmt"

// Общие доменные ошибки
var (
	ErrNotFound             = notFoundError("not found")
	ErrBadInput             = validationError("invalid data")
	ErrConfirmationRequired = validationError("confirmation text required")
	ErrDuplicate            = conflictError("duplicate code")
	ErrStoreUnavailable     = storeError("store unavailable")
)

type notFoundError string

func (e notFoundError) Error() string { return string(e) }

type validationError string

func (e validationError) Error() string { return string(e) }

type conflictError string

func (e conflictError) Error() string { return string(e) }

type storeError string

func (e storeError) Error() string { return string(e) }

// StoreError — сбой обращения к хранилищу. errors.Is(err, ErrStoreUnavailable) == true.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStoreUnavailable }

// WrapStore оборачивает ошибку адаптера хранилища; nil остаётся nil.
func WrapStore(op, key string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Key: key, Err: err}
}
