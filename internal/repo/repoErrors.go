package repo

import "errors"

var (
	ErrBillNotFound = errors.New("bill not found")
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
	ErrUserInUse    = errors.New("user has authored bills or cast votes")
	ErrVoteNotFound = errors.New("vote not found")
	ErrVoteExists   = errors.New("vote already exists")
)
