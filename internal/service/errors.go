package service

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRegistered: the value is already on the watch list.
	ErrAlreadyRegistered = errors.New("target already registered")
	// ErrWatchedByAnother: a different user already watches the value, so
	// the request path refuses it. Direct admin registration can still add
	// a second owner.
	ErrWatchedByAnother = fmt.Errorf("%w by another user", ErrAlreadyRegistered)
	// ErrDuplicateRequest: an identical request is still pending.
	ErrDuplicateRequest = errors.New("request already pending")
	// ErrAlreadyOwned: the claim was satisfied before the approval landed.
	ErrAlreadyOwned = errors.New("target already owned, request denied")
	// ErrAlreadyResolved: the request was approved or denied by someone else.
	ErrAlreadyResolved = errors.New("request already resolved")
	// ErrRequestNotFound: no request with that ID.
	ErrRequestNotFound = errors.New("request not found")
	// ErrTargetNotFound: nothing to remove.
	ErrTargetNotFound = errors.New("target not found")
)
