package models

import (
	"fmt"
	"time"
)

// UnknownTitle is shown when a thread title could not be fetched
const UnknownTitle = "Unknown Title"

// Thread represents a tracked forum thread
type Thread struct {
	ID    string
	Title string
	// TitleErr is set when Title is the UnknownTitle placeholder
	TitleErr error
}

// BumpStatus is the outcome kind of a single bump request
type BumpStatus int

const (
	BumpStatusBumped BumpStatus = iota
	BumpStatusRateLimited
	BumpStatusRemoteError
	BumpStatusUnparseable
	BumpStatusTimeout
)

func (s BumpStatus) String() string {
	switch s {
	case BumpStatusBumped:
		return "bumped"
	case BumpStatusRateLimited:
		return "rate_limited"
	case BumpStatusRemoteError:
		return "remote_error"
	case BumpStatusUnparseable:
		return "unparseable"
	case BumpStatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// BumpResult is the outcome of bumping one thread
type BumpResult struct {
	ThreadID string
	Status   BumpStatus

	// Remaining is the cooldown left (RateLimited)
	Remaining time.Duration
	// HTTPStatus is the forum response code (RemoteError); 0 on transport failure
	HTTPStatus int
	// Raw is the forum error text or body that could not be interpreted (Unparseable)
	Raw string
	// Err is the transport error (RemoteError with HTTPStatus 0, Timeout)
	Err error
}

// Message renders the result for the operator
func (r BumpResult) Message() string {
	switch r.Status {
	case BumpStatusBumped:
		return fmt.Sprintf("Вы подняли тему %s.", r.ThreadID)
	case BumpStatusRateLimited:
		h, m, s := splitDuration(r.Remaining)
		return fmt.Sprintf("Согласно вашим правам вы можете поднимать тему раз в 12 часов. "+
			"Вы должны подождать %d часов, %d минут, %d секунд, чтобы поднять тему %s.", h, m, s, r.ThreadID)
	case BumpStatusUnparseable:
		return fmt.Sprintf("Ошибка для темы %s: %s", r.ThreadID, r.Raw)
	case BumpStatusTimeout:
		return fmt.Sprintf("Превышено время ожидания при поднятии темы %s.", r.ThreadID)
	default:
		if r.HTTPStatus == 0 && r.Err != nil {
			return fmt.Sprintf("Ошибка при поднятии темы %s: %v", r.ThreadID, r.Err)
		}
		return fmt.Sprintf("Ошибка при поднятии темы %s: %d", r.ThreadID, r.HTTPStatus)
	}
}

func splitDuration(d time.Duration) (hours, minutes, seconds int) {
	total := int(d / time.Second)
	return total / 3600, (total % 3600) / 60, total % 60
}

// AddResult reports what happened to each token of a batch add
type AddResult struct {
	Added      []string
	Duplicates []string
	Invalid    []string
}
