package tracking

import (
	"errors"
	"strings"
)

// Status identifies where a record sits in the tracking lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusTracked    Status = "tracked"
	StatusFailed     Status = "failed"
)

// ErrUnknownStatus reports a stored status value outside the known lifecycle.
var ErrUnknownStatus = errors.New("unknown tracking status")

var allStatuses = []Status{
	StatusPending,
	StatusInProgress,
	StatusTracked,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the lifecycle statuses in display order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus normalizes a raw string into a known status.
func ParseStatus(value string) (Status, bool) {
	candidate := Status(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := statusSet[candidate]; ok {
		return candidate, true
	}
	return "", false
}

func (s Status) String() string {
	return string(s)
}
