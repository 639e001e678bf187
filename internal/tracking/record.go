package tracking

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// TimeLayout is the second-precision layout used for every persisted
// timestamp. Timestamps are naive UTC, matching what the state file has
// always carried.
const TimeLayout = "2006-01-02T15:04:05"

// Now returns the wall clock truncated to the precision the store persists.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// Key builds the canonical datastore key for a book.
func Key(year, localID int) string {
	return strconv.Itoa(year) + ":" + strconv.Itoa(localID)
}

// FormatTime renders a timestamp the way the store persists them.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// FormatTimePtr renders an optional timestamp, mapping absent to nil.
func FormatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := FormatTime(*t)
	return &formatted
}

// Identifiers carries the lookup identifiers harvested for a book. The
// yearly listings publish the ISBN-10 as the cover asset name; the other two
// are only present when a listing supplies them.
type Identifiers struct {
	ISBN10      string
	ISBN13      string
	GoodreadsID string
}

// Remote captures what the lookup service reported once a book is tracked.
type Remote struct {
	Tracked    bool
	EntityType string
	APIID      string
	Extra      map[string]any
}

// Record is one book's tracking state.
type Record struct {
	Key           string
	SourceYear    int
	LocalID       int
	Title         string
	Author        string
	Identifiers   Identifiers
	Status        Status
	Attempts      int
	LastAttemptAt *time.Time
	NextRetryAt   *time.Time
	LastError     string
	Remote        Remote
}

// MarkInProgress claims the record for an attempt without recording an
// outcome yet.
func (r *Record) MarkInProgress(now time.Time) {
	r.Status = StatusInProgress
	r.LastAttemptAt = timePtr(now)
}

// MarkTracked records a successful match from the lookup service. Attempt
// counts are left intact so the history of retries survives.
func (r *Record) MarkTracked(entityType, apiID string, extra map[string]any, now time.Time) {
	r.Status = StatusTracked
	r.Remote.Tracked = true
	r.Remote.EntityType = entityType
	r.Remote.APIID = apiID
	if extra == nil {
		extra = map[string]any{}
	}
	r.Remote.Extra = extra
	r.NextRetryAt = nil
	r.LastAttemptAt = timePtr(now)
	r.LastError = ""
}

// MarkFailed counts a failed attempt and schedules the next retry. Once the
// attempt count reaches maxAttempts the record stays failed with no retry
// scheduled; a maxAttempts of zero never exhausts.
func (r *Record) MarkFailed(message string, maxAttempts int, now time.Time) {
	r.Attempts++
	r.LastError = message
	r.LastAttemptAt = timePtr(now)
	r.Status = StatusFailed

	if maxAttempts > 0 && r.Attempts >= maxAttempts {
		r.NextRetryAt = nil
		return
	}
	next := now.Add(backoffForAttempt(r.Attempts))
	r.NextRetryAt = &next
}

// Reset returns the record to pending so it will be attempted again. Remote
// details from a previously tracked state are left in place.
func (r *Record) Reset() {
	r.Status = StatusPending
	r.Attempts = 0
	r.LastAttemptAt = nil
	r.NextRetryAt = nil
	r.LastError = ""
}

// RetryDue reports whether a failed record's backoff window has elapsed. It
// is always true for records in any other status.
func (r *Record) RetryDue(now time.Time) bool {
	if r.Status != StatusFailed || r.NextRetryAt == nil {
		return true
	}
	return !r.NextRetryAt.After(now)
}

// Stepped backoff: 15m, 1h, 6h, then 24h for every later attempt.
func backoffForAttempt(attempts int) time.Duration {
	switch {
	case attempts <= 1:
		return 15 * time.Minute
	case attempts == 2:
		return time.Hour
	case attempts == 3:
		return 6 * time.Hour
	default:
		return 24 * time.Hour
	}
}

type identifiersState struct {
	ISBN10      *string `json:"isbn10"`
	ISBN13      *string `json:"isbn13"`
	GoodreadsID *string `json:"goodreads_id"`
}

type remoteState struct {
	Tracked    bool           `json:"tracked"`
	EntityType *string        `json:"entity_type"`
	APIID      *string        `json:"api_id"`
	Extra      map[string]any `json:"extra"`
}

type recordState struct {
	SourceYear    int              `json:"source_year"`
	LocalID       int              `json:"local_id"`
	Title         string           `json:"title"`
	Author        string           `json:"author"`
	Identifiers   identifiersState `json:"identifiers"`
	Status        string           `json:"status"`
	Attempts      int              `json:"attempts"`
	LastAttemptAt *string          `json:"last_attempt_at"`
	NextRetryAt   *string          `json:"next_retry_at"`
	LastError     *string          `json:"last_error"`
	Remote        remoteState      `json:"remote"`
}

// MarshalJSON writes the record in the persisted state layout. Optional
// fields serialize as null rather than being omitted.
func (r Record) MarshalJSON() ([]byte, error) {
	extra := r.Remote.Extra
	if extra == nil {
		extra = map[string]any{}
	}
	return json.Marshal(recordState{
		SourceYear: r.SourceYear,
		LocalID:    r.LocalID,
		Title:      r.Title,
		Author:     r.Author,
		Identifiers: identifiersState{
			ISBN10:      stringPtr(r.Identifiers.ISBN10),
			ISBN13:      stringPtr(r.Identifiers.ISBN13),
			GoodreadsID: stringPtr(r.Identifiers.GoodreadsID),
		},
		Status:        string(r.Status),
		Attempts:      r.Attempts,
		LastAttemptAt: FormatTimePtr(r.LastAttemptAt),
		NextRetryAt:   FormatTimePtr(r.NextRetryAt),
		LastError:     stringPtr(r.LastError),
		Remote: remoteState{
			Tracked:    r.Remote.Tracked,
			EntityType: stringPtr(r.Remote.EntityType),
			APIID:      stringPtr(r.Remote.APIID),
			Extra:      extra,
		},
	})
}

// UnmarshalJSON reads a persisted record. Missing fields fall back to zero
// values and malformed timestamps are dropped, but a status outside the
// known lifecycle is rejected with ErrUnknownStatus.
func (r *Record) UnmarshalJSON(data []byte) error {
	var state recordState
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}

	status := StatusPending
	if state.Status != "" {
		parsed, ok := ParseStatus(state.Status)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownStatus, state.Status)
		}
		status = parsed
	}

	extra := state.Remote.Extra
	if extra == nil {
		extra = map[string]any{}
	}

	*r = Record{
		Key:        r.Key,
		SourceYear: state.SourceYear,
		LocalID:    state.LocalID,
		Title:      state.Title,
		Author:     state.Author,
		Identifiers: Identifiers{
			ISBN10:      stringValue(state.Identifiers.ISBN10),
			ISBN13:      stringValue(state.Identifiers.ISBN13),
			GoodreadsID: stringValue(state.Identifiers.GoodreadsID),
		},
		Status:        status,
		Attempts:      state.Attempts,
		LastAttemptAt: parseTimePtr(state.LastAttemptAt),
		NextRetryAt:   parseTimePtr(state.NextRetryAt),
		LastError:     stringValue(state.LastError),
		Remote: Remote{
			Tracked:    state.Remote.Tracked,
			EntityType: stringValue(state.Remote.EntityType),
			APIID:      stringValue(state.Remote.APIID),
			Extra:      extra,
		},
	}
	return nil
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func stringPtr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func parseTimePtr(value *string) *time.Time {
	if value == nil || *value == "" {
		return nil
	}
	if parsed, err := time.Parse(TimeLayout, *value); err == nil {
		return &parsed
	}
	if parsed, err := time.Parse(time.RFC3339, *value); err == nil {
		return &parsed
	}
	return nil
}
