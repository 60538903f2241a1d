package database

import (
	"fmt"
	"time"
)

// TimeLayout is the fixed-width UTC layout used to store timestamps as text.
// Fixed width keeps lexical and chronological order identical.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// StorageTime normalises t to the precision every backend can round-trip.
func StorageTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// NextWriteTime returns the storage time for a write that follows previous.
// The result is strictly after previous even when the clock stalls, repeats
// within one microsecond or steps backwards.
func NextWriteTime(previous, now time.Time) time.Time {
	next := StorageTime(now)
	if floor := StorageTime(previous); !next.After(floor) {
		return floor.Add(time.Microsecond)
	}
	return next
}

// Timestamp scans a timestamp column stored either natively or as text.
type Timestamp struct {
	Time time.Time
}

// Scan implements sql.Scanner.
func (ts *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		ts.Time = v.UTC()
		return nil
	case string:
		return ts.parse(v)
	case []byte:
		return ts.parse(string(v))
	case nil:
		ts.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Timestamp", src)
	}
}

func (ts *Timestamp) parse(s string) error {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("parse timestamp %q: %w", s, err)
		}
	}
	ts.Time = t.UTC()
	return nil
}

// NullTimestamp scans a nullable timestamp column.
type NullTimestamp struct {
	Time  time.Time
	Valid bool
}

// Scan implements sql.Scanner.
func (nt *NullTimestamp) Scan(src any) error {
	if src == nil {
		nt.Time, nt.Valid = time.Time{}, false
		return nil
	}
	var ts Timestamp
	if err := ts.Scan(src); err != nil {
		return err
	}
	nt.Time, nt.Valid = ts.Time, true
	return nil
}

// Ptr returns the scanned time or nil when the column was NULL.
func (nt NullTimestamp) Ptr() *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// TextTimeArgs rewrites time arguments into TimeLayout text for drivers
// without a native timestamp type.
func TextTimeArgs(args []any) []any {
	out := args
	copied := false
	for i, arg := range args {
		var formatted any
		switch v := arg.(type) {
		case time.Time:
			formatted = StorageTime(v).Format(TimeLayout)
		case *time.Time:
			if v == nil {
				formatted = nil
			} else {
				formatted = StorageTime(*v).Format(TimeLayout)
			}
		default:
			continue
		}
		if !copied {
			out = make([]any, len(args))
			copy(out, args)
			copied = true
		}
		out[i] = formatted
	}
	return out
}
