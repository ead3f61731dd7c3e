package model

import (
	"fmt"
	"time"
)

// VersionLayout is fixed width so that stored versions sort lexicographically.
const VersionLayout = "2006-01-02T15:04:05.000000Z07:00"

const versionResolution = time.Microsecond

// Version is the optimistic concurrency token of a draft. It is the draft's
// last-modified time at microsecond resolution, always in UTC.
type Version struct {
	t time.Time
}

func NewVersion(t time.Time) Version {
	return Version{t: t.UTC().Truncate(versionResolution)}
}

// ParseVersion accepts any RFC 3339 timestamp.
func ParseVersion(s string) (Version, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
	}
	return NewVersion(t), nil
}

// NextVersion returns a version strictly greater than prev, using now when the
// clock is ahead of prev.
func NextVersion(prev Version, now time.Time) Version {
	next := NewVersion(now)
	if !next.After(prev) {
		next = Version{t: prev.t.Add(versionResolution)}
	}
	return next
}

func (v Version) Time() time.Time { return v.t }

func (v Version) IsZero() bool { return v.t.IsZero() }

func (v Version) After(o Version) bool { return v.t.After(o.t) }

func (v Version) Equal(o Version) bool { return v.t.Equal(o.t) }

func (v Version) String() string {
	if v.IsZero() {
		return ""
	}
	return v.t.Format(VersionLayout)
}

func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Version) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*v = Version{}
		return nil
	}
	parsed, err := ParseVersion(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
