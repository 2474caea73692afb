// file: internals/helpers/dbtime/tod.go
package dbtime

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Tod = time-of-day (HH:mm:ss), tanpa tanggal & zona.
type Tod struct{ time.Time }

// From: ambil HH:mm:ss dari t (di zona t sendiri)
func From(t time.Time) Tod {
	return Tod{Time: time.Date(0, 1, 1, t.Hour(), t.Minute(), t.Second(), 0, time.UTC)}
}

// Parse: "HH:mm" atau "HH:mm:ss"
func Parse(s string) (Tod, error) {
	var t Tod
	return t, t.parse(s)
}

// MustParse dipakai untuk default konstanta.
func MustParse(s string) Tod {
	t, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("tod: %v", err))
	}
	return t
}

func (t *Tod) parse(s string) error {
	s = strings.TrimSpace(s)
	if len(s) == 5 { // "HH:MM"
		s += ":00"
	}
	tt, err := time.Parse("15:04:05", s)
	if err != nil {
		return fmt.Errorf("tod: invalid time of day %q", s)
	}
	t.Time = tt
	return nil
}

// Seconds sejak tengah malam.
func (t Tod) Seconds() int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}

func (t Tod) String() string { return t.Format("15:04:05") }

func (t Tod) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Tod) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return t.parse(s)
}
