// file: internals/helpers/dbtime/time_helper.go
package dbtime

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Nama locals mengikuti yg di-set di middleware BranchScope
const (
	LocBranchTimezone = "branch_timezone" // string, misal "Asia/Dhaka"
	LocBranchLoc      = "branch_loc"      // *time.Location
)

const DayLayout = "2006-01-02"

// DefaultTimezone bisa dioverride dari config (APP_TIMEZONE).
var DefaultTimezone = "Asia/Dhaka"

// LoadLocation: tz kosong/invalid → DefaultTimezone → UTC.
func LoadLocation(tz string) *time.Location {
	if s := strings.TrimSpace(tz); s != "" {
		if loc, err := time.LoadLocation(s); err == nil {
			return loc
		}
	}
	if loc, err := time.LoadLocation(DefaultTimezone); err == nil {
		return loc
	}
	return time.UTC
}

// BranchLocation:
// 1) c.Locals("branch_loc") yang diisi middleware
// 2) "branch_timezone" (string) → LoadLocation, di-cache ke locals
// 3) DefaultTimezone / UTC
func BranchLocation(c *fiber.Ctx) *time.Location {
	if c == nil {
		return LoadLocation("")
	}
	if loc, ok := c.Locals(LocBranchLoc).(*time.Location); ok && loc != nil {
		return loc
	}
	tz, _ := c.Locals(LocBranchTimezone).(string)
	loc := LoadLocation(tz)
	c.Locals(LocBranchLoc, loc)
	return loc
}

// DayOf: tanggal lokal (di loc) dari t, disimpan sebagai tengah malam UTC
// supaya kolom DATE tidak bergeser karena timezone session DB.
func DayOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay: "YYYY-MM-DD" → tengah malam UTC.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DayLayout, strings.TrimSpace(s))
}

// DaysInRange menghitung jumlah hari inklusif [from, to]; 0 kalau to < from.
func DaysInRange(from, to time.Time) int {
	from = DayOf(from, time.UTC)
	to = DayOf(to, time.UTC)
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours()/24) + 1
}

// OnDay menggabungkan tanggal (DayOf) dengan jam lokal dari t di loc.
func OnDay(day time.Time, t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(day.Year(), day.Month(), day.Day(), lt.Hour(), lt.Minute(), lt.Second(), lt.Nanosecond(), loc)
}
