package calendar

import "time"

// fixedHolidays are Brazilian national holidays keyed by "MM-DD".
var fixedHolidays = map[string]struct{}{
	"01-01": {}, // New Year
	"04-21": {}, // Tiradentes
	"05-01": {}, // Labor Day
	"09-07": {}, // Independence Day
	"10-12": {}, // Our Lady Aparecida
	"11-02": {}, // All Souls' Day
	"11-15": {}, // Republic Proclamation
	"11-20": {}, // Black Consciousness Day
	"12-25": {}, // Christmas
}

// BrazilianHolidays accepts weekdays that are not Brazilian national
// fixed or movable (Easter based) holidays.
func BrazilianHolidays(d time.Time) bool {
	if !Weekdays(d) {
		return false
	}
	if _, ok := fixedHolidays[d.Format("01-02")]; ok {
		return false
	}

	day := truncateToDate(d)
	easter := easterSunday(d.Year(), d.Location())
	for _, offset := range []int{
		-48, // Carnival Monday
		-47, // Carnival Tuesday
		-2,  // Good Friday
		60,  // Corpus Christi
	} {
		if day.Equal(easter.AddDate(0, 0, offset)) {
			return false
		}
	}
	return true
}

// easterSunday returns the date of Easter Sunday for a given year
// (Meeus/Jones/Butcher algorithm).
func easterSunday(year int, loc *time.Location) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
}
