package bestbooks

import "time"

// FirstYear is the first year the publisher ran the yearly listing.
const FirstYear = 2013

// MaxYear returns the newest year expected to be published. Listings appear
// in December, so until then the previous year is the latest one available.
func MaxYear(today time.Time) int {
	if today.Month() >= time.December {
		return today.Year()
	}
	return today.Year() - 1
}

// AvailableYears lists every year from FirstYear through MaxYear, ascending.
func AvailableYears(today time.Time) []int {
	last := MaxYear(today)
	if last < FirstYear {
		return nil
	}
	years := make([]int, 0, last-FirstYear+1)
	for year := FirstYear; year <= last; year++ {
		years = append(years, year)
	}
	return years
}

// TargetYears returns just the requested year, or every available year when
// year is zero.
func TargetYears(year int, today time.Time) []int {
	if year != 0 {
		return []int{year}
	}
	return AvailableYears(today)
}
