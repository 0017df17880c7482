package model

// DayName is a working day key as stored in structures and grids.
type DayName string

const (
	Monday    DayName = "Mon"
	Tuesday   DayName = "Tue"
	Wednesday DayName = "Wed"
	Thursday  DayName = "Thu"
	Friday    DayName = "Fri"
	Saturday  DayName = "Sat"
	Sunday    DayName = "Sun"
)

// AllDays in calendar order, Monday first.
var AllDays = []DayName{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// IsValid reports whether d is one of the seven known day names.
func (d DayName) IsValid() bool {
	return d.Index() >= 0
}

// Index returns the position of d in AllDays or -1.
func (d DayName) Index() int {
	for i, day := range AllDays {
		if day == d {
			return i
		}
	}
	return -1
}
