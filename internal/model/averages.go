package model

import (
	"time"

	"github.com/moznion/go-optional"
)

// Windows are the trailing volume average lengths computed for every bar.
var Windows = []int{5, 10, 20, 50}

// AverageSet holds the trailing volume averages ending at Date.
// A window is None when fewer bars than its length are available.
type AverageSet struct {
	Symbol string
	Date   time.Time
	Volume float64
	Avg5   optional.Option[float64]
	Avg10  optional.Option[float64]
	Avg20  optional.Option[float64]
	Avg50  optional.Option[float64]
}

// Avg returns the average for the given window length.
func (a AverageSet) Avg(window int) optional.Option[float64] {
	switch window {
	case 5:
		return a.Avg5
	case 10:
		return a.Avg10
	case 20:
		return a.Avg20
	case 50:
		return a.Avg50
	}
	return optional.None[float64]()
}

// SetAvg stores the average for the given window length. Unknown windows are ignored.
func (a *AverageSet) SetAvg(window int, v optional.Option[float64]) {
	switch window {
	case 5:
		a.Avg5 = v
	case 10:
		a.Avg10 = v
	case 20:
		a.Avg20 = v
	case 50:
		a.Avg50 = v
	}
}

// Ptr converts an option to a nil-able pointer for JSON and templates.
func Ptr(o optional.Option[float64]) *float64 {
	if o.IsNone() {
		return nil
	}
	v := o.Unwrap()
	return &v
}
