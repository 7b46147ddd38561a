package domain

import (
	"math"
	"time"
)

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DateRange is an inclusive calendar-day window.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// BBox is a geographic bounding box in decimal degrees.
type BBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

const earthRadiusKm = 6371.0

// CompactDate formats a date as YYYYMMDD, the format POWER expects.
func CompactDate(t time.Time) string {
	return t.Format("20060102")
}

// MDYDate formats a date as MM-DD-YYYY, the format AppEEARS expects.
func MDYDate(t time.Time) string {
	return t.Format("01-02-2006")
}

// ISODate formats a date as YYYY-MM-DD.
func ISODate(t time.Time) string {
	return t.Format("2006-01-02")
}

// ShiftDate returns the date daysBack calendar days earlier.
func ShiftDate(t time.Time, daysBack int) time.Time {
	return t.AddDate(0, 0, -daysBack)
}

// RadiusToBBox converts a point-and-radius query into a bounding box. The
// longitude span widens with latitude by 1/cos(lat) so the box stays roughly
// radiusKm across away from the equator.
func RadiusToBBox(lat, lon, radiusKm float64) BBox {
	latDiff := (radiusKm / earthRadiusKm) * (180 / math.Pi)
	lonDiff := latDiff / math.Cos(lat*math.Pi/180)

	return BBox{
		MinLat: lat - latDiff,
		MaxLat: lat + latDiff,
		MinLon: lon - lonDiff,
		MaxLon: lon + lonDiff,
	}
}
