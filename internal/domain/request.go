package domain

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
)

// BoundingBox is a rectangular geographic region in decimal degrees.
type BoundingBox struct {
	North float64
	West  float64
	South float64
	East  float64
}

// AroundPoint builds a box centred on lat/lon, extending buffer degrees in
// every direction.
func AroundPoint(lat, lon, buffer float64) BoundingBox {
	return BoundingBox{
		North: lat + buffer,
		West:  lon - buffer,
		South: lat - buffer,
		East:  lon + buffer,
	}
}

// Area returns the box in CDS order: [North, West, South, East].
func (b BoundingBox) Area() []float64 {
	return []float64{b.North, b.West, b.South, b.East}
}

// Validate rejects coordinates outside the valid ranges and inverted boxes.
func (b BoundingBox) Validate() error {
	for _, lat := range []float64{b.North, b.South} {
		if lat < -90 || lat > 90 {
			return fmt.Errorf("latitude %.4f out of range [-90, 90]", lat)
		}
	}
	for _, lon := range []float64{b.West, b.East} {
		if lon < -180 || lon > 360 {
			return fmt.Errorf("longitude %.4f out of range [-180, 360]", lon)
		}
	}
	if b.North < b.South {
		return errors.New("north edge is below south edge")
	}
	return nil
}

// RequestSpec is the year-independent part of a retrieval request.
// Build it with NewRequestSpec; the accessors return copies so a spec
// cannot be changed after construction.
type RequestSpec struct {
	dataset     string
	productType string
	format      string
	box         BoundingBox
	variables   []string
	months      []string
	days        []string
	times       []string
}

// RequestSpecParams carries the inputs to NewRequestSpec.
type RequestSpecParams struct {
	Dataset     string
	ProductType string
	Format      string
	Box         BoundingBox
	Variables   []string
	Months      []string
	Days        []string
	Times       []string
}

// NewRequestSpec validates p and returns an immutable RequestSpec.
func NewRequestSpec(p RequestSpecParams) (RequestSpec, error) {
	if p.Dataset == "" {
		return RequestSpec{}, errors.New("dataset is required")
	}
	if len(p.Variables) == 0 {
		return RequestSpec{}, errors.New("at least one variable is required")
	}
	if len(p.Months) == 0 || len(p.Days) == 0 || len(p.Times) == 0 {
		return RequestSpec{}, errors.New("months, days and times must not be empty")
	}
	if err := p.Box.Validate(); err != nil {
		return RequestSpec{}, fmt.Errorf("bounding box: %w", err)
	}
	return RequestSpec{
		dataset:     p.Dataset,
		productType: p.ProductType,
		format:      p.Format,
		box:         p.Box,
		variables:   slices.Clone(p.Variables),
		months:      slices.Clone(p.Months),
		days:        slices.Clone(p.Days),
		times:       slices.Clone(p.Times),
	}, nil
}

func (s RequestSpec) Dataset() string     { return s.dataset }
func (s RequestSpec) Box() BoundingBox    { return s.box }
func (s RequestSpec) Variables() []string { return slices.Clone(s.variables) }
func (s RequestSpec) Times() []string     { return slices.Clone(s.times) }

// ForYear builds the request submitted to the provider for one year.
func (s RequestSpec) ForYear(year int) Request {
	return Request{
		ProductType: s.productType,
		Variable:    slices.Clone(s.variables),
		Year:        strconv.Itoa(year),
		Month:       slices.Clone(s.months),
		Day:         slices.Clone(s.days),
		Time:        slices.Clone(s.times),
		Area:        s.box.Area(),
		Format:      s.format,
	}
}

// Request is the structured body of one CDS retrieve call.
type Request struct {
	ProductType string    `json:"product_type"`
	Variable    []string  `json:"variable"`
	Year        string    `json:"year"`
	Month       []string  `json:"month"`
	Day         []string  `json:"day"`
	Time        []string  `json:"time"`
	Area        []float64 `json:"area"` // [N, W, S, E]
	Format      string    `json:"format"`
}

// AllMonths returns "01" through "12".
func AllMonths() []string { return paddedRange(1, 12) }

// AllDays returns "01" through "31".
func AllDays() []string { return paddedRange(1, 31) }

func paddedRange(from, to int) []string {
	out := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, fmt.Sprintf("%02d", i))
	}
	return out
}
