package config

import (
	"fmt"

	"github.com/couchcryptid/era5-fetch/internal/domain"
)

// Point returns the configured fetch point.
func (c *Config) Point() domain.Point {
	return domain.Point{Lat: c.Latitude, Lon: c.Longitude}
}

// Plan builds the immutable fetch plan around p.
func (c *Config) Plan(p domain.Point) (domain.Plan, error) {
	tmpl, err := domain.ParsePathTemplate(c.OutputTemplate)
	if err != nil {
		return domain.Plan{}, fmt.Errorf("OUTPUT_TEMPLATE: %w", err)
	}

	spec, err := domain.NewRequestSpec(domain.RequestSpecParams{
		Dataset:     c.Dataset,
		ProductType: c.ProductType,
		Format:      c.Format,
		Box:         domain.AroundPoint(p.Lat, p.Lon, c.AreaBuffer),
		Variables:   c.Variables,
		Months:      domain.AllMonths(),
		Days:        domain.AllDays(),
		Times:       c.Times,
	})
	if err != nil {
		return domain.Plan{}, fmt.Errorf("request spec: %w", err)
	}

	return domain.Plan{
		OutputDir: c.OutputDir,
		Template:  tmpl,
		Spec:      spec,
	}, nil
}
