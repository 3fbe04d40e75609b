// Package domain models ERA5 reanalysis retrieval requests and the yearly
// download plan built from them.
//
// # Data Source
//
// ERA5 is the ECMWF fifth-generation global reanalysis, distributed through the
// Copernicus Climate Data Store (CDS). The single-levels dataset
// ("reanalysis-era5-single-levels") holds hourly surface fields on a 0.25°
// grid from 1940 onward. One retrieval request covers one year here, which
// keeps each job well under the CDS per-request field limit.
//
// # CDS Request Conventions
//
// Area:
//
//	[North, West, South, East] in decimal degrees.
//	A point of interest is widened into a box with a symmetric buffer:
//	lat 9.06, lon 7.49, buffer 0.5  →  [9.56, 6.99, 8.56, 7.99].
//
// Calendar fields are zero-padded strings:
//
//	month: "01" … "12"
//	day:   "01" … "31" (CDS ignores days that do not exist in a month)
//	time:  "HH:MM" in UTC, e.g. "00:00", "06:00", "12:00", "18:00"
//	year:  the decimal year as a string, e.g. "2005"
//
// Variables use CDS short names:
//
//	2m_temperature, 2m_dewpoint_temperature (relative humidity is derived from
//	both), total_precipitation, 10m_u_component_of_wind and
//	10m_v_component_of_wind (wind speed is sqrt(u²+v²)), surface_pressure,
//	total_cloud_cover.
//
// # Idempotence
//
// Every year maps to exactly one output path through a [PathTemplate] that
// must contain the "{year}" placeholder. The existence of that path is the
// only signal that a year is done; content is never inspected during a fetch.
package domain
