package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testVariables = []string{
	"2m_temperature",
	"2m_dewpoint_temperature",
	"total_precipitation",
	"10m_u_component_of_wind",
	"10m_v_component_of_wind",
	"surface_pressure",
	"total_cloud_cover",
}

var testTimes = []string{"00:00", "06:00", "12:00", "18:00"}

func testSpec(t *testing.T) RequestSpec {
	t.Helper()
	spec, err := NewRequestSpec(RequestSpecParams{
		Dataset:     "reanalysis-era5-single-levels",
		ProductType: "reanalysis",
		Format:      "netcdf",
		Box:         AroundPoint(9.06, 7.49, 0.5),
		Variables:   testVariables,
		Months:      AllMonths(),
		Days:        AllDays(),
		Times:       testTimes,
	})
	require.NoError(t, err)
	return spec
}

func TestAroundPoint(t *testing.T) {
	box := AroundPoint(9.06, 7.49, 0.5)
	assert.InDelta(t, 9.56, box.North, 1e-9)
	assert.InDelta(t, 6.99, box.West, 1e-9)
	assert.InDelta(t, 8.56, box.South, 1e-9)
	assert.InDelta(t, 7.99, box.East, 1e-9)

	area := box.Area()
	require.Len(t, area, 4)
	assert.Equal(t, box.North, area[0])
	assert.Equal(t, box.West, area[1])
	assert.Equal(t, box.South, area[2])
	assert.Equal(t, box.East, area[3])
}

func TestBoundingBox_Validate(t *testing.T) {
	cases := []struct {
		name    string
		box     BoundingBox
		wantErr string
	}{
		{name: "valid", box: AroundPoint(9.06, 7.49, 0.5)},
		{name: "north out of range", box: BoundingBox{North: 91, West: 0, South: 0, East: 1}, wantErr: "latitude"},
		{name: "west out of range", box: BoundingBox{North: 1, West: -181, South: 0, East: 1}, wantErr: "longitude"},
		{name: "inverted", box: BoundingBox{North: 0, West: 0, South: 1, East: 1}, wantErr: "north edge"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.box.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestAllMonthsAndDays(t *testing.T) {
	months := AllMonths()
	require.Len(t, months, 12)
	assert.Equal(t, "01", months[0])
	assert.Equal(t, "12", months[11])

	days := AllDays()
	require.Len(t, days, 31)
	assert.Equal(t, "01", days[0])
	assert.Equal(t, "09", days[8])
	assert.Equal(t, "31", days[30])
}

func TestRequestSpec_ForYear(t *testing.T) {
	req := testSpec(t).ForYear(2005)

	want := Request{
		ProductType: "reanalysis",
		Variable:    testVariables,
		Year:        "2005",
		Month:       AllMonths(),
		Day:         AllDays(),
		Time:        testTimes,
		Area:        AroundPoint(9.06, 7.49, 0.5).Area(),
		Format:      "netcdf",
	}
	if diff := cmp.Diff(want, req); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestNewRequestSpec_CopiesInputs(t *testing.T) {
	vars := []string{"2m_temperature"}
	spec, err := NewRequestSpec(RequestSpecParams{
		Dataset:   "reanalysis-era5-single-levels",
		Box:       AroundPoint(0, 0, 1),
		Variables: vars,
		Months:    AllMonths(),
		Days:      AllDays(),
		Times:     testTimes,
	})
	require.NoError(t, err)

	vars[0] = "mutated"
	assert.Equal(t, []string{"2m_temperature"}, spec.Variables())

	req := spec.ForYear(2000)
	req.Variable[0] = "mutated"
	assert.Equal(t, []string{"2m_temperature"}, spec.ForYear(2001).Variable)
}

func TestNewRequestSpec_Rejects(t *testing.T) {
	base := RequestSpecParams{
		Dataset:   "reanalysis-era5-single-levels",
		Box:       AroundPoint(0, 0, 1),
		Variables: testVariables,
		Months:    AllMonths(),
		Days:      AllDays(),
		Times:     testTimes,
	}

	noDataset := base
	noDataset.Dataset = ""
	_, err := NewRequestSpec(noDataset)
	assert.ErrorContains(t, err, "dataset")

	noVars := base
	noVars.Variables = nil
	_, err = NewRequestSpec(noVars)
	assert.ErrorContains(t, err, "variable")

	noTimes := base
	noTimes.Times = nil
	_, err = NewRequestSpec(noTimes)
	assert.ErrorContains(t, err, "times")

	badBox := base
	badBox.Box = BoundingBox{North: -10, South: 10}
	_, err = NewRequestSpec(badBox)
	assert.ErrorContains(t, err, "bounding box")
}
