package record

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `mmsi,timestamp,lat,lon,speed,course,vessel_name,vessel_type,is_fishing
1,2024-01-01T00:00:00Z,10.0,20.0,5.2,90,Vessel A,trawler,1
1,2024-01-01T01:00:00Z,10.1,20.1,,,Vessel A,trawler,1
2,2024-01-01T00:30:00Z,91.0,20.0,1,0,Bad Lat,trawler,0
2,2024-01-01T00:45:00Z,9.0,20.0,1,0,Vessel B,trawler,0
`

func TestLoadReader(t *testing.T) {
	fixes, stats, err := LoadReader(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Accepted)
	assert.Equal(t, 1, stats.Dropped, "row with lat=91 is out of range and must be dropped")
	require.Len(t, fixes, 3)
}

func TestSortedStreamOrdering(t *testing.T) {
	fixes, _, err := LoadReader(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	sorted := SortedStream(fixes)
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].MMSI == sorted[i].MMSI {
			assert.True(t, !sorted[i].Timestamp.Before(sorted[i-1].Timestamp))
		} else {
			assert.True(t, sorted[i-1].MMSI < sorted[i].MMSI)
		}
	}
}

func TestPerVesselGrouping(t *testing.T) {
	fixes, _, err := LoadReader(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	byVessel := PerVessel(fixes)
	require.Len(t, byVessel[1], 2)
	require.Len(t, byVessel[2], 1)

	mmsis := SortedMMSIs(byVessel)
	assert.Equal(t, []uint32{1, 2}, mmsis)
}

func TestLoadReaderMissingColumns(t *testing.T) {
	_, _, err := LoadReader(strings.NewReader("foo,bar\n1,2\n"))
	require.Error(t, err)
}

func TestLoadReaderEmpty(t *testing.T) {
	fixes, stats, err := LoadReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, fixes)
	assert.Equal(t, Stats{}, stats)
}

func TestParseTimestampFormats(t *testing.T) {
	ts, ok := parseTimestamp("2024-01-01 00:00:00")
	require.True(t, ok)
	assert.Equal(t, 2024, ts.Year())
	assert.Equal(t, time.UTC, ts.Location())
}
