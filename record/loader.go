// Package record implements C1: normalizing heterogeneous AIS fix rows into
// the typed model.Fix schema, and producing the two iteration orders later
// stages need — a full stream sorted by (mmsi, timestamp) and per-vessel
// sorted subsequences — per spec.md §4.1.
package record

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/oceanwake/darkfleet/logger"
	"github.com/oceanwake/darkfleet/model"

	"github.com/spf13/afero"
)

// ErrSourceUnreadable is the fatal I/O error kind named in spec.md §7: the
// input stream itself could not be read.
var ErrSourceUnreadable = errors.New("fix record source is unreadable")

// Stats reports how many rows were accepted versus dropped during a load,
// per spec.md §4.1's "count and drop" failure mode for malformed rows.
type Stats struct {
	Accepted int
	Dropped  int
}

// columnIndex maps the recognized header names to their position in a row.
// Required columns: mmsi, timestamp, lat, lon. Optional: speed, course,
// vessel_name, vessel_type, distance_from_shore, is_fishing.
type columnIndex struct {
	mmsi, timestamp, lat, lon                                   int
	speed, course, vesselName, vesselType, distFromShore, isFishing int
}

const missingColumn = -1

// Load reads a CSV fix source from afs at path, type-normalizing every row
// into a model.Fix. Malformed rows (NaN coordinates, out-of-range lat/lon,
// unparsable timestamps) are dropped and counted rather than failing the
// load, per spec.md §4.1 and §7. An unreadable source is a fatal error.
func Load(afs afero.Fs, path string) ([]model.Fix, Stats, error) {
	f, err := afs.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("%w: %s: %s", ErrSourceUnreadable, path, err.Error())
	}
	defer f.Close()

	return LoadReader(f)
}

// LoadReader reads and normalizes fix rows from an arbitrary CSV reader.
func LoadReader(r io.Reader) ([]model.Fix, Stats, error) {
	zlog := logger.GetLogger()

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, Stats{}, nil
		}
		return nil, Stats{}, fmt.Errorf("%w: %s", ErrSourceUnreadable, err.Error())
	}

	idx := indexColumns(header)
	if idx.mmsi == missingColumn || idx.timestamp == missingColumn || idx.lat == missingColumn || idx.lon == missingColumn {
		return nil, Stats{}, fmt.Errorf("%w: missing required column (mmsi, timestamp, lat, lon)", ErrSourceUnreadable)
	}

	var fixes []model.Fix
	var stats Stats

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			stats.Dropped++
			continue
		}

		fix, ok := parseRow(row, idx)
		if !ok {
			stats.Dropped++
			continue
		}
		fixes = append(fixes, fix)
		stats.Accepted++
	}

	if stats.Dropped > 0 {
		zlog.Warn().Int("dropped", stats.Dropped).Int("accepted", stats.Accepted).Msg("dropped malformed fix rows")
	}

	return fixes, stats, nil
}

func indexColumns(header []string) columnIndex {
	idx := columnIndex{
		mmsi: missingColumn, timestamp: missingColumn, lat: missingColumn, lon: missingColumn,
		speed: missingColumn, course: missingColumn, vesselName: missingColumn,
		vesselType: missingColumn, distFromShore: missingColumn, isFishing: missingColumn,
	}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "mmsi":
			idx.mmsi = i
		case "timestamp", "basedatetime":
			idx.timestamp = i
		case "lat", "latitude":
			idx.lat = i
		case "lon", "lng", "longitude":
			idx.lon = i
		case "speed", "sog":
			idx.speed = i
		case "course", "cog":
			idx.course = i
		case "vessel_name", "vesselname":
			idx.vesselName = i
		case "vessel_type", "vesseltype":
			idx.vesselType = i
		case "distance_from_shore":
			idx.distFromShore = i
		case "is_fishing":
			idx.isFishing = i
		}
	}
	return idx
}

func parseRow(row []string, idx columnIndex) (model.Fix, bool) {
	mmsi, err := strconv.ParseUint(strings.TrimSpace(row[idx.mmsi]), 10, 32)
	if err != nil {
		return model.Fix{}, false
	}

	ts, ok := parseTimestamp(row[idx.timestamp])
	if !ok {
		return model.Fix{}, false
	}

	lat, ok := parseFloat(row[idx.lat])
	if !ok || math.IsNaN(lat) || lat < -90 || lat > 90 {
		return model.Fix{}, false
	}

	lon, ok := parseFloat(row[idx.lon])
	if !ok || math.IsNaN(lon) || lon < -180 || lon > 180 {
		return model.Fix{}, false
	}

	fix := model.Fix{
		MMSI:      uint32(mmsi),
		Timestamp: ts,
		Lat:       float32(lat),
		Lon:       float32(lon),
	}

	if idx.speed != missingColumn {
		if v, ok := parseFloat(row[idx.speed]); ok && v >= 0 {
			f32 := float32(v)
			fix.Speed = &f32
		}
	}
	if idx.course != missingColumn {
		if v, ok := parseFloat(row[idx.course]); ok && v >= 0 && v <= 360 {
			f32 := float32(v)
			fix.Course = &f32
		}
	}
	if idx.vesselName != missingColumn {
		fix.VesselName = strings.TrimSpace(row[idx.vesselName])
	}
	if idx.vesselType != missingColumn {
		fix.VesselType = strings.TrimSpace(row[idx.vesselType])
	}
	if idx.distFromShore != missingColumn {
		if v, ok := parseFloat(row[idx.distFromShore]); ok {
			fix.DistanceFromShoreMeters = &v
		}
	}
	fix.IsFishing = model.FishingUnknown
	if idx.isFishing != missingColumn {
		switch strings.ToLower(strings.TrimSpace(row[idx.isFishing])) {
		case "1", "true", "yes":
			fix.IsFishing = model.FishingTrue
		case "0", "false", "no":
			fix.IsFishing = model.FishingFalse
		}
	}

	return fix, true
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	formats := []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02 15:04:05.000"}
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// SortedStream returns the full fix stream, stably sorted by
// (mmsi, timestamp), the ordering guarantee spec.md §4.1 requires.
func SortedStream(fixes []model.Fix) []model.Fix {
	out := make([]model.Fix, len(fixes))
	copy(out, fixes)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MMSI != out[j].MMSI {
			return out[i].MMSI < out[j].MMSI
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// PerVessel groups fixes by MMSI, each subsequence sorted by timestamp, used
// by the gap detector (C2) and the comprehensive risk evaluator (C7).
func PerVessel(fixes []model.Fix) map[uint32][]model.Fix {
	sorted := SortedStream(fixes)
	out := make(map[uint32][]model.Fix)
	for _, f := range sorted {
		out[f.MMSI] = append(out[f.MMSI], f)
	}
	return out
}

// SortedMMSIs returns the distinct MMSIs present in a PerVessel grouping, in
// ascending order — used so parallel per-vessel workers submit work in a
// deterministic order.
func SortedMMSIs(byVessel map[uint32][]model.Fix) []uint32 {
	out := make([]uint32, 0, len(byVessel))
	for mmsi := range byVessel {
		out = append(out, mmsi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
