package record

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/oceanwake/darkfleet/model"

	"github.com/spf13/afero"
)

// LoadFleetMembership reads one fleet-membership CSV per gear category, each
// with an `mmsi` column and optional `flag`/`length_m` columns (spec.md §6),
// and merges them into a single FishingFleetMembership table. A vessel may
// appear in more than one file.
func LoadFleetMembership(afs afero.Fs, pathsByGear map[model.GearCategory]string) (model.FishingFleetMembership, error) {
	membership := make(model.FishingFleetMembership)

	for gear, path := range pathsByGear {
		f, err := afs.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %s", ErrSourceUnreadable, path, err.Error())
		}

		mmsis, err := readMMSIColumn(f)
		f.Close()
		if err != nil {
			return nil, err
		}

		for _, mmsi := range mmsis {
			membership[mmsi] = append(membership[mmsi], gear)
		}
	}

	return membership, nil
}

func readMMSIColumn(r io.Reader) ([]uint32, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	mmsiCol := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "mmsi") {
			mmsiCol = i
			break
		}
	}
	if mmsiCol == -1 {
		return nil, errors.New("fleet membership file missing mmsi column")
	}

	var out []uint32
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}
		v, err := strconv.ParseUint(strings.TrimSpace(row[mmsiCol]), 10, 32)
		if err != nil {
			continue
		}
		out = append(out, uint32(v))
	}
	return out, nil
}

// LoadMPATable reads an MPA reference CSV with WDPAID, NAME, DESIG_ENG, and
// an optional MARINE column (filtered to {1,2} per spec.md §6).
func LoadMPATable(afs afero.Fs, path string) (model.MPATable, error) {
	f, err := afs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrSourceUnreadable, path, err.Error())
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return model.MPATable{}, nil
	}
	if err != nil {
		return nil, err
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToUpper(strings.TrimSpace(name))] = i
	}

	idIdx, hasID := col["WDPAID"]
	if !hasID {
		return nil, errors.New("mpa table missing WDPAID column")
	}
	nameIdx := col["NAME"]
	desigIdx := col["DESIG_ENG"]
	marineIdx, hasMarine := col["MARINE"]

	table := make(model.MPATable)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}

		if hasMarine {
			marine := strings.TrimSpace(row[marineIdx])
			if marine != "1" && marine != "2" {
				continue
			}
		}

		id := strings.TrimSpace(row[idIdx])
		if id == "" {
			continue
		}

		mpa := model.MPA{WDPAID: id}
		if nameIdx < len(row) {
			mpa.Name = strings.TrimSpace(row[nameIdx])
		}
		if desigIdx < len(row) {
			mpa.DesignationEnglish = strings.TrimSpace(row[desigIdx])
		}
		table[id] = mpa
	}

	return table, nil
}
