package pdw

import (
	"fmt"
	"strings"
)

// WindexCSV builds the waveform index CSV payload the instrument's
// memory:import:windex command converts into a binary waveform index file.
// Indexes are assigned in slice order.
func WindexCSV(wfmNames []string) []byte {
	var b strings.Builder
	b.WriteString("Id,Filename\n")
	for n, name := range wfmNames {
		fmt.Fprintf(&b, "%d,%s\n", n, name)
	}
	return []byte(b.String())
}

// CSV builds a PDW definition CSV payload for the instrument's
// memory:import:stream command. Every row must have one value per field.
func CSV(fields []string, rows [][]string) ([]byte, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields given")
	}

	var b strings.Builder
	b.WriteString(strings.Join(fields, ","))
	b.WriteByte('\n')
	for n, row := range rows {
		if len(row) != len(fields) {
			return nil, fmt.Errorf("row %d has %d values, want %d", n, len(row), len(fields))
		}
		b.WriteString(strings.Join(row, ","))
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}
