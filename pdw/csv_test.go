package pdw_test

import (
	"testing"

	"github.com/jdekker/awgstream/pdw"
	"github.com/stretchr/testify/require"
)

func TestWindexCSV(t *testing.T) {
	got := pdw.WindexCSV([]string{"pulse_a.wfm", "pulse_b.wfm"})
	require.Equal(t, "Id,Filename\n0,pulse_a.wfm\n1,pulse_b.wfm\n", string(got))
}

func TestWindexCSVEmpty(t *testing.T) {
	require.Equal(t, "Id,Filename\n", string(pdw.WindexCSV(nil)))
}

func TestCSV(t *testing.T) {
	got, err := pdw.CSV(
		[]string{"Operation", "Time", "Frequency", "Pulse Width"},
		[][]string{
			{"1", "0", "1e9", "1e-6"},
			{"2", "20e-6", "1e9", "1e-6"},
		},
	)
	require.NoError(t, err)
	require.Equal(t,
		"Operation,Time,Frequency,Pulse Width\n1,0,1e9,1e-6\n2,20e-6,1e9,1e-6\n",
		string(got))
}

func TestCSVRowWidth(t *testing.T) {
	_, err := pdw.CSV([]string{"a", "b"}, [][]string{{"1"}})
	require.Error(t, err)

	_, err = pdw.CSV(nil, nil)
	require.Error(t, err)
}
