package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cfgPath = ""
	encodeFormat = "json"
	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestEncodeCommand(t *testing.T) {
	body := `{"brand": 9, "model": 36, "year": 2020, "kilometers": 5000, "location": -1,
		"power": 12, "owner_Second Owner": 1, "owner_Third Owner": 0,
		"owner_Fourth Owner Or More": 0, "owner_Unknown": 0}`
	out, err := execute(t, body, "encode", "-")
	require.NoError(t, err)

	var got struct {
		Vector   []float64          `json:"vector"`
		Features map[string]float64 `json:"features"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []float64{9, 36, 2020, 5000, 231, 12, 0, 1, 0, 0}, got.Vector)
	assert.Equal(t, 231.0, got.Features["location"])
}

func TestEncodeCommand_CSV(t *testing.T) {
	body := `{"brand": 1, "model": 2, "year": 2018, "kilometers": 100, "location": 55,
		"power": 20, "owner_Second Owner": 0, "owner_Third Owner": 0,
		"owner_Fourth Owner Or More": 0, "owner_Unknown": 1}`
	out, err := execute(t, body, "encode", "--format", "csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1,2,2018,100,55,20,0,0,0,1", lines[1])
}

func TestEncodeCommand_MissingField(t *testing.T) {
	_, err := execute(t, `{"brand": 9}`, "encode")
	assert.ErrorContains(t, err, `missing field "model"`)
}

func TestVocabCommand(t *testing.T) {
	out, err := execute(t, "", "vocab", "location", "bangalore")
	require.NoError(t, err)
	assert.Contains(t, out, "bangalore\t55\n")
	assert.Contains(t, out, "fallback\t231\n")

	out, err = execute(t, "", "vocab", "brands")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 23)

	_, err = execute(t, "", "vocab", "brand", "unknown-brand")
	assert.Error(t, err)

	_, err = execute(t, "", "vocab", "colour")
	assert.Error(t, err)
}
