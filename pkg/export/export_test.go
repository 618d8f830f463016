package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/bikeprice/core/encoder"
)

var vec = encoder.FeatureVector{9, 36, 2020, 5000, 231, 12, 0, 1, 0, 0}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, vec))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "brand,model,year,kilometers,location,power,owner_Fourth Owner Or More,owner_Second Owner,owner_Third Owner,owner_Unknown", lines[0])
	assert.Equal(t, "9,36,2020,5000,231,12,0,1,0,0", lines[1])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, vec))
	var got Vector
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, vec.Slice(), got.Vector)
	assert.Equal(t, 231.0, got.Features[encoder.FieldLocation])
	assert.Equal(t, 1.0, got.Features[encoder.FieldOwnerSecond])
}

func TestWriteJSON_OneVectorPerLine(t *testing.T) {
	var buf bytes.Buffer
	other := vec
	other[encoder.IdxLocation] = 55
	require.NoError(t, WriteJSON(&buf, vec, other))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var got Vector
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &got))
	assert.Equal(t, 55.0, got.Features[encoder.FieldLocation])
}
