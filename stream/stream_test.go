package stream

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleTokenArray() *TokenArray {
	return &TokenArray{
		Word:     []int32{0, 1, 2, 1, 3},
		Doc:      []int32{0, 0, 1, 1, 1},
		Toponym:  []uint8{1, 0, 1, 0, 0},
		Stopword: []uint8{0, 0, 0, 1, 0},
	}
}

func TestTokenArrayTextRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "tokens.dat")

	want := sampleTokenArray()
	err := os.WriteFile(fn, []byte(
		"0\t0\t1\t0\n"+
			"1\t0\t0\t0\n"+
			"2\t1\t1\t0\n"+
			"1\t1\t0\t1\n"+
			"3\t1\t0\t0\n"), 0644)
	assert.NoError(t, err)

	got, err := ReadTokenArray(fn, Text)
	assert.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestTokenArrayWithRegionsBinaryRoundTrip(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "tokens-out.dat.gz")

	ta := sampleTokenArray()
	regions := []int32{2, 0, 1, 0, 2}

	assert.NoError(t, WriteTokenArray(fn, Binary, ta, regions))

	gotTa, gotRegions, err := ReadTokenArrayWithRegions(fn, Binary)
	assert.NoError(t, err)
	assert.Equal(t, ta, gotTa)
	assert.Equal(t, regions, gotRegions)
}

func TestTokenArrayWithRegionsTextRoundTrip(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "tokens-out.dat")

	ta := sampleTokenArray()
	regions := []int32{2, 0, 1, 0, 2}

	assert.NoError(t, WriteTokenArray(fn, Text, ta, regions))

	gotTa, gotRegions, err := ReadTokenArrayWithRegions(fn, Text)
	assert.NoError(t, err)
	assert.Equal(t, ta, gotTa)
	assert.Equal(t, regions, gotRegions)
}

func TestTokenArrayRejectsBadLine(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "tokens.dat")
	assert.NoError(t, os.WriteFile(fn, []byte("1 2 3\n"), 0644))

	_, err := ReadTokenArray(fn, Text)
	assert.Error(t, err)
}

func TestTokenArrayRejectsBadFlag(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "tokens.dat")
	assert.NoError(t, os.WriteFile(fn, []byte("1 2 7 0\n"), 0644))

	_, err := ReadTokenArray(fn, Text)
	assert.Error(t, err)
}

func TestToponymRegionFilterText(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "filter.dat")
	assert.NoError(t, os.WriteFile(fn, []byte(
		"2\t0 2\n"+
			"4\t1 2 3\n"), 0644))

	candidates, maxRegion, err := ReadToponymRegionFilter(fn, Text)
	assert.NoError(t, err)
	assert.Equal(t, int32(3), maxRegion)
	assert.Len(t, candidates, 5)
	assert.Nil(t, candidates[0])
	assert.Equal(t, []int32{0, 2}, candidates[2])
	assert.Equal(t, []int32{1, 2, 3}, candidates[4])
}

func TestToponymRegionFilterRejectsEmptyList(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "filter.dat")
	assert.NoError(t, os.WriteFile(fn, []byte("2\n"), 0644))

	_, _, err := ReadToponymRegionFilter(fn, Text)
	assert.Error(t, err)
}

func TestToponymCoordinatesText(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "coords.dat")
	assert.NoError(t, os.WriteFile(fn, []byte(
		"0\t30.25 -97.75\n"+
			"3\t48.85 2.35 41.9 12.5\n"), 0644))

	coords, err := ReadToponymCoordinates(fn, Text)
	assert.NoError(t, err)
	assert.Len(t, coords, 4)
	assert.Equal(t, []float64{30.25, -97.75}, coords[0])
	assert.Equal(t, []float64{48.85, 2.35, 41.9, 12.5}, coords[3])
}

func TestReadMissingFileFails(t *testing.T) {
	_, err := ReadTokenArray(filepath.Join(t.TempDir(), "absent.dat"), Text)
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("binary")
	assert.NoError(t, err)
	assert.Equal(t, Binary, f)

	f, err = ParseFormat("Text")
	assert.NoError(t, err)
	assert.Equal(t, Text, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}
