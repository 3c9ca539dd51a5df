package stream

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadTokenArray decodes a token record stream into parallel arrays.
// Text records are whitespace-delimited lines
// [wordId docId isToponym isStopword]; binary records are two int32
// fields followed by two single-byte flags.
func ReadTokenArray(fn string, format Format) (*TokenArray, error) {
	r, closer, err := openRead(fn)
	if err != nil {
		return nil, fmt.Errorf("token array %s: %w", fn, err)
	}
	defer closer()

	ta := &TokenArray{}
	switch format {
	case Text:
		err = readTokenArrayText(r, ta)
	case Binary:
		err = readTokenArrayBinary(r, ta)
	}
	if err != nil {
		return nil, fmt.Errorf("token array %s: %w", fn, err)
	}
	return ta, nil
}

func readTokenArrayText(r io.Reader, ta *TokenArray) error {
	scanner := bufio.NewScanner(r)
	lineIdx := 0
	for scanner.Scan() {
		lineIdx += 1
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 4 {
			return fmt.Errorf("line %d: want 4 fields, got %d", lineIdx, len(fields))
		}
		vals := make([]int64, 4)
		for i, f := range fields {
			v, err := strconv.ParseInt(f, 10, 32)
			if err != nil {
				return fmt.Errorf("line %d: %w", lineIdx, err)
			}
			vals[i] = v
		}
		if vals[2]&^1 != 0 || vals[3]&^1 != 0 {
			return fmt.Errorf("line %d: flags must be 0 or 1", lineIdx)
		}
		ta.Word = append(ta.Word, int32(vals[0]))
		ta.Doc = append(ta.Doc, int32(vals[1]))
		ta.Toponym = append(ta.Toponym, uint8(vals[2]))
		ta.Stopword = append(ta.Stopword, uint8(vals[3]))
	}
	return scanner.Err()
}

func readTokenArrayBinary(r io.Reader, ta *TokenArray) error {
	br := bufio.NewReader(r)
	for {
		var rec struct {
			Word     int32
			Doc      int32
			Toponym  uint8
			Stopword uint8
		}
		if err := binary.Read(br, binary.BigEndian, &rec); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		ta.Word = append(ta.Word, rec.Word)
		ta.Doc = append(ta.Doc, rec.Doc)
		ta.Toponym = append(ta.Toponym, rec.Toponym)
		ta.Stopword = append(ta.Stopword, rec.Stopword)
	}
}

// ReadToponymRegionFilter decodes the per-toponym candidate region
// lists. Text records are [wordId r1 r2 ...] lines; binary records
// are a wordId int32, a count int32 and count region int32s. The
// returned slice is indexed by word id (missing words stay nil) and
// maxRegion is the largest region id seen.
func ReadToponymRegionFilter(fn string, format Format) (candidates [][]int32, maxRegion int32, err error) {
	r, closer, err := openRead(fn)
	if err != nil {
		return nil, 0, fmt.Errorf("toponym region filter %s: %w", fn, err)
	}
	defer closer()

	maxRegion = -1
	grow := func(wordid int32) {
		for int32(len(candidates)) <= wordid {
			candidates = append(candidates, nil)
		}
	}

	switch format {
	case Text:
		scanner := bufio.NewScanner(r)
		lineIdx := 0
		for scanner.Scan() {
			lineIdx += 1
			fields := strings.Fields(scanner.Text())
			if len(fields) == 0 {
				continue
			}
			if len(fields) < 2 {
				err = fmt.Errorf("line %d: toponym %s has no regions", lineIdx, fields[0])
				break
			}
			wordid, perr := strconv.ParseInt(fields[0], 10, 32)
			if perr != nil {
				err = fmt.Errorf("line %d: %w", lineIdx, perr)
				break
			}
			grow(int32(wordid))
			regions := make([]int32, 0, len(fields)-1)
			for _, f := range fields[1:] {
				rid, perr := strconv.ParseInt(f, 10, 32)
				if perr != nil {
					err = fmt.Errorf("line %d: %w", lineIdx, perr)
					break
				}
				regions = append(regions, int32(rid))
				if int32(rid) > maxRegion {
					maxRegion = int32(rid)
				}
			}
			if err != nil {
				break
			}
			candidates[wordid] = regions
		}
		if err == nil {
			err = scanner.Err()
		}
	case Binary:
		br := bufio.NewReader(r)
		for {
			var hdr [2]int32
			if rerr := binary.Read(br, binary.BigEndian, &hdr); rerr != nil {
				if errors.Is(rerr, io.EOF) {
					break
				}
				err = rerr
				break
			}
			wordid, count := hdr[0], hdr[1]
			if count <= 0 {
				err = fmt.Errorf("toponym %d has region count %d", wordid, count)
				break
			}
			regions := make([]int32, count)
			if rerr := binary.Read(br, binary.BigEndian, regions); rerr != nil {
				err = rerr
				break
			}
			grow(wordid)
			candidates[wordid] = regions
			for _, rid := range regions {
				if rid > maxRegion {
					maxRegion = rid
				}
			}
		}
	}
	if err != nil {
		return nil, 0, fmt.Errorf("toponym region filter %s: %w", fn, err)
	}
	return candidates, maxRegion, nil
}

// ReadToponymCoordinates decodes the per-toponym coordinate lexicon
// of the spherical variant. Text records are [wordId lat lon lat lon
// ...] lines; binary records are a wordId int32, a double count int32
// and that many float64s (lat/lon interleaved). The returned slice is
// indexed by word id; each entry holds flat lat/lon pairs.
func ReadToponymCoordinates(fn string, format Format) ([][]float64, error) {
	r, closer, err := openRead(fn)
	if err != nil {
		return nil, fmt.Errorf("toponym coordinates %s: %w", fn, err)
	}
	defer closer()

	var coords [][]float64
	grow := func(wordid int32) {
		for int32(len(coords)) <= wordid {
			coords = append(coords, nil)
		}
	}

	switch format {
	case Text:
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		lineIdx := 0
		for scanner.Scan() {
			lineIdx += 1
			fields := strings.Fields(scanner.Text())
			if len(fields) == 0 {
				continue
			}
			if len(fields) < 3 || len(fields)%2 == 0 {
				return nil, fmt.Errorf("toponym coordinates %s: line %d: want wordId plus lat/lon pairs", fn, lineIdx)
			}
			wordid, perr := strconv.ParseInt(fields[0], 10, 32)
			if perr != nil {
				return nil, fmt.Errorf("toponym coordinates %s: line %d: %w", fn, lineIdx, perr)
			}
			vals := make([]float64, 0, len(fields)-1)
			for _, f := range fields[1:] {
				v, perr := strconv.ParseFloat(f, 64)
				if perr != nil {
					return nil, fmt.Errorf("toponym coordinates %s: line %d: %w", fn, lineIdx, perr)
				}
				vals = append(vals, v)
			}
			grow(int32(wordid))
			coords[wordid] = vals
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("toponym coordinates %s: %w", fn, err)
		}
	case Binary:
		br := bufio.NewReader(r)
		for {
			var hdr [2]int32
			if rerr := binary.Read(br, binary.BigEndian, &hdr); rerr != nil {
				if errors.Is(rerr, io.EOF) {
					break
				}
				return nil, fmt.Errorf("toponym coordinates %s: %w", fn, rerr)
			}
			wordid, count := hdr[0], hdr[1]
			if count <= 0 || count%2 != 0 {
				return nil, fmt.Errorf("toponym coordinates %s: toponym %d has double count %d", fn, wordid, count)
			}
			vals := make([]float64, count)
			if rerr := binary.Read(br, binary.BigEndian, vals); rerr != nil {
				return nil, fmt.Errorf("toponym coordinates %s: %w", fn, rerr)
			}
			grow(wordid)
			coords[wordid] = vals
		}
	}
	return coords, nil
}
