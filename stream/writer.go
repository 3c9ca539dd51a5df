package stream

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// WriteTokenArray persists the token stream together with the decoded
// region assignment vector: the input record plus a trailing region
// id per token.
func WriteTokenArray(fn string, format Format, ta *TokenArray, regions []int32) error {
	if len(regions) != ta.Len() {
		return fmt.Errorf("token array writer: %d tokens but %d region assignments", ta.Len(), len(regions))
	}

	w, closer, err := openWrite(fn)
	if err != nil {
		return fmt.Errorf("token array %s: %w", fn, err)
	}
	bw := bufio.NewWriter(w)

	switch format {
	case Text:
		for i := 0; i < ta.Len(); i += 1 {
			_, err = fmt.Fprintf(bw, "%d\t%d\t%d\t%d\t%d\n",
				ta.Word[i], ta.Doc[i], ta.Toponym[i], ta.Stopword[i], regions[i])
			if err != nil {
				break
			}
		}
	case Binary:
		for i := 0; i < ta.Len(); i += 1 {
			rec := struct {
				Word     int32
				Doc      int32
				Toponym  uint8
				Stopword uint8
				Region   int32
			}{ta.Word[i], ta.Doc[i], ta.Toponym[i], ta.Stopword[i], regions[i]}
			if err = binary.Write(bw, binary.BigEndian, &rec); err != nil {
				break
			}
		}
	}
	if err != nil {
		closer()
		return fmt.Errorf("token array %s: %w", fn, err)
	}
	if err := bw.Flush(); err != nil {
		closer()
		return fmt.Errorf("token array %s: %w", fn, err)
	}
	if err := closer(); err != nil {
		return fmt.Errorf("token array %s: %w", fn, err)
	}
	return nil
}

// ReadTokenArrayWithRegions reads back what WriteTokenArray produced
func ReadTokenArrayWithRegions(fn string, format Format) (*TokenArray, []int32, error) {
	r, closer, err := openRead(fn)
	if err != nil {
		return nil, nil, fmt.Errorf("token array %s: %w", fn, err)
	}
	defer closer()

	ta := &TokenArray{}
	var regions []int32
	switch format {
	case Text:
		scanner := bufio.NewScanner(r)
		lineIdx := 0
		for scanner.Scan() {
			lineIdx += 1
			var w, d, reg int32
			var top, stop uint8
			n, serr := fmt.Sscanf(scanner.Text(), "%d\t%d\t%d\t%d\t%d", &w, &d, &top, &stop, &reg)
			if serr != nil || n != 5 {
				return nil, nil, fmt.Errorf("token array %s: line %d: want 5 fields", fn, lineIdx)
			}
			ta.Word = append(ta.Word, w)
			ta.Doc = append(ta.Doc, d)
			ta.Toponym = append(ta.Toponym, top)
			ta.Stopword = append(ta.Stopword, stop)
			regions = append(regions, reg)
		}
		if err := scanner.Err(); err != nil {
			return nil, nil, fmt.Errorf("token array %s: %w", fn, err)
		}
	case Binary:
		br := bufio.NewReader(r)
		for {
			var rec struct {
				Word     int32
				Doc      int32
				Toponym  uint8
				Stopword uint8
				Region   int32
			}
			if rerr := binary.Read(br, binary.BigEndian, &rec); rerr != nil {
				if errors.Is(rerr, io.EOF) {
					break
				}
				return nil, nil, fmt.Errorf("token array %s: %w", fn, rerr)
			}
			ta.Word = append(ta.Word, rec.Word)
			ta.Doc = append(ta.Doc, rec.Doc)
			ta.Toponym = append(ta.Toponym, rec.Toponym)
			ta.Stopword = append(ta.Stopword, rec.Stopword)
			regions = append(regions, rec.Region)
		}
	}
	return ta, regions, nil
}
