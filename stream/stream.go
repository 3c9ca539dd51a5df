// Package stream reads and writes the flat record streams the sampler
// consumes and produces: per-token arrays, toponym-region filters and
// toponym coordinate lexicons. Records come in a whitespace-delimited
// text form and a fixed-width big endian binary form; files with a
// .gz suffix are gzip compressed either way.
package stream

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// Format selects the wire form of a record stream
type Format int

const (
	Text Format = iota
	Binary
)

// ParseFormat maps a config string to a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "text":
		return Text, nil
	case "binary":
		return Binary, nil
	}
	return 0, fmt.Errorf("stream: unknown format %q", s)
}

// TokenArray is the decoded token stream: one entry per token,
// parallel arrays as the sampler indexes them
type TokenArray struct {
	Word     []int32
	Doc      []int32
	Toponym  []uint8
	Stopword []uint8
}

// Len returns the number of token records
func (ta *TokenArray) Len() int {
	return len(ta.Word)
}

func openWrite(fn string) (io.Writer, func() error, error) {
	f, err := os.OpenFile(fn, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err != nil {
		return nil, nil, err
	}
	if strings.HasSuffix(fn, ".gz") {
		zw := gzip.NewWriter(f)
		closer := func() error {
			if err := zw.Close(); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		}
		return zw, closer, nil
	}
	return f, f.Close, nil
}

func openRead(fn string) (io.Reader, func() error, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, nil, err
	}
	if strings.HasSuffix(fn, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		closer := func() error {
			if err := zr.Close(); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		}
		return zr, closer, nil
	}
	return f, f.Close, nil
}
