package ase

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
)

// inflate expands a zlib stream into an owned buffer. It is a package
// variable so tests can substitute a failing implementation without
// crafting corrupt streams; production code never swaps it.
var inflate = zlibInflate

func zlibInflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// deflate compresses data as a zlib stream. Used by the encoder for
// compressed cel payloads.
func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
