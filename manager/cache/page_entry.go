package cache

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dot5enko/simple-record-grid/compression"
	"github.com/dot5enko/simple-record-grid/schema"
)

// pageEntry holds one resolved page, either as rows or lz4 packed.
type pageEntry struct {
	index  int
	isLast bool

	rowCount int

	rows []schema.Record

	packed  []byte
	rawSize int
}

func (e *pageEntry) isPacked() bool {
	return e.rows == nil && e.packed != nil
}

func (e *pageEntry) pack() error {

	if e.isPacked() || e.rowCount == 0 {
		return nil
	}

	raw, marshalErr := json.Marshal(e.rows)
	if marshalErr != nil {
		return fmt.Errorf("unable to encode page %d: %s", e.index, marshalErr.Error())
	}

	var output bytes.Buffer

	if compressErr := compression.CompressLz4(raw, &output); compressErr != nil {
		return fmt.Errorf("unable to compress page %d: %s", e.index, compressErr.Error())
	}

	e.packed = output.Bytes()
	e.rawSize = len(raw)
	e.rows = nil

	return nil
}

// unpacked returns the rows without changing the entry.
func (e *pageEntry) unpacked() ([]schema.Record, error) {

	if !e.isPacked() {
		return e.rows, nil
	}

	raw, decompressErr := compression.DecompressLz4(e.packed, e.rawSize)
	if decompressErr != nil {
		return nil, fmt.Errorf("unable to decompress page %d: %s", e.index, decompressErr.Error())
	}

	var rows []schema.Record
	if unmarshalErr := json.Unmarshal(raw, &rows); unmarshalErr != nil {
		return nil, fmt.Errorf("unable to decode page %d: %s", e.index, unmarshalErr.Error())
	}

	if len(rows) != e.rowCount {
		return nil, fmt.Errorf("page %d unpacked into %d rows, expected %d", e.index, len(rows), e.rowCount)
	}

	return rows, nil
}

func (e *pageEntry) unpack() error {

	rows, err := e.unpacked()
	if err != nil {
		return err
	}

	e.rows = rows
	e.packed = nil
	e.rawSize = 0

	return nil
}
