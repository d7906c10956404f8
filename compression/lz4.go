package compression

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

func CompressLz4(src []byte, output *bytes.Buffer) error {
	zw := lz4.NewWriter(output)

	if _, writeErr := zw.Write(src); writeErr != nil {
		return writeErr
	}

	flushErr := zw.Flush()

	if flushErr != nil {
		return flushErr
	}

	return zw.Close()
}

// DecompressLz4 inflates a frame written by CompressLz4. sizeHint preallocates
// the output when the uncompressed size is known, 0 otherwise.
func DecompressLz4(src []byte, sizeHint int) ([]byte, error) {

	zr := lz4.NewReader(bytes.NewReader(src))

	output := bytes.NewBuffer(make([]byte, 0, sizeHint))

	if _, readErr := io.Copy(output, zr); readErr != nil {
		return nil, fmt.Errorf("unable to decompress lz4 frame: %s", readErr.Error())
	}

	return output.Bytes(), nil
}
