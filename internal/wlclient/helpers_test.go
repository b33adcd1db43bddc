package wlclient

import (
	"bytes"
	"encoding/binary"
	"io"
)

func bytesReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}

func le(values ...uint32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*4:], v)
	}
	return out
}
