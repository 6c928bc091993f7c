package handler

import (
	"bytes"
	"sync"
)

const (
	// initialBufferSize fits a single recipe response
	initialBufferSize = 1024
	// maxPooledBufferSize keeps a full recipe listing from pinning memory
	maxPooledBufferSize = 64 << 10
)

var encodeBuffers = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, initialBufferSize))
	},
}

func getBuffer() *bytes.Buffer {
	return encodeBuffers.Get().(*bytes.Buffer)
}

func putBuffer(buf *bytes.Buffer) {
	if buf.Cap() > maxPooledBufferSize {
		return
	}
	buf.Reset()
	encodeBuffers.Put(buf)
}
