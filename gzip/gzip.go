package gzip

import (
	"bytes"
	"compress/gzip"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/valyala/bytebufferpool"
)

// Header is the optional gzip metadata
type Header struct {
	Name    string
	Comment string
	Date    time.Time
}

// Encode compresses payload, staging through a pooled buffer. The result is
// a fresh slice owned by the caller.
func Encode(payload []byte, header *Header) []byte {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	zw := gzip.NewWriter(buf)
	if header != nil {
		zw.Name = header.Name
		zw.Comment = header.Comment
		zw.ModTime = header.Date
	}
	if _, err := zw.Write(payload); err != nil {
		log.Error(err)
	}
	if err := zw.Close(); err != nil {
		log.Error(err)
	}
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result
}

// Decode decompresses data and returns the payload with any header found.
// Returns nil when data is not gzip.
func Decode(data []byte) ([]byte, *Header) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		log.Error(err)
		return nil, nil
	}
	var header *Header
	if zr.Name != "" || zr.Comment != "" || !zr.ModTime.IsZero() {
		header = &Header{
			Name:    zr.Name,
			Comment: zr.Comment,
			Date:    zr.ModTime,
		}
	}
	result, err := io.ReadAll(zr)
	if err != nil {
		log.Error(err)
	}
	if err := zr.Close(); err != nil {
		log.Error(err)
	}
	return result, header
}

// IsEncoded checks data for the gzip magic bytes
func IsEncoded(data []byte) bool {
	return len(data) > 2 && data[0] == 0x1f && data[1] == 0x8b
}
