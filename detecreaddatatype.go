package exprharmony

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"compress/zlib"
	"io"

	"github.com/carbocation/pfx"
	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

type DataType byte

const (
	DataTypeInvalid DataType = iota
	DataTypeNoCompression
	DataTypeGzip
	DataTypeZip
	DataTypeXZ
	DataTypeZ
	DataTypeBZip2
)

func (dt DataType) String() string {
	switch dt {
	case DataTypeNoCompression:
		return "uncompressed"
	case DataTypeGzip:
		return "gzip"
	case DataTypeZip:
		return "zip"
	case DataTypeXZ:
		return "xz"
	case DataTypeZ:
		return "zlib"
	case DataTypeBZip2:
		return "bzip2"
	}

	return "invalid"
}

var byteCodeSigs = map[DataType][]byte{
	DataTypeGzip:  {0x1f, 0x8b, 0x08},
	DataTypeZip:   {0x50, 0x4b, 0x03, 0x04},
	DataTypeXZ:    {0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00},
	DataTypeZ:     {0x1f, 0x9d},
	DataTypeBZip2: {0x42, 0x5a, 0x68},
}

// DetectDataType attempts to detect the data type of a stream by checking the
// leading bytes against a set of known signatures. Byte code signatures from
// https://stackoverflow.com/a/19127748/199475
func DetectDataType(head []byte) DataType {
	if len(head) == 0 {
		return DataTypeInvalid
	}

Outer:
	for dt, sig := range byteCodeSigs {
		if len(head) < len(sig) {
			continue
		}
		for position := range sig {
			if head[position] != sig[position] {
				continue Outer
			}
		}
		return dt
	}

	return DataTypeNoCompression
}

// MaybeDecompress wraps rc in a decompressor if its leading bytes match a known
// compression signature. The returned ReadCloser closes rc. Since only a peek
// is needed, rc does not have to be seekable, so Cloud Storage readers work.
func MaybeDecompress(rc io.ReadCloser) (io.ReadCloser, DataType, error) {
	br := bufio.NewReader(rc)

	// Peek returns fewer bytes along with io.EOF for very short inputs, which
	// is fine.
	head, err := br.Peek(6)
	if err != nil && err != io.EOF {
		return nil, DataTypeInvalid, pfx.Err(err)
	}

	dt := DetectDataType(head)

	var r io.Reader
	switch dt {
	case DataTypeGzip:
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, dt, pfx.Err(err)
		}
		r = gz
	case DataTypeZip:
		r = zipstream.NewReader(br)
	case DataTypeBZip2:
		r = bzip2.NewReader(br)
	case DataTypeXZ:
		reader, err := xz.NewReader(br, 0)
		if err != nil {
			return nil, dt, pfx.Err(err)
		}
		r = reader
	case DataTypeZ:
		zr, err := zlib.NewReader(br)
		if err != nil {
			return nil, dt, pfx.Err(err)
		}
		r = zr
	default:
		// No compression detected (or an empty stream). For now, we assume
		// this is plain text or raw bytes.
		r = br
	}

	return &readCloserFaker{Reader: r, closer: rc}, dt, nil
}

// readCloserFaker "upgrades" readers that don't need to be closed, closing
// the underlying source instead.
type readCloserFaker struct {
	io.Reader
	closer io.Closer
}

func (c *readCloserFaker) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}
