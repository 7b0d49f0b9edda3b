package wire

import (
	"bytes"
	"io"
)

// Packet is one framed message: its numeric wire id (mapped to and from a
// logical packet kind by the version cohort, see internal/versions) plus its
// raw, still-encoded body.
type Packet struct {
	ID   uint16
	Data []byte
}

// ReadPacket reads one frame from r. legacyImplicitGzip is true for cohorts
// <= 323, where the compressed-flag byte is absent from the wire and the
// payload is unconditionally gzip-compressed.
func ReadPacket(r io.Reader, legacyImplicitGzip bool) (*Packet, error) {
	id, err := ReadUint16(r)
	if err != nil {
		return nil, err
	}

	compressed := legacyImplicitGzip
	if !legacyImplicitGzip {
		flag, err := ReadUint8(r)
		if err != nil {
			return nil, err
		}
		compressed = flag != 0
	}

	length, err := ReadUint32(r)
	if err != nil {
		return nil, err
	}
	if length > 64<<20 {
		return nil, ErrNegativeLength
	}

	body := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, ErrShortRead
		}
	}

	if compressed {
		body, err = Gunzip(body)
		if err != nil {
			return nil, err
		}
	}

	return &Packet{ID: id, Data: body}, nil
}

// WritePacket frames and writes pkt to w. legacyImplicitGzip mirrors
// ReadPacket: the compressed-flag byte is omitted and the payload is always
// gzipped.
func WritePacket(w io.Writer, pkt *Packet, legacyImplicitGzip bool) error {
	payload := pkt.Data
	compressed := legacyImplicitGzip

	if legacyImplicitGzip {
		gz, err := Gzip(payload)
		if err != nil {
			return err
		}
		payload = gz
	}

	if err := WriteUint16(w, pkt.ID); err != nil {
		return err
	}
	if !legacyImplicitGzip {
		var flag uint8
		if compressed {
			flag = 1
		}
		if err := WriteUint8(w, flag); err != nil {
			return err
		}
	}
	if err := WriteUint32(w, uint32(len(payload))); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// Builder accumulates a packet body via the usual write-primitive helpers
// and produces a *Packet for a given wire id. Mirrors the closure-based
// MarshalPacket idiom: callers write a builder func instead of hand-rolling
// buffer bookkeeping at every call site.
func Builder(id uint16, build func(w *bytes.Buffer)) *Packet {
	var buf bytes.Buffer
	build(&buf)
	return &Packet{ID: id, Data: buf.Bytes()}
}
