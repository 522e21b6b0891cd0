package dbformat

import (
	"encoding/binary"
	"fmt"
	"io"
)

// This file plays the role utils/binary.Write*/Read* plays in the teacher:
// small, named wrappers around the stdlib codec. It uses varints instead of
// the teacher's fixed-width BigEndian fields because spec §4.D requires
// varint integers for the body of the format (the header's single
// format-version field stays fixed-width BigEndian per spec §6, see
// header.go).

// maxStringLen bounds a single length-prefixed string/blob so a corrupt or
// truncated file can't make the decoder attempt a multi-gigabyte
// allocation.
const maxStringLen = 64 << 20

func writeUvarint(w io.Writer, v uint64) error {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	_, err := w.Write(buf[:n])
	return err
}

func readUvarint(r io.ByteReader) (uint64, error) {
	v, err := binary.ReadUvarint(r)
	if err != nil {
		if err == io.EOF {
			return 0, io.ErrUnexpectedEOF
		}
		return 0, err
	}
	return v, nil
}

func writeString(w io.Writer, s string) error {
	if err := writeUvarint(w, uint64(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r byteReader) (string, error) {
	n, err := readUvarint(r)
	if err != nil {
		return "", err
	}
	if n > maxStringLen {
		return "", fmt.Errorf("dbformat: string length %d exceeds limit", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", io.ErrUnexpectedEOF
	}
	return string(buf), nil
}

// byteReader is what readUvarint/readString need: io.Reader plus ReadByte.
// Callers wrap a plain io.Reader with bufio.Reader to get this.
type byteReader interface {
	io.Reader
	io.ByteReader
}
