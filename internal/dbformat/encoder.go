package dbformat

import (
	"bytes"
	"hash"
	"io"

	"github.com/pjbgf/sha1cd"

	"github.com/eix-go/eix/internal/tree"
	"github.com/eix-go/eix/internal/version"
)

// Encoder writes a *tree.PackageTree to an output stream in the binary
// cache format (spec §4.D, §6): header, then one record per category (its
// length-prefixed name, its package count, then that many length-prefixed
// package blobs), then a
// trailing collision-detecting checksum, the same role idxfile's
// IdxChecksum plays for packfile indexes.
type Encoder struct {
	w    io.Writer
	hash hash.Hash
}

// NewEncoder returns an Encoder writing to w. Every byte written is also
// fed to a sha1cd digest whose sum is appended as a trailing checksum.
func NewEncoder(w io.Writer) *Encoder {
	h := sha1cd.New()
	return &Encoder{w: io.MultiWriter(w, h), hash: h}
}

// Encode writes hdr followed by every category in t, in tree order, and
// finally the trailing checksum.
func (e *Encoder) Encode(t *tree.PackageTree, hdr *Header) error {
	if err := writeHeader(e.w, hdr); err != nil {
		return err
	}

	if err := t.Each(func(c *tree.Category) error {
		return e.encodeCategory(c)
	}); err != nil {
		return err
	}

	sum := e.hash.Sum(nil)
	_, err := e.w.Write(sum)
	return err
}

func (e *Encoder) encodeCategory(c *tree.Category) error {
	if err := writeString(e.w, c.Name); err != nil {
		return err
	}
	if err := writeUvarint(e.w, uint64(c.Len())); err != nil {
		return err
	}
	return c.Each(func(p *tree.Package) error {
		blob, err := encodePackageBlob(p)
		if err != nil {
			return err
		}
		if err := writeUvarint(e.w, uint64(len(blob))); err != nil {
			return err
		}
		_, err = e.w.Write(blob)
		return err
	})
}

func encodePackageBlob(p *tree.Package) ([]byte, error) {
	var out bytes.Buffer

	var nameSec bytes.Buffer
	if err := writeString(&nameSec, p.Name); err != nil {
		return nil, err
	}
	if err := writeSection(&out, nameSec.Bytes()); err != nil {
		return nil, err
	}

	var versionsSec bytes.Buffer
	if err := writeUvarint(&versionsSec, uint64(len(p.Versions))); err != nil {
		return nil, err
	}
	for _, v := range p.Versions {
		if err := encodeVersion(&versionsSec, v); err != nil {
			return nil, err
		}
	}
	if err := writeSection(&out, versionsSec.Bytes()); err != nil {
		return nil, err
	}

	var restSec bytes.Buffer
	for _, s := range []string{p.Homepage, p.Licenses, p.Description, p.Provide} {
		if err := writeString(&restSec, s); err != nil {
			return nil, err
		}
	}
	if err := writeUvarint(&restSec, uint64(len(p.CollIuse))); err != nil {
		return nil, err
	}
	for flag := range p.CollIuse {
		if err := writeString(&restSec, flag); err != nil {
			return nil, err
		}
	}
	if err := writeSection(&out, restSec.Bytes()); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}

func writeSection(w io.Writer, section []byte) error {
	if err := writeUvarint(w, uint64(len(section))); err != nil {
		return err
	}
	_, err := w.Write(section)
	return err
}

func encodeVersion(w io.Writer, v *tree.ExtendedVersion) error {
	if err := writeUvarint(w, uint64(len(v.Parts))); err != nil {
		return err
	}
	for _, part := range v.Parts {
		if _, err := w.Write([]byte{byte(part.Type)}); err != nil {
			return err
		}
		switch part.Type {
		case version.PartPrimary, version.PartCharacter, version.PartGarbage:
			if err := writeString(w, part.Text); err != nil {
				return err
			}
		default:
			if err := writeUvarint(w, part.Num); err != nil {
				return err
			}
		}
	}

	for _, s := range []string{v.Slot, v.FullKeywords, v.IUse, v.Depend, v.RDepend, v.PDepend} {
		if err := writeString(w, s); err != nil {
			return err
		}
	}
	if err := writeUvarint(w, uint64(v.RestrictFlags)); err != nil {
		return err
	}
	if err := writeUvarint(w, uint64(v.PropertiesFlags)); err != nil {
		return err
	}
	return writeUvarint(w, uint64(v.OverlayKey))
}
