package dbformat

import (
	"bufio"
	"bytes"
	"errors"
	"io"

	"github.com/eix-go/eix/internal/tree"
	"github.com/eix-go/eix/internal/version"
)

// FetchStage is how far a PackageReader has decoded the package it is
// currently positioned on.
type FetchStage int

const (
	FetchNone FetchStage = iota
	FetchName
	FetchVersions
	FetchAll
)

// ErrNoMorePackages describes an exhausted stream. Next does not return
// it: Next reports exhaustion as (false, nil).
var ErrNoMorePackages = errors.New("dbformat: no more packages")

// PackageReader streams packages out of a binary cache file one at a time,
// fetching each one's attributes only as far as the caller asks (spec
// §4.D, §6). It owns the underlying reader and should be discarded (not
// reused) once exhausted or once it returns an error.
type PackageReader struct {
	r   *bufio.Reader
	hdr *Header

	categoriesLeft uint64
	curCategory    string
	packagesLeft   uint64

	stage FetchStage
	pkg   *tree.Package

	versionsSec []byte
	restSec     []byte
}

// NewPackageReader parses the header from r and returns a reader
// positioned at the first category.
func NewPackageReader(r io.Reader) (*PackageReader, *Header, error) {
	br := bufio.NewReader(r)
	hdr, err := readHeader(br)
	if err != nil {
		return nil, nil, err
	}
	pr := &PackageReader{r: br, hdr: hdr, categoriesLeft: hdr.CategoryCount}
	return pr, hdr, nil
}

// Next advances to the next package, reading at least its name. It
// returns false (with a nil error) once the stream is exhausted.
func (pr *PackageReader) Next() (bool, error) {
	pr.pkg = nil
	pr.versionsSec = nil
	pr.restSec = nil
	pr.stage = FetchNone

	for pr.packagesLeft == 0 {
		if pr.categoriesLeft == 0 {
			return false, nil
		}
		name, err := readString(pr.r)
		if err != nil {
			return false, err
		}
		count, err := readUvarint(pr.r)
		if err != nil {
			return false, err
		}
		pr.curCategory = name
		pr.packagesLeft = count
		pr.categoriesLeft--
	}

	blobLen, err := readUvarint(pr.r)
	if err != nil {
		return false, err
	}
	if blobLen > maxStringLen {
		return false, errors.New("dbformat: package blob length exceeds limit")
	}
	blob := make([]byte, blobLen)
	if _, err := io.ReadFull(pr.r, blob); err != nil {
		return false, io.ErrUnexpectedEOF
	}
	pr.packagesLeft--

	br := bytes.NewReader(blob)
	rr := bufio.NewReader(br)

	nameSec, err := readLenPrefixedSection(rr)
	if err != nil {
		return false, err
	}
	nameBR := bufio.NewReader(bytes.NewReader(nameSec))
	pkgName, err := readString(nameBR)
	if err != nil {
		return false, err
	}
	pr.pkg = tree.NewPackage(pr.curCategory, pkgName)
	pr.stage = FetchName

	versionsSec, err := readLenPrefixedSection(rr)
	if err != nil {
		return false, err
	}
	pr.versionsSec = versionsSec

	restSec, err := readLenPrefixedSection(rr)
	if err != nil {
		return false, err
	}
	pr.restSec = restSec

	return true, nil
}

func readLenPrefixedSection(r byteReader) ([]byte, error) {
	n, err := readUvarint(r)
	if err != nil {
		return nil, err
	}
	if n > maxStringLen {
		return nil, errBlobTooLarge
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, io.ErrUnexpectedEOF
	}
	return buf, nil
}

var errBlobTooLarge = errors.New("dbformat: section length exceeds limit")

// Read raises the current package's fetched stage to at least want,
// decoding any sections not yet parsed.
func (pr *PackageReader) Read(want FetchStage) error {
	if pr.pkg == nil {
		return errors.New("dbformat: Read called before Next")
	}
	if pr.stage >= want {
		return nil
	}
	if want >= FetchVersions && pr.stage < FetchVersions {
		if err := pr.decodeVersions(); err != nil {
			return err
		}
		pr.stage = FetchVersions
	}
	if want >= FetchAll && pr.stage < FetchAll {
		if err := pr.decodeRest(); err != nil {
			return err
		}
		pr.stage = FetchAll
	}
	return nil
}

// Skip marks the current package fully consumed without decoding any
// further sections; the next call to Next moves on.
func (pr *PackageReader) Skip() { pr.stage = FetchAll }

// Get returns the current package, populated up to whatever stage Read (or
// Next, for FetchName) has reached.
func (pr *PackageReader) Get() *tree.Package { return pr.pkg }

// Stage reports the current package's fetched stage.
func (pr *PackageReader) Stage() FetchStage { return pr.stage }

func (pr *PackageReader) decodeVersions() error {
	r := bufio.NewReader(bytes.NewReader(pr.versionsSec))
	count, err := readUvarint(r)
	if err != nil {
		return err
	}
	for i := uint64(0); i < count; i++ {
		v, err := decodeVersion(r)
		if err != nil {
			return err
		}
		pr.pkg.Versions = append(pr.pkg.Versions, v)
	}
	return nil
}

func (pr *PackageReader) decodeRest() error {
	r := bufio.NewReader(bytes.NewReader(pr.restSec))
	fields := make([]string, 4)
	for i := range fields {
		s, err := readString(r)
		if err != nil {
			return err
		}
		fields[i] = s
	}
	pr.pkg.Homepage, pr.pkg.Licenses, pr.pkg.Description, pr.pkg.Provide = fields[0], fields[1], fields[2], fields[3]

	n, err := readUvarint(r)
	if err != nil {
		return err
	}
	if pr.pkg.CollIuse == nil {
		pr.pkg.CollIuse = make(map[string]struct{}, n)
	}
	for i := uint64(0); i < n; i++ {
		flag, err := readString(r)
		if err != nil {
			return err
		}
		pr.pkg.CollIuse[flag] = struct{}{}
	}
	return nil
}

func decodeVersion(r byteReader) (*tree.ExtendedVersion, error) {
	partCount, err := readUvarint(r)
	if err != nil {
		return nil, err
	}
	parts := make([]version.Part, 0, partCount)
	for i := uint64(0); i < partCount; i++ {
		var typByte [1]byte
		if _, err := io.ReadFull(r, typByte[:]); err != nil {
			return nil, io.ErrUnexpectedEOF
		}
		pt := version.PartType(typByte[0])
		var part version.Part
		part.Type = pt
		switch pt {
		case version.PartPrimary, version.PartCharacter, version.PartGarbage:
			text, err := readString(r)
			if err != nil {
				return nil, err
			}
			part.Text = text
		default:
			n, err := readUvarint(r)
			if err != nil {
				return nil, err
			}
			part.Num = n
		}
		parts = append(parts, part)
	}

	strs := make([]string, 6)
	for i := range strs {
		s, err := readString(r)
		if err != nil {
			return nil, err
		}
		strs[i] = s
	}

	restrictFlags, err := readUvarint(r)
	if err != nil {
		return nil, err
	}
	propertiesFlags, err := readUvarint(r)
	if err != nil {
		return nil, err
	}
	overlayKey, err := readUvarint(r)
	if err != nil {
		return nil, err
	}

	ev := &tree.ExtendedVersion{
		Version:         &version.Version{Parts: parts},
		Slot:            strs[0],
		FullKeywords:    strs[1],
		IUse:            strs[2],
		Depend:          strs[3],
		RDepend:         strs[4],
		PDepend:         strs[5],
		RestrictFlags:   tree.RestrictFlags(restrictFlags),
		PropertiesFlags: tree.PropertiesFlags(propertiesFlags),
		OverlayKey:      int(overlayKey),
	}
	return ev, nil
}
