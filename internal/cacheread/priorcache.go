package cacheread

import (
	"errors"
	"fmt"

	"github.com/go-git/go-billy/v5"

	"github.com/eix-go/eix/internal/dbformat"
	"github.com/eix-go/eix/internal/tree"
)

// CacheError reports a fatal failure of one ingest pass: an open failure or
// a format-version mismatch. The caller decides whether to try another
// ingestor (spec §7).
type CacheError struct {
	Path string
	Err  error
}

func (e *CacheError) Error() string { return fmt.Sprintf("cacheread: %s: %v", e.Path, e.Err) }
func (e *CacheError) Unwrap() error { return e.Err }

// PriorCache ingests a previously-produced binary cache file (this
// package's own format, spec §4.D/§6), typically one built against a
// different overlay set than the current run.
//
// Grounded on original_source/src/cache/eixcache/eixcache.cc: a version
// surviving the overlay filter is re-keyed to the *destination*'s overlay
// index (TargetOverlayKey), not whatever key the source cache happened to
// use for it.
type PriorCache struct {
	FS   billy.Filesystem
	Path string

	// TargetOverlayKey is the overlay index merged versions are assigned
	// in the destination tree.
	TargetOverlayKey int

	// RestrictToSourceOverlay, if non-empty, limits ingestion to versions
	// whose OverlayKey in the *source* cache resolves (by path/label, with
	// Fallback) to this overlay. Empty means take every version
	// regardless of its source overlay.
	RestrictToSourceOverlay string
	Fallback                dbformat.OverlayFallback
}

func (p *PriorCache) ReadCategories(t *tree.PackageTree, filter Filter) error {
	f, err := p.FS.Open(p.Path)
	if err != nil {
		return &CacheError{Path: p.Path, Err: err}
	}
	defer f.Close()

	pr, hdr, err := dbformat.NewPackageReader(f)
	if err != nil {
		return &CacheError{Path: p.Path, Err: err}
	}

	wantIdx := -1
	if p.RestrictToSourceOverlay != "" {
		wantIdx = dbformat.ResolveOverlay(hdr.Overlays, p.RestrictToSourceOverlay, p.Fallback)
		if wantIdx < 0 {
			return &CacheError{Path: p.Path, Err: errors.New("requested overlay not present in cache file")}
		}
	}

	for {
		ok, err := pr.Next()
		if err != nil {
			return &CacheError{Path: p.Path, Err: err}
		}
		if !ok {
			return nil
		}

		srcPkg := pr.Get()
		if !filter.Allows(srcPkg.Category) {
			pr.Skip()
			continue
		}

		if err := pr.Read(dbformat.FetchAll); err != nil {
			return &CacheError{Path: p.Path, Err: err}
		}
		srcPkg = pr.Get()

		destCat := t.Category(srcPkg.Category)
		if destCat == nil { // filtered out by fast-access restriction
			continue
		}
		destPkg := destCat.Package(srcPkg.Name)

		oneTime := tree.OneTimeFields{
			Homepage:    srcPkg.Homepage,
			Licenses:    srcPkg.Licenses,
			Description: srcPkg.Description,
			Provide:     srcPkg.Provide,
		}

		survived := 0
		for _, v := range srcPkg.Versions {
			if wantIdx >= 0 && v.OverlayKey != wantIdx {
				continue
			}
			merged := *v
			merged.OverlayKey = p.TargetOverlayKey
			destPkg.AddVersion(&merged, oneTime)
			survived++
		}

		if survived == 0 && wantIdx >= 0 {
			destCat.Delete(srcPkg.Name)
		}
	}
}
