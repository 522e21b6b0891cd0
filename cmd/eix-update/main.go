// Command eix-update builds the binary package cache from the configured
// portage tree, its overlays, and the active cascading profile (spec §6,
// §4.C-§4.F).
package main

import (
	"fmt"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/eix-go/eix/internal/cacheread"
	"github.com/eix-go/eix/internal/dbformat"
	"github.com/eix-go/eix/internal/iocopy"
	"github.com/eix-go/eix/internal/portagesettings"
	"github.com/eix-go/eix/internal/profile"
	"github.com/eix-go/eix/internal/tree"
)

const (
	fatalExitCode = 128

	defaultMakeGlobals = "/usr/share/portage/config/make.globals"
	defaultMakeConf    = "/etc/portage/make.conf"
	defaultProfileLink = "/etc/portage/make.profile"
	defaultCacheFile   = "/var/cache/eix/portage.eix"
	defaultCacheSpec   = "metadata"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "eix-update: ERR:", err)
		os.Exit(fatalExitCode)
	}
}

func run() error {
	fs := osfs.New("/")

	settings := portagesettings.New()
	if err := portagesettings.LoadFile(fs, defaultMakeGlobals, settings); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading make.globals: %w", err)
	}
	if err := portagesettings.LoadFile(fs, defaultMakeConf, settings); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading make.conf: %w", err)
	}
	settings.ApplyEnvironment("early", os.LookupEnv)
	settings.ApplyEnvironment("late", os.LookupEnv)
	if err := settings.Finalize(); err != nil {
		return fmt.Errorf("finalizing settings: %w", err)
	}

	prof := profile.New(fs)
	prof.Settings = settings
	if err := prof.ListAddProfile(defaultProfileLink, "profile"); err != nil {
		return fmt.Errorf("walking cascading profile: %w", err)
	}
	if err := prof.ReadMakeDefaults(); err != nil {
		return fmt.Errorf("reading make.defaults: %w", err)
	}
	if _, err := prof.ReadRemoveFiles(); err != nil {
		return fmt.Errorf("reading profile mask/keyword files: %w", err)
	}
	if err := prof.Finalize(); err != nil {
		return fmt.Errorf("finalizing profile: %w", err)
	}

	t := tree.New()

	overlays := append([]string{settings.PortDir}, settings.PortDirOverlay...)
	dbOverlays := make([]dbformat.Overlay, 0, len(overlays))
	for key, dir := range overlays {
		label := path.Base(path.Clean(dir))
		dbOverlays = append(dbOverlays, dbformat.Overlay{Path: dir, Label: label, Priority: int32(key)})

		m, ok := cacheread.NewMetadata(fs, dir, label, key, defaultCacheSpec)
		if !ok {
			continue
		}
		if err := m.ReadCategories(t, cacheread.Filter{}); err != nil {
			return fmt.Errorf("reading overlay %s: %w", dir, err)
		}
	}

	var categoryCount, packageCount uint64
	if err := t.Each(func(c *tree.Category) error {
		categoryCount++
		return c.Each(func(p *tree.Package) error {
			packageCount++
			prof.ApplyMasks(p)
			prof.ApplyKeywords(p)
			return nil
		})
	}); err != nil {
		return fmt.Errorf("applying profile: %w", err)
	}

	if err := fs.MkdirAll(path.Dir(defaultCacheFile), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	if err := backupExisting(fs, defaultCacheFile); err != nil {
		return fmt.Errorf("backing up previous cache: %w", err)
	}
	out, err := fs.Create(defaultCacheFile)
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer out.Close()

	hdr := &dbformat.Header{
		Version:       dbformat.FormatVersion,
		Overlays:      dbOverlays,
		CategoryCount: categoryCount,
		PackageCount:  packageCount,
	}
	if err := dbformat.NewEncoder(out).Encode(t, hdr); err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}
	return nil
}

// backupExisting copies an already-present cache file to a ".previous"
// sibling before it is overwritten, so a failed run still leaves the last
// good cache in place.
func backupExisting(fs billy.Filesystem, name string) error {
	src, err := fs.Open(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer src.Close()

	dst, err := fs.Create(name + ".previous")
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = iocopy.Copy(dst, src)
	return err
}
