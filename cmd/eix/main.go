// Command eix compiles a pre-tokenized query (spec §1 Out of scope: the
// CLI argument tokenizer itself is an external collaborator; this binary
// receives already-tokenized argv) and evaluates it against the binary
// cache eix-update produced (spec §6, §8).
package main

import (
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/eix-go/eix/internal/cacheread"
	"github.com/eix-go/eix/internal/mask"
	"github.com/eix-go/eix/internal/portagesettings"
	"github.com/eix-go/eix/internal/query"
	"github.com/eix-go/eix/internal/tree"
	"github.com/eix-go/eix/internal/userconfig"
)

// Exit codes per spec §6: any result is success, no result is a soft
// failure, and a query-compilation error is a hard usage error.
const (
	exitAnyResult    = 0
	exitNoResult     = 1
	exitUsageError   = 2
	defaultCacheFile = "/var/cache/eix/portage.eix"

	defaultMakeGlobals = "/usr/share/portage/config/make.globals"
	defaultMakeConf    = "/etc/portage/make.conf"
	defaultPortageDir  = "/etc/portage"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin *os.File, stdout, stderr *os.File) int {
	toks := query.Tokenize(args)
	compiled, err := query.Compile(toks)
	if err != nil {
		fmt.Fprintln(stderr, "eix: ERR:", err)
		return exitUsageError
	}

	fs := osfs.New("/")
	t := tree.New()
	cache := cacheread.PriorCache{FS: fs, Path: defaultCacheFile, TargetOverlayKey: 0}
	if err := cache.ReadCategories(t, cacheread.Filter{}); err != nil {
		fmt.Fprintln(stderr, "eix: ERR:", err)
		return exitUsageError
	}

	policy, err := loadPolicy(fs)
	if err != nil {
		fmt.Fprintln(stderr, "eix: ERR:", err)
		return exitUsageError
	}

	var marked query.MarkedList
	node := compiled.Tree
	if compiled.HasPipe {
		entries, pipeNode, err := query.ReadPipe(stdin)
		if err != nil {
			fmt.Fprintln(stderr, "eix: ERR:", err)
			return exitUsageError
		}
		marked = query.NewMarkedList(entries)
		if node == nil {
			node = pipeNode
		}
		if node == nil {
			node = query.AllMatch{}
		}
	}
	if node == nil {
		node = query.AllMatch{}
	}

	matches, err := query.Evaluate(t, node, marked, policy)
	if err != nil {
		fmt.Fprintln(stderr, "eix: ERR:", err)
		return exitUsageError
	}

	for _, m := range matches {
		fmt.Fprintf(stdout, "%s/%s\n", m.Category, m.Package.Name)
	}

	if len(matches) == 0 {
		return exitNoResult
	}
	return exitAnyResult
}

// requestedRedundancy is the set of RED_* diagnostics the "T" obsolete
// filter relies on (spec §4.G, §8 scenario 4); eix has no per-flag CLI
// option for this yet, so every keyword-related bit is always computed.
const requestedRedundancy = mask.RedInKeywords | mask.RedDouble | mask.RedWeaker |
	mask.RedMixed | mask.RedStrange | mask.RedMinusAsterisk

// loadPolicy reads make.globals/make.conf and /etc/portage's
// package.{mask,unmask,keywords,accept_keywords} to build the policy the
// evaluator consults for keyword stability and redundancy (spec §4.G).
func loadPolicy(fs billy.Filesystem) (*userconfig.Policy, error) {
	settings := portagesettings.New()
	if err := portagesettings.LoadFile(fs, defaultMakeGlobals, settings); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err := portagesettings.LoadFile(fs, defaultMakeConf, settings); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	settings.ApplyEnvironment("early", os.LookupEnv)
	settings.ApplyEnvironment("late", os.LookupEnv)
	if err := settings.Finalize(); err != nil {
		return nil, err
	}

	policy, err := userconfig.LoadPolicy(fs, defaultPortageDir)
	if err != nil {
		return nil, err
	}
	policy.ArchSet = settings.EffectiveArchSet()
	policy.GlobalAccept = settings.AcceptTokens
	policy.Requested = requestedRedundancy
	return policy, nil
}
