package liftover

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
)

// DefaultBaseURL is the UCSC download tree holding the liftOver chain files.
const DefaultBaseURL = "http://hgdownload.cse.ucsc.edu/goldenPath"

// LocateOpts controls where Locate looks for chain files.
type LocateOpts struct {
	// SearchDir is checked first for <name>.gz and then <name>.  Empty
	// disables the search.
	SearchDir string
	// CacheDir holds downloaded files.  Empty disables the cache.
	CacheDir string
	// UseWeb enables downloading from BaseURL.
	UseWeb bool
	// WriteCache moves downloaded files into CacheDir.
	WriteCache bool
	// BaseURL is the root of the download tree.  Files are fetched from
	// <BaseURL>/<from>/liftOver/<name>.gz.
	BaseURL string
	// Client is used for downloads.  If nil, http.DefaultClient is used.
	Client *http.Client
}

// DefaultLocateOpts returns the options used by the bio-liftover command:
// search the working directory, then ~/.liftover, then UCSC, caching what
// is downloaded.
func DefaultLocateOpts() LocateOpts {
	opts := LocateOpts{
		SearchDir:  ".",
		UseWeb:     true,
		WriteCache: true,
		BaseURL:    DefaultBaseURL,
	}
	if home, err := os.UserHomeDir(); err == nil {
		opts.CacheDir = filepath.Join(home, ".liftover")
	} else {
		opts.WriteCache = false
	}
	return opts
}

// Validate checks the option values for consistency.
func (o LocateOpts) Validate() error {
	if o.UseWeb {
		u, err := url.Parse(o.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errors.E(errors.Invalid, fmt.Sprintf("liftover: invalid base URL %q", o.BaseURL))
		}
	}
	if o.UseWeb && o.WriteCache && o.CacheDir == "" {
		return errors.E(errors.Invalid, "liftover: WriteCache requires CacheDir")
	}
	return nil
}

// ChainFileName returns the UCSC name of the chain file converting assembly
// from to assembly to, e.g. ChainFileName("hg17", "hg18", true) is
// "hg17ToHg18.over.chain.gz".
func ChainFileName(from, to string, gz bool) string {
	if to != "" {
		to = strings.ToUpper(to[:1]) + to[1:]
	}
	name := from + "To" + to + ".over.chain"
	if gz {
		name += ".gz"
	}
	return name
}

// Locate finds the chain file converting assembly from to assembly to.  It
// tries, in order: the gzipped and then the plain file in opts.SearchDir,
// the gzipped file in opts.CacheDir, and finally a download from
// opts.BaseURL.  It returns errors.NotExist if every source misses.
func Locate(ctx context.Context, from, to string, opts LocateOpts) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}
	if from == "" || to == "" {
		return "", errors.E(errors.Invalid, fmt.Sprintf("liftover.Locate: empty assembly name (%q, %q)", from, to))
	}
	gzName := ChainFileName(from, to, true)
	var candidates []string
	if opts.SearchDir != "" {
		candidates = append(candidates,
			file.Join(opts.SearchDir, gzName),
			file.Join(opts.SearchDir, ChainFileName(from, to, false)))
	}
	if opts.CacheDir != "" {
		candidates = append(candidates, file.Join(opts.CacheDir, gzName))
	}
	for _, path := range candidates {
		if _, err := file.Stat(ctx, path); err == nil {
			log.Debug.Printf("liftover: found %s", path)
			return path, nil
		}
	}
	if opts.UseWeb {
		path, found, err := download(ctx, from, gzName, opts)
		if err != nil {
			return "", err
		}
		if found {
			return path, nil
		}
	}
	return "", errors.E(errors.NotExist, fmt.Sprintf("liftover.Locate: no chain file for %s to %s", from, to))
}

// OpenPair locates and indexes the chain file converting assembly from to
// assembly to.
func OpenPair(ctx context.Context, from, to string, opts LocateOpts) (*Index, error) {
	path, err := Locate(ctx, from, to, opts)
	if err != nil {
		return nil, err
	}
	return Open(ctx, path)
}
