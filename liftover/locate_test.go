package liftover_test

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/liftover/liftover"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestChainFileName(t *testing.T) {
	expect.EQ(t, liftover.ChainFileName("hg17", "hg18", false), "hg17ToHg18.over.chain")
	expect.EQ(t, liftover.ChainFileName("hg19", "hg38", true), "hg19ToHg38.over.chain.gz")
	expect.EQ(t, liftover.ChainFileName("mm9", "Mm10", false), "mm9ToMm10.over.chain")
}

func TestLocateOptsValidate(t *testing.T) {
	opts := liftover.DefaultLocateOpts()
	expect.NoError(t, opts.Validate())
	expect.EQ(t, opts.BaseURL, liftover.DefaultBaseURL)

	bad := opts
	bad.BaseURL = "ftp://example.com/goldenPath"
	expect.True(t, errors.Is(errors.Invalid, bad.Validate()))

	bad = opts
	bad.CacheDir = ""
	bad.WriteCache = true
	expect.True(t, errors.Is(errors.Invalid, bad.Validate()))

	// Web access is off, so neither setting matters.
	bad.UseWeb = false
	bad.BaseURL = ""
	expect.NoError(t, bad.Validate())
}

func newLocateDirs(t *testing.T) (search, cache string, cleanup func()) {
	dir, cleanup := testutil.TempDir(t, "", "")
	search = filepath.Join(dir, "search")
	cache = filepath.Join(dir, "cache")
	assert.NoError(t, os.MkdirAll(search, 0755))
	assert.NoError(t, os.MkdirAll(cache, 0755))
	return search, cache, cleanup
}

func TestLocateLocal(t *testing.T) {
	ctx := context.Background()
	search, cache, cleanup := newLocateDirs(t)
	defer cleanup()
	opts := liftover.LocateOpts{SearchDir: search, CacheDir: cache}

	_, err := liftover.Locate(ctx, "hg17", "hg18", opts)
	expect.True(t, errors.Is(errors.NotExist, err), "err %v", err)

	cached := filepath.Join(cache, "hg17ToHg18.over.chain.gz")
	writeGzip(t, cached, ucscChains)
	path, err := liftover.Locate(ctx, "hg17", "hg18", opts)
	assert.NoError(t, err)
	expect.EQ(t, path, cached)

	plain := filepath.Join(search, "hg17ToHg18.over.chain")
	assert.NoError(t, ioutil.WriteFile(plain, []byte(ucscChains), 0644))
	path, err = liftover.Locate(ctx, "hg17", "hg18", opts)
	assert.NoError(t, err)
	expect.EQ(t, path, plain)

	gz := filepath.Join(search, "hg17ToHg18.over.chain.gz")
	writeGzip(t, gz, ucscChains)
	path, err = liftover.Locate(ctx, "hg17", "hg18", opts)
	assert.NoError(t, err)
	expect.EQ(t, path, gz)

	idx, err := liftover.OpenPair(ctx, "hg17", "hg18", opts)
	assert.NoError(t, err)
	expect.EQ(t, idx.NumChains(), 2)
}

func newChainServer(t *testing.T) (*httptest.Server, *int) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	gz := filepath.Join(dir, "chain.gz")
	writeGzip(t, gz, ucscChains)
	data, err := ioutil.ReadFile(gz)
	assert.NoError(t, err)

	requests := new(int)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*requests++
		if r.URL.Path != "/hg17/liftOver/hg17ToHg18.over.chain.gz" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	return srv, requests
}

func TestLocateDownload(t *testing.T) {
	ctx := context.Background()
	srv, requests := newChainServer(t)
	defer srv.Close()
	search, cache, cleanup := newLocateDirs(t)
	defer cleanup()
	opts := liftover.LocateOpts{
		SearchDir:  search,
		CacheDir:   filepath.Join(cache, "sub"),
		UseWeb:     true,
		WriteCache: true,
		BaseURL:    srv.URL + "/",
		Client:     srv.Client(),
	}

	path, err := liftover.Locate(ctx, "hg17", "hg18", opts)
	assert.NoError(t, err)
	expect.EQ(t, path, filepath.Join(cache, "sub", "hg17ToHg18.over.chain.gz"))
	expect.EQ(t, *requests, 1)

	// The second lookup is served from the cache.
	idx, err := liftover.OpenPair(ctx, "hg17", "hg18", opts)
	assert.NoError(t, err)
	expect.EQ(t, idx.NumChains(), 2)
	expect.EQ(t, *requests, 1)

	_, err = liftover.Locate(ctx, "hg18", "hg19", opts)
	expect.True(t, errors.Is(errors.NotExist, err), "err %v", err)
	expect.EQ(t, *requests, 2)
}

func TestLocateDownloadWithoutCache(t *testing.T) {
	ctx := context.Background()
	srv, _ := newChainServer(t)
	defer srv.Close()
	opts := liftover.LocateOpts{UseWeb: true, BaseURL: srv.URL, Client: srv.Client()}

	path, err := liftover.Locate(ctx, "hg17", "hg18", opts)
	assert.NoError(t, err)
	defer os.Remove(path) // nolint: errcheck
	idx, err := liftover.Open(ctx, path)
	assert.NoError(t, err)
	expect.EQ(t, idx.NumChains(), 2)
}

func TestLocateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	opts := liftover.LocateOpts{UseWeb: true, BaseURL: srv.URL, Client: srv.Client()}
	_, err := liftover.Locate(context.Background(), "hg17", "hg18", opts)
	expect.NotNil(t, err)
	expect.False(t, errors.Is(errors.NotExist, err))
}
