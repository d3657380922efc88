package liftover

import (
	"context"
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
)

// download fetches <BaseURL>/<from>/liftOver/<name> into a temporary file
// and, if opts.WriteCache, moves it into opts.CacheDir.  It returns the
// local path.  found is false if the server has no such file.
func download(ctx context.Context, from, name string, opts LocateOpts) (path string, found bool, err error) {
	url := strings.TrimSuffix(opts.BaseURL, "/") + "/" + from + "/liftOver/" + name
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", false, errors.Wrapf(err, "liftover: download %s", url)
	}
	log.Printf("liftover: downloading %s", url)
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return "", false, errors.Wrapf(err, "liftover: download %s", url)
	}
	defer resp.Body.Close() // nolint: errcheck
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", false, nil
	case resp.StatusCode != http.StatusOK:
		return "", false, errors.Errorf("liftover: download %s: %s", url, resp.Status)
	}

	tmp, err := ioutil.TempFile("", "*."+name)
	if err != nil {
		return "", false, errors.Wrap(err, "liftover: create temp file")
	}
	if _, err = io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", false, errors.Wrapf(err, "liftover: download %s", url)
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", false, errors.Wrapf(err, "liftover: write %s", tmp.Name())
	}
	if !opts.WriteCache {
		return tmp.Name(), true, nil
	}
	dst := filepath.Join(opts.CacheDir, name)
	if err := moveFile(tmp.Name(), dst); err != nil {
		log.Error.Printf("liftover: could not cache %s: %v; using %s", name, err, tmp.Name())
		return tmp.Name(), true, nil
	}
	return dst, true, nil
}

// moveFile renames src to dst, creating dst's directory as needed.  It
// copies when src and dst are on different devices.
func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close() // nolint: errcheck
	out, err := ioutil.TempFile(filepath.Dir(dst), filepath.Base(dst)+".tmp*")
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(out.Name())
		return err
	}
	if err = out.Close(); err != nil {
		_ = os.Remove(out.Name())
		return err
	}
	if err = os.Rename(out.Name(), dst); err != nil {
		_ = os.Remove(out.Name())
		return err
	}
	return os.Remove(src)
}
