package dump

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// HTTPClient fetches remote exports. Tests may replace it.
var HTTPClient = &http.Client{Timeout: 5 * time.Minute}

// maxExportSize bounds a remote export.
const maxExportSize = 2 << 30

// OpenSource opens an export by location: a local path or an http(s) URL,
// such as a search endpoint returning {"hits": {"hits": [...]}}. Gzip and
// tar.gz payloads are unpacked; from a tarball the first .json member is read.
func OpenSource(ctx context.Context, location string) (io.ReadCloser, error) {
	var body io.ReadCloser
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		rc, err := fetch(ctx, location)
		if err != nil {
			return nil, err
		}
		body = rc
	} else {
		f, err := os.Open(location)
		if err != nil {
			return nil, err
		}
		body = f
	}

	rc, err := unpack(body)
	if err != nil {
		body.Close()
		return nil, fmt.Errorf("%s: %w", location, err)
	}
	return rc, nil
}

func fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "ownsync")
	req.Header.Set("Accept", "application/json")

	resp, err := HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: %s", url, resp.Status)
	}
	if resp.ContentLength > maxExportSize {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: content length %d exceeds limit of %d bytes", url, resp.ContentLength, maxExportSize)
	}
	return readCloser{io.LimitReader(resp.Body, maxExportSize), resp.Body}, nil
}

// unpack sniffs the gzip magic and, inside it, the tar header.
func unpack(body io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReader(body)
	magic, _ := br.Peek(2)
	if len(magic) < 2 || magic[0] != 0x1f || magic[1] != 0x8b {
		return readCloser{br, body}, nil
	}

	gz, err := gzip.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	inner := bufio.NewReader(gz)
	// A tar header carries "ustar" at offset 257.
	if hdr, _ := inner.Peek(262); len(hdr) == 262 && string(hdr[257:262]) == "ustar" {
		tr := tar.NewReader(inner)
		for {
			header, err := tr.Next()
			if err == io.EOF {
				return nil, fmt.Errorf("no json file found in archive")
			}
			if err != nil {
				return nil, fmt.Errorf("error reading tar archive: %w", err)
			}
			if header.Typeflag == tar.TypeReg && strings.HasSuffix(header.Name, ".json") {
				return readCloser{tr, multiCloser{gz, body}}, nil
			}
		}
	}
	return readCloser{inner, multiCloser{gz, body}}, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for _, c := range m {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
