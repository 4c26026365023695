package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/config"
)

// Progress receives the bytes read so far and the expected total, which is
// -1 when the source did not announce a length.
type Progress func(received, total int64)

type Download struct {
	Body        []byte
	ContentType string
	Filename    string
}

type Downloader interface {
	Fetch(ctx context.Context, url string, progress Progress) (*Download, error)
}

var (
	ErrForbiddenAddress = errors.New("package host resolves to a non-public address")
	ErrPackageTooLarge  = errors.New("package exceeds the size limit")
)

// DefaultMaxPackageBytes caps a fetched package when no limit is configured.
const DefaultMaxPackageBytes = 64 << 20

func NewDownloader(cfg *config.Config) Downloader {
	if cfg.Downloader == "fake" {
		return NewFakeDownloader(nil)
	}
	d := NewHTTPDownloader(NewPublicClient(cfg.DownloadTimeout))
	if cfg.MaxPackageBytes > 0 {
		d.MaxBytes = cfg.MaxPackageBytes
	}
	return d
}

// NewPublicClient returns a client that only connects to public unicast
// addresses. The check runs on every dial, so redirects and re-resolved
// names are held to it as well. No proxy is used.
func NewPublicClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   checkPublicAddress,
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               nil,
			DialContext:         dialer.DialContext,
			TLSHandshakeTimeout: 10 * time.Second,
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

func checkPublicAddress(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrForbiddenAddress, address)
	}
	ip := net.ParseIP(host)
	if ip == nil || !isPublicIP(ip) {
		return fmt.Errorf("%w: %s", ErrForbiddenAddress, host)
	}
	return nil
}

func isPublicIP(ip net.IP) bool {
	return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() || ip.IsMulticast())
}

const chunkSize = 32 * 1024

// HTTPDownloader streams a package from its direct link. Bodies larger than
// MaxBytes are refused with ErrPackageTooLarge.
type HTTPDownloader struct {
	client   *http.Client
	MaxBytes int64
}

func NewHTTPDownloader(client *http.Client) *HTTPDownloader {
	if client == nil {
		client = NewPublicClient(0)
	}
	return &HTTPDownloader{client: client, MaxBytes: DefaultMaxPackageBytes}
}

func (d *HTTPDownloader) Fetch(ctx context.Context, url string, progress Progress) (*Download, error) {
	if url == "" {
		return nil, errors.New("package has no download link")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch package: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("package host returned status %d", resp.StatusCode)
	}
	if d.MaxBytes > 0 && resp.ContentLength > d.MaxBytes {
		return nil, fmt.Errorf("%w: announced %d bytes", ErrPackageTooLarge, resp.ContentLength)
	}

	var body io.Reader = resp.Body
	if d.MaxBytes > 0 {
		// One byte past the limit tells an oversized body from an exact fit.
		body = io.LimitReader(resp.Body, d.MaxBytes+1)
	}
	var buf bytes.Buffer
	if err := copyWithProgress(&buf, body, resp.ContentLength, progress); err != nil {
		return nil, fmt.Errorf("failed to read package: %w", err)
	}
	if d.MaxBytes > 0 && int64(buf.Len()) > d.MaxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrPackageTooLarge, d.MaxBytes)
	}
	return &Download{
		Body:        buf.Bytes(),
		ContentType: resp.Header.Get("Content-Type"),
		Filename:    filenameFromURL(url),
	}, nil
}

func copyWithProgress(dst io.Writer, src io.Reader, total int64, progress Progress) error {
	chunk := make([]byte, chunkSize)
	var received int64
	for {
		n, err := src.Read(chunk)
		if n > 0 {
			if _, werr := dst.Write(chunk[:n]); werr != nil {
				return werr
			}
			received += int64(n)
			if progress != nil {
				progress(received, total)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func filenameFromURL(url string) string {
	url = strings.SplitN(url, "?", 2)[0]
	if i := strings.LastIndex(url, "/"); i >= 0 && i < len(url)-1 {
		return url[i+1:]
	}
	return "package.bin"
}

// FakeDownloader returns a placeholder payload, or Err when set.
type FakeDownloader struct {
	Payload []byte
	Delay   time.Duration
	Err     error
}

func NewFakeDownloader(payload []byte) *FakeDownloader {
	if payload == nil {
		payload = []byte("indie-market placeholder package\n")
	}
	return &FakeDownloader{Payload: payload}
}

func (d *FakeDownloader) Fetch(ctx context.Context, url string, progress Progress) (*Download, error) {
	if err := Sleep(ctx, d.Delay); err != nil {
		return nil, err
	}
	if d.Err != nil {
		return nil, d.Err
	}
	var buf bytes.Buffer
	if err := copyWithProgress(&buf, bytes.NewReader(d.Payload), int64(len(d.Payload)), progress); err != nil {
		return nil, err
	}
	return &Download{
		Body:        buf.Bytes(),
		ContentType: "application/octet-stream",
		Filename:    filenameFromURL(url),
	}, nil
}
