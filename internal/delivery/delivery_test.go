package delivery

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/config"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogMailer_AlwaysSucceeds(t *testing.T) {
	m := NewLogMailer(0)
	assert.NoError(t, m.Send(context.Background(), Message{To: "a@example.com", Subject: "hi"}))
}

func TestLogMailer_HonoursCancellation(t *testing.T) {
	m := NewLogMailer(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, Message{To: "a@example.com"}), context.Canceled)
}

func TestSMTPMailer_RequiresAddress(t *testing.T) {
	m := NewSMTPMailer("", "", "", "from@example.com")
	assert.Error(t, m.Send(context.Background(), Message{To: "a@example.com"}))
}

func TestSMTPMailer_Format(t *testing.T) {
	m := NewSMTPMailer("mail.example.com:587", "", "", "from@example.com")
	raw := string(m.format(Message{To: "a@example.com", Subject: "Hello", Body: "Body text"}))
	assert.Contains(t, raw, "From: from@example.com\r\n")
	assert.Contains(t, raw, "Subject: Hello\r\n")
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\nBody text"))
}

func TestMessages(t *testing.T) {
	user := models.User{Name: "Lena", Email: "lena@pixelforge.dev"}

	welcome := WelcomeMessage(user, models.Vendor{BusinessName: "PixelForge", Subscription: models.TierStandard})
	assert.Equal(t, "lena@pixelforge.dev", welcome.To)
	assert.Contains(t, welcome.Body, "up to 3 apps")
	premium := WelcomeMessage(user, models.Vendor{BusinessName: "PixelForge", Subscription: models.TierPremium})
	assert.Contains(t, premium.Body, "unlimited apps")

	approved := DecisionMessage(user, models.App{Name: "TaskPilot", Version: "2.1.0", Status: models.StatusApproved})
	assert.Equal(t, "TaskPilot was approved", approved.Subject)
	rejected := DecisionMessage(user, models.App{Name: "TaskPilot", Status: models.StatusRejected})
	assert.Contains(t, rejected.Body, "was not approved")
}

func TestNewMailer_SelectsByConfig(t *testing.T) {
	assert.IsType(t, &LogMailer{}, NewMailer(&config.Config{Mailer: "log"}))
	assert.IsType(t, &SMTPMailer{}, NewMailer(&config.Config{Mailer: "smtp"}))
	assert.IsType(t, &FakeDownloader{}, NewDownloader(&config.Config{Downloader: "fake"}))
	assert.IsType(t, &HTTPDownloader{}, NewDownloader(&config.Config{Downloader: "http"}))
}

func TestHTTPDownloader_ReportsProgress(t *testing.T) {
	payload := strings.Repeat("x", chunkSize*2+10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	var calls int
	var last int64
	d := NewHTTPDownloader(srv.Client())
	got, err := d.Fetch(context.Background(), srv.URL+"/files/taskpilot.zip?v=2", func(received, total int64) {
		calls++
		assert.GreaterOrEqual(t, received, last)
		last = received
	})
	require.NoError(t, err)
	assert.Len(t, got.Body, len(payload))
	assert.Equal(t, "application/zip", got.ContentType)
	assert.Equal(t, "taskpilot.zip", got.Filename)
	assert.Positive(t, calls)
	assert.Equal(t, int64(len(payload)), last)
}

func TestHTTPDownloader_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	d := NewHTTPDownloader(srv.Client())
	_, err := d.Fetch(context.Background(), srv.URL+"/missing.zip", nil)
	assert.Error(t, err)

	_, err = d.Fetch(context.Background(), "", nil)
	assert.Error(t, err)
}

func TestFakeDownloader(t *testing.T) {
	d := NewFakeDownloader([]byte("abc"))
	got, err := d.Fetch(context.Background(), "https://cdn.example.com/a.apk", nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got.Body)
	assert.Equal(t, "a.apk", got.Filename)

	d.Err = errors.New("offline")
	_, err = d.Fetch(context.Background(), "https://cdn.example.com/a.apk", nil)
	assert.EqualError(t, err, "offline")
}

func TestPublicClient_RefusesInternalHosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("instance metadata"))
	}))
	defer srv.Close()

	d := NewHTTPDownloader(NewPublicClient(time.Second))
	got, err := d.Fetch(context.Background(), srv.URL+"/latest/meta-data", nil)
	assert.ErrorIs(t, err, ErrForbiddenAddress)
	assert.Nil(t, got)
}

func TestCheckPublicAddress(t *testing.T) {
	for _, addr := range []string{
		"127.0.0.1:80", "[::1]:443", "10.0.0.5:443", "172.16.3.4:80", "192.168.1.1:8080",
		"169.254.169.254:80", "[fe80::1]:80", "0.0.0.0:80", "[::]:80", "[fd00::1]:80",
		"[::ffff:127.0.0.1]:80", "224.0.0.1:80", "not-an-address",
	} {
		assert.ErrorIs(t, checkPublicAddress("tcp", addr, nil), ErrForbiddenAddress, addr)
	}
	for _, addr := range []string{"93.184.216.34:443", "[2606:4700:4700::1111]:443"} {
		assert.NoError(t, checkPublicAddress("tcp", addr, nil), addr)
	}
}

func TestHTTPDownloader_SizeLimit(t *testing.T) {
	payload := strings.Repeat("x", 2048)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("chunked") != "" {
			// No Content-Length: the limit has to be enforced while reading.
			_, _ = w.Write([]byte(payload[:1024]))
			w.(http.Flusher).Flush()
			_, _ = w.Write([]byte(payload[1024:]))
			return
		}
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	d := NewHTTPDownloader(srv.Client())
	d.MaxBytes = 1024

	_, err := d.Fetch(context.Background(), srv.URL+"/big.zip", nil)
	assert.ErrorIs(t, err, ErrPackageTooLarge)
	_, err = d.Fetch(context.Background(), srv.URL+"/big.zip?chunked=1", nil)
	assert.ErrorIs(t, err, ErrPackageTooLarge)

	d.MaxBytes = int64(len(payload))
	got, err := d.Fetch(context.Background(), srv.URL+"/big.zip?chunked=1", nil)
	require.NoError(t, err)
	assert.Len(t, got.Body, len(payload))
}

func TestNewDownloader_AppliesSizeLimit(t *testing.T) {
	d, ok := NewDownloader(&config.Config{Downloader: "http", MaxPackageBytes: 4096}).(*HTTPDownloader)
	require.True(t, ok)
	assert.Equal(t, int64(4096), d.MaxBytes)

	d, ok = NewDownloader(&config.Config{Downloader: "http"}).(*HTTPDownloader)
	require.True(t, ok)
	assert.Equal(t, int64(DefaultMaxPackageBytes), d.MaxBytes)
}
