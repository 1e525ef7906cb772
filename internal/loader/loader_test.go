package loader

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	internalhttp "github.com/suman-15/whisper-asr-multilang/internal/http"
	"github.com/suman-15/whisper-asr-multilang/internal/request"
	"github.com/suman-15/whisper-asr-multilang/internal/results"
)

const summary = "scope,lang,wer,cer,num_utts\noverall,-,0.2,0.1,10\nper-lang,en,0.3,0.15,6\n"

func newLoader(t *testing.T, opts ...Option) *Loader {
	t.Helper()
	factory, err := request.NewFactory("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return New(internalhttp.NewClient(0, nil), factory, opts...)
}

type mockDownloader struct {
	data   []byte
	err    error
	bucket string
	key    string
}

func (m *mockDownloader) DownloadWithContext(_ aws.Context, w io.WriterAt, input *s3.GetObjectInput, _ ...func(*s3manager.Downloader)) (int64, error) {
	m.bucket = aws.StringValue(input.Bucket)
	m.key = aws.StringValue(input.Key)
	if m.err != nil {
		return 0, m.err
	}
	n, err := w.WriteAt(m.data, 0)
	return int64(n), err
}

func TestLoad_HTTP(t *testing.T) {
	var cacheControl string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cacheControl = r.Header.Get("Cache-Control")
		if r.URL.Path != "/results/results.csv" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(summary))
	}))
	defer server.Close()

	l := newLoader(t, WithBase(server.URL+"/docs/index.html"))
	out := l.Load(context.Background(), DefaultPath)
	if !out.OK() {
		t.Fatalf("unexpected error: %v", out.Err)
	}
	expected := []results.Result{
		{Scope: "overall", Lang: "-", WER: "0.2", CER: "0.1", NumUtts: "10"},
		{Scope: "per-lang", Lang: "en", WER: "0.3", CER: "0.15", NumUtts: "6"},
	}
	if !reflect.DeepEqual(out.Results, expected) {
		t.Errorf("expected %+v, but got %+v", expected, out.Results)
	}
	if cacheControl != "no-store" {
		t.Errorf("expected Cache-Control 'no-store', but got '%s'", cacheControl)
	}
}

func TestLoad_HTTPNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	l := newLoader(t)
	out := l.Load(context.Background(), server.URL+"/results/results.csv")
	if out.OK() {
		t.Fatal("expected error, but got nil")
	}
	var fetchErr *FetchError
	if !errors.As(out.Err, &fetchErr) {
		t.Fatalf("expected *FetchError, but got %T: %v", out.Err, out.Err)
	}
	if fetchErr.Status != http.StatusNotFound {
		t.Errorf("expected status 404, but got %d", fetchErr.Status)
	}
	if fetchErr.Path != server.URL+"/results/results.csv" {
		t.Errorf("expected path to be the url, but got %s", fetchErr.Path)
	}
	if out.Results != nil {
		t.Errorf("expected no results, but got %v", out.Results)
	}
}

func TestLoad_HTTPEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	out := newLoader(t).Load(context.Background(), server.URL)
	if out.OK() {
		t.Fatal("expected parse error, but got nil")
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "results"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "results", "results.csv"), []byte(summary), 0o644); err != nil {
		t.Fatal(err)
	}

	l := newLoader(t, WithBase(filepath.Join(dir, "docs", "index.html")))
	out := l.Load(context.Background(), DefaultPath)
	if !out.OK() {
		t.Fatalf("unexpected error: %v", out.Err)
	}
	if len(out.Results) != 2 {
		t.Errorf("expected 2 results, but got %d", len(out.Results))
	}
}

func TestLoad_FileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	out := newLoader(t).Load(context.Background(), path)
	var fetchErr *FetchError
	if !errors.As(out.Err, &fetchErr) || fetchErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404 *FetchError, but got %v", out.Err)
	}
}

func TestLoad_S3(t *testing.T) {
	d := &mockDownloader{data: []byte(summary)}
	out := newLoader(t, WithDownloader(d)).Load(context.Background(), "s3://eval-bucket/runs/results.csv")
	if !out.OK() {
		t.Fatalf("unexpected error: %v", out.Err)
	}
	if d.bucket != "eval-bucket" || d.key != "runs/results.csv" {
		t.Errorf("expected eval-bucket/runs/results.csv, but got %s/%s", d.bucket, d.key)
	}
	if len(out.Results) != 2 {
		t.Errorf("expected 2 results, but got %d", len(out.Results))
	}
}

func TestLoad_S3NoSuchKey(t *testing.T) {
	d := &mockDownloader{err: awserr.NewRequestFailure(awserr.New(s3.ErrCodeNoSuchKey, "missing", nil), http.StatusNotFound, "req-1")}
	out := newLoader(t, WithDownloader(d)).Load(context.Background(), "s3://eval-bucket/results.csv")
	var fetchErr *FetchError
	if !errors.As(out.Err, &fetchErr) || fetchErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404 *FetchError, but got %v", out.Err)
	}
}

func TestLoad_S3InvalidLocation(t *testing.T) {
	out := newLoader(t, WithDownloader(&mockDownloader{})).Load(context.Background(), "s3://bucket-only")
	if out.OK() {
		t.Fatal("expected error, but got nil")
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		base string
		path string
		want string
	}{
		{"", DefaultPath, DefaultPath},
		{"https://example.github.io/repo/docs/index.html", DefaultPath, "https://example.github.io/repo/results/results.csv"},
		{"https://example.github.io/repo/docs/", DefaultPath, "https://example.github.io/repo/results/results.csv"},
		{"https://example.github.io/repo/docs/", "https://other/r.csv", "https://other/r.csv"},
		{"https://example.github.io/repo/docs/", "s3://b/k.csv", "s3://b/k.csv"},
		{filepath.Join("site", "docs", "index.html"), DefaultPath, filepath.Join("site", "results", "results.csv")},
	}
	for _, tt := range tests {
		l := newLoader(t, WithBase(tt.base))
		if got := l.Resolve(tt.path); got != tt.want {
			t.Errorf("Resolve(%q) with base %q: expected %q, but got %q", tt.path, tt.base, tt.want, got)
		}
	}
}
