// Package loader retrieves the results CSV from a URL, an S3 object or a local file and parses it
// into typed results.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/suman-15/whisper-asr-multilang/internal/csv"
	"github.com/suman-15/whisper-asr-multilang/internal/request"
	"github.com/suman-15/whisper-asr-multilang/internal/results"
)

// DefaultPath is where the hosting page expects the results file.
const DefaultPath = "../results/results.csv"

// FetchError reports a retrieval that completed with a non-success status.
type FetchError struct {
	Path   string
	Status int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %d", e.Path, e.Status)
}

type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Downloader is the subset of s3manager.Downloader used for s3:// sources.
type Downloader interface {
	DownloadWithContext(ctx aws.Context, w io.WriterAt, input *s3.GetObjectInput, options ...func(*s3manager.Downloader)) (int64, error)
}

// Outcome is the result of a single load: either results or the reason there are none.
type Outcome struct {
	Path    string
	Results []results.Result
	Err     error
}

func (o Outcome) OK() bool {
	return o.Err == nil
}

type Loader struct {
	client     Doer
	factory    *request.Factory
	downloader Downloader
	base       string
	logger     *slog.Logger

	downloaderOnce sync.Once
	downloaderErr  error
}

type Option func(*Loader)

// WithBase sets the location of the hosting page; relative paths resolve against it.
func WithBase(base string) Option {
	return func(l *Loader) { l.base = base }
}

func WithDownloader(d Downloader) Option {
	return func(l *Loader) { l.downloader = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

func New(client Doer, factory *request.Factory, opts ...Option) *Loader {
	l := &Loader{
		client:  client,
		factory: factory,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches and parses the file at path.
func (l *Loader) Load(ctx context.Context, path string) Outcome {
	location := l.Resolve(path)
	out := Outcome{Path: location}
	body, err := l.open(ctx, location)
	if err != nil {
		out.Err = err
		return out
	}
	defer func() { _ = body.Close() }()
	table, err := csv.Read(body)
	if err != nil {
		out.Err = fmt.Errorf("parse %s: %w", location, err)
		return out
	}
	l.logger.Debug("results file loaded", "path", location, "records", len(table.Records))
	out.Results = results.FromTable(table)
	return out
}

// Resolve returns the location path refers to, the way a browser resolves a link on the
// hosting page. Absolute URLs, s3:// locations and absolute file paths are returned unchanged.
func (l *Loader) Resolve(path string) string {
	if isRemote(path) || filepath.IsAbs(path) || l.base == "" {
		return path
	}
	if isRemote(l.base) {
		base, err := url.Parse(l.base)
		if err != nil {
			return path
		}
		ref, err := url.Parse(path)
		if err != nil {
			return path
		}
		return base.ResolveReference(ref).String()
	}
	return filepath.Join(filepath.Dir(l.base), filepath.FromSlash(path))
}

func (l *Loader) open(ctx context.Context, location string) (io.ReadCloser, error) {
	switch {
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return l.openHTTP(ctx, location)
	case strings.HasPrefix(location, "s3://"):
		return l.openS3(ctx, location)
	default:
		return l.openFile(location)
	}
}

func (l *Loader) openHTTP(ctx context.Context, location string) (io.ReadCloser, error) {
	req, err := l.factory.Build(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", location, err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", location, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, &FetchError{Path: location, Status: resp.StatusCode}
	}
	return resp.Body, nil
}

func (l *Loader) openS3(ctx context.Context, location string) (io.ReadCloser, error) {
	bucket, key, ok := strings.Cut(strings.TrimPrefix(location, "s3://"), "/")
	if !ok || bucket == "" || key == "" {
		return nil, fmt.Errorf("invalid s3 location %q", location)
	}
	downloader, err := l.s3Downloader()
	if err != nil {
		return nil, err
	}
	buf := aws.NewWriteAtBuffer(nil)
	_, err = downloader.DownloadWithContext(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var reqErr awserr.RequestFailure
		if errors.As(err, &reqErr) && reqErr.StatusCode() != 0 {
			return nil, &FetchError{Path: location, Status: reqErr.StatusCode()}
		}
		return nil, fmt.Errorf("download %s: %w", location, err)
	}
	return io.NopCloser(bytes.NewReader(buf.Bytes())), nil
}

// s3Downloader creates the default downloader on first use so AWS configuration is only
// required for s3:// sources.
func (l *Loader) s3Downloader() (Downloader, error) {
	l.downloaderOnce.Do(func() {
		if l.downloader != nil {
			return
		}
		sess, err := session.NewSession()
		if err != nil {
			l.downloaderErr = fmt.Errorf("create aws session: %w", err)
			return
		}
		l.downloader = s3manager.NewDownloader(sess)
	})
	return l.downloader, l.downloaderErr
}

func (l *Loader) openFile(location string) (io.ReadCloser, error) {
	f, err := os.Open(location)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &FetchError{Path: location, Status: http.StatusNotFound}
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", location, err)
	}
	return f, nil
}

func isRemote(path string) bool {
	for _, scheme := range []string{"http://", "https://", "s3://"} {
		if strings.HasPrefix(path, scheme) {
			return true
		}
	}
	return false
}
