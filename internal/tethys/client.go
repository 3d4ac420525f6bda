package tethys

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"tethys-harvester/internal/model"
)

// Source is the remote collaborator the pipeline consumes: a listing of
// available files plus fetch-by-identifier. The transport behind it is not
// the pipeline's concern.
type Source interface {
	ListAvailable(ctx context.Context) ([]RemoteFile, error)
	Fetch(ctx context.Context, id string) (io.ReadCloser, error)
}

// Client fetches tag/subtag data files from the Tethys website over HTTP
// with bounded retries and a per-request timeout.
type Client struct {
	baseURL string
	http    *retryablehttp.Client
	catalog map[string]RemoteFile
}

// NewClient builds a Client for the given base URL. A zero fetchTimeout
// falls back to 30s.
func NewClient(baseURL string, fetchTimeout time.Duration, log *zap.SugaredLogger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if fetchTimeout <= 0 {
		fetchTimeout = 30 * time.Second
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.HTTPClient.Timeout = fetchTimeout
	rc.Logger = retryLogger{log: log}

	byID := make(map[string]RemoteFile)
	for _, rf := range Catalog(baseURL) {
		byID[rf.ID] = rf
	}

	return &Client{baseURL: baseURL, http: rc, catalog: byID}
}

// ListAvailable returns the current remote listing. The Tethys site has no
// machine-readable index, so the listing is the known tag/subtag catalog.
func (c *Client) ListAvailable(ctx context.Context) ([]RemoteFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(model.ErrNetwork, err.Error())
	}
	return Catalog(c.baseURL), nil
}

// Fetch downloads the data file for one catalog identifier. A tag/subtag
// listing can span several pages, so Fetch walks them until the remote
// reports no more and concatenates the rows under one header. The caller
// owns the returned body.
func (c *Client) Fetch(ctx context.Context, id string) (io.ReadCloser, error) {
	rf, ok := c.catalog[id]
	if !ok {
		return nil, errors.Wrapf(model.ErrNetwork, "unknown source identifier %q", id)
	}

	var buf bytes.Buffer
	for page := 0; ; page++ {
		url := PageURL(c.baseURL, rf.Tag, rf.Subtag, page)
		payload, found, err := c.getPage(ctx, url)
		if err != nil {
			return nil, err
		}
		if !found {
			// Past the last page. A missing first page means the file
			// itself is gone.
			if page == 0 {
				return nil, errors.Wrapf(model.ErrNetwork, "GET %s: unexpected status %d", url, http.StatusNotFound)
			}
			break
		}
		if page > 0 {
			// Every page repeats the header row; keep only the first one.
			if i := bytes.IndexByte(payload, '\n'); i >= 0 {
				payload = payload[i+1:]
			} else {
				payload = nil
			}
			if len(bytes.TrimSpace(payload)) == 0 {
				break
			}
		}
		buf.Write(payload)
	}
	return io.NopCloser(&buf), nil
}

// getPage fetches one listing page. A 404 marks the end of the page walk
// and is not an error.
func (c *Client) getPage(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, errors.Wrapf(model.ErrNetwork, "build request for %s: %v", url, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, errors.Wrapf(model.ErrNetwork, "GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, errors.Wrapf(model.ErrNetwork, "GET %s: unexpected status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, errors.Wrapf(model.ErrNetwork, "read %s: %v", url, err)
	}
	return data, true, nil
}

// retryLogger adapts zap to retryablehttp's leveled logger.
type retryLogger struct {
	log *zap.SugaredLogger
}

func (l retryLogger) Error(msg string, kv ...interface{}) { l.log.Errorw(msg, kv...) }
func (l retryLogger) Warn(msg string, kv ...interface{})  { l.log.Warnw(msg, kv...) }
func (l retryLogger) Info(msg string, kv ...interface{})  { l.log.Debugw(msg, kv...) }
func (l retryLogger) Debug(msg string, kv ...interface{}) { l.log.Debugw(msg, kv...) }
