package httpds

import (
	"context"
	"fmt"
	"io"

	"feateng/internal/datasource"
)

// Remote adapts Client to the datasource.Source contract: Open fetches the
// configured URL and hands back the response body.
type Remote struct {
	client *Client
	url    string
}

// NewRemote binds a Remote source to url using the given client. A nil client
// gets the default Config.
func NewRemote(client *Client, url string) *Remote {
	if client == nil {
		client = NewClient(Config{})
	}
	return &Remote{client: client, url: url}
}

// Open performs the GET and returns the body. Non-2xx terminal statuses are
// errors; the body is closed before returning them.
func (r *Remote) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := r.client.Get(ctx, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", r.url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: status %s", r.url, resp.Status)
	}
	return resp.Body, nil
}

var _ datasource.Source = (*Remote)(nil)
