package agents

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/cavaliergopher/grab/v3"
	"github.com/sirupsen/logrus"
)

// contentURL is the absolute download URL of a file's bytes.
func (c *Client) contentURL(id string) string {
	q := url.Values{"api-version": {c.rest.APIVersion}}
	return c.rest.Endpoint + "/files/" + url.PathEscape(id) + "/content?" + q.Encode()
}

// SaveFile downloads a file's content to dst, creating the parent directory.
func (c *Client) SaveFile(ctx context.Context, id, dst string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	req, err := grab.NewRequest(dst, c.contentURL(id))
	if err != nil {
		return "", err
	}
	req = req.WithContext(ctx)
	req.HTTPRequest.Header.Set("api-key", c.key)
	req.NoResume = true

	resp := grab.NewClient().Do(req)
	if err := resp.Err(); err != nil {
		return "", fmt.Errorf("download file %s: %w", id, err)
	}
	c.log.WithFields(logrus.Fields{"file": id, "bytes": resp.BytesComplete()}).Debug("file saved")
	return resp.Filename, nil
}
