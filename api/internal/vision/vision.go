package vision

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"azure-playground/api/internal/azrest"
	"azure-playground/api/internal/media"
)

// Client covers both Image Analysis 4.0 and the Computer Vision 3.2 routes,
// which live on the same resource and key.
type Client struct {
	rest *azrest.Client
	log  *logrus.Entry
}

func New(endpoint, key string, log *logrus.Entry, opts ...azrest.Option) *Client {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	opts = append([]azrest.Option{azrest.WithLogger(log)}, opts...)
	return &Client{rest: azrest.New(endpoint, key, opts...), log: log}
}

type BoundingBox struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("{'x': %d, 'y': %d, 'w': %d, 'h': %d}", b.X, b.Y, b.W, b.H)
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// imageRequest posts {"url": ...} for remote images and raw bytes otherwise.
func imageRequest(path string, img media.Image, q url.Values) azrest.Request {
	r := azrest.Request{Method: http.MethodPost, Path: path, Query: q}
	if img.IsURL() {
		r.Body = map[string]string{"url": img.URL}
	} else {
		r.Body = img.Data
		r.ContentType = "application/octet-stream"
	}
	return r
}
