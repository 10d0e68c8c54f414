package moderator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"azure-playground/api/internal/azrest"
)

type ImageList struct {
	ID          int               `json:"Id,omitempty"`
	Name        string            `json:"Name"`
	Description string            `json:"Description,omitempty"`
	Metadata    map[string]string `json:"Metadata,omitempty"`
}

type AddedImage struct {
	ContentID      string     `json:"ContentId"`
	AdditionalInfo []KeyValue `json:"AdditionalInfo"`
	Status         Status     `json:"Status"`
	TrackingID     string     `json:"TrackingId"`
}

func listPath(id int) string { return listsPath + "/" + strconv.Itoa(id) }

func (c *Client) CreateImageList(ctx context.Context, l ImageList) (*ImageList, error) {
	var out ImageList
	if err := c.rest.JSON(ctx, http.MethodPost, listsPath, nil, l, &out); err != nil {
		return nil, fmt.Errorf("create image list: %w", err)
	}
	return &out, nil
}

func (c *Client) ImageLists(ctx context.Context) ([]ImageList, error) {
	var out []ImageList
	if err := c.rest.JSON(ctx, http.MethodGet, listsPath, nil, nil, &out); err != nil {
		return nil, fmt.Errorf("list image lists: %w", err)
	}
	return out, nil
}

func (c *Client) DeleteImageList(ctx context.Context, id int) error {
	if err := c.rest.JSON(ctx, http.MethodDelete, listPath(id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete image list %d: %w", id, err)
	}
	return nil
}

// AddImageURL adds a remote image to the list under label.
func (c *Client) AddImageURL(ctx context.Context, listID int, imageURL, label string) (*AddedImage, error) {
	q := url.Values{}
	if label != "" {
		q.Set("label", label)
	}
	body := map[string]string{"DataRepresentation": "URL", "Value": imageURL}
	var out AddedImage
	if err := c.rest.JSON(ctx, http.MethodPost, listPath(listID)+"/images", q, body, &out); err != nil {
		return nil, fmt.Errorf("add image to list %d: %w", listID, err)
	}
	return &out, nil
}

func (c *Client) DeleteAllImages(ctx context.Context, listID int) error {
	if err := c.rest.JSON(ctx, http.MethodDelete, listPath(listID)+"/images", nil, nil, nil); err != nil {
		return fmt.Errorf("delete images of list %d: %w", listID, err)
	}
	return nil
}

// RefreshIndex makes newly added images visible to Match.
func (c *Client) RefreshIndex(ctx context.Context, listID int) error {
	if err := c.rest.JSON(ctx, http.MethodPost, listPath(listID)+"/RefreshIndex", nil, nil, nil); err != nil {
		return fmt.Errorf("refresh index of list %d: %w", listID, err)
	}
	return nil
}
