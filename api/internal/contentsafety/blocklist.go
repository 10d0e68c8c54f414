package contentsafety

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"azure-playground/api/internal/azrest"
)

type Blocklist struct {
	Name        string `json:"blocklistName"`
	Description string `json:"description,omitempty"`
}

type BlocklistItem struct {
	ID          string `json:"blocklistItemId,omitempty"`
	Text        string `json:"text"`
	Description string `json:"description,omitempty"`
}

func (c *Client) CreateOrUpdateBlocklist(ctx context.Context, name, description string) (*Blocklist, error) {
	var out Blocklist
	_, err := c.rest.Do(ctx, azrest.Request{
		Method:      http.MethodPatch,
		Path:        blocklistPath(name),
		Body:        map[string]string{"description": description},
		ContentType: "application/merge-patch+json",
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("create or update blocklist %q: %w", name, err)
	}
	return &out, nil
}

func (c *Client) GetBlocklist(ctx context.Context, name string) (*Blocklist, error) {
	var out Blocklist
	if err := c.rest.JSON(ctx, http.MethodGet, blocklistPath(name), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("get blocklist %q: %w", name, err)
	}
	return &out, nil
}

func (c *Client) ListBlocklists(ctx context.Context) ([]Blocklist, error) {
	var out struct {
		Value []Blocklist `json:"value"`
	}
	if err := c.rest.JSON(ctx, http.MethodGet, "contentsafety/text/blocklists", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("list blocklists: %w", err)
	}
	return out.Value, nil
}

func (c *Client) DeleteBlocklist(ctx context.Context, name string) error {
	if err := c.rest.JSON(ctx, http.MethodDelete, blocklistPath(name), nil, nil, nil); err != nil {
		return fmt.Errorf("delete blocklist %q: %w", name, err)
	}
	return nil
}

// AddOrUpdateItems upserts items by text and returns them with their ids.
func (c *Client) AddOrUpdateItems(ctx context.Context, name string, texts ...string) ([]BlocklistItem, error) {
	items := make([]BlocklistItem, 0, len(texts))
	for _, t := range texts {
		items = append(items, BlocklistItem{Text: t})
	}
	var out struct {
		BlocklistItems []BlocklistItem `json:"blocklistItems"`
	}
	body := map[string]any{"blocklistItems": items}
	if err := c.rest.JSON(ctx, http.MethodPost, blocklistPath(name)+":addOrUpdateBlocklistItems", nil, body, &out); err != nil {
		return nil, fmt.Errorf("add blocklist items: %w", err)
	}
	return out.BlocklistItems, nil
}

func (c *Client) ListItems(ctx context.Context, name string) ([]BlocklistItem, error) {
	var out struct {
		Value []BlocklistItem `json:"value"`
	}
	if err := c.rest.JSON(ctx, http.MethodGet, blocklistPath(name)+"/blocklistItems", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("list blocklist items: %w", err)
	}
	return out.Value, nil
}

func (c *Client) GetItem(ctx context.Context, name, id string) (*BlocklistItem, error) {
	var out BlocklistItem
	p := blocklistPath(name) + "/blocklistItems/" + url.PathEscape(id)
	if err := c.rest.JSON(ctx, http.MethodGet, p, nil, nil, &out); err != nil {
		return nil, fmt.Errorf("get blocklist item %s: %w", id, err)
	}
	return &out, nil
}

func (c *Client) RemoveItems(ctx context.Context, name string, ids ...string) error {
	body := map[string]any{"blocklistItemIds": ids}
	if err := c.rest.JSON(ctx, http.MethodPost, blocklistPath(name)+":removeBlocklistItems", nil, body, nil); err != nil {
		return fmt.Errorf("remove blocklist items: %w", err)
	}
	return nil
}

// ItemID upserts text and returns its id. The service has no lookup by
// text, so this is how an item id is recovered for an existing entry.
func (c *Client) ItemID(ctx context.Context, name, text string) (string, error) {
	items, err := c.AddOrUpdateItems(ctx, name, text)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", fmt.Errorf("no item returned for %q", text)
	}
	return items[0].ID, nil
}
