package contentsafety

import (
	"context"
	"fmt"
	"io"
)

const DemoBlocklist = "TestBlocklist"

// BlocklistDemo walks the whole blocklist lifecycle against a scratch list and
// prints every step. It stops at the first failing call.
func (c *Client) BlocklistDemo(ctx context.Context, w io.Writer, name string) error {
	if name == "" {
		name = DemoBlocklist
	}

	bl, err := c.CreateOrUpdateBlocklist(ctx, name, "Test blocklist management.")
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nCreated or updated blocklist: %s\n", bl.Name)

	added, err := c.AddOrUpdateItems(ctx, name, "k*ll", "h*te")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "\nAdded block items:")
	for _, it := range added {
		fmt.Fprintf(w, "ID: %s, Text: %s\n", it.ID, it.Text)
	}

	res, err := c.AnalyzeText(ctx, TextOptions{
		Text:           "I h*te you and I want to k*ll you.",
		BlocklistNames: []string{name},
	})
	if err != nil {
		return err
	}
	if len(res.BlocklistsMatch) == 0 {
		fmt.Fprintln(w, "\nNo blocklist matches.")
	} else {
		fmt.Fprintln(w, "\nBlocklist matches:")
		for _, m := range res.BlocklistsMatch {
			fmt.Fprintf(w, "Blocklist: %s, ID: %s, Text: %s\n", m.BlocklistName, m.BlocklistItemID, m.BlocklistItemText)
		}
	}

	lists, err := c.ListBlocklists(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "\nAvailable blocklists:")
	for _, l := range lists {
		fmt.Fprintf(w, "Name: %s, Description: %s\n", l.Name, l.Description)
	}

	got, err := c.GetBlocklist(ctx, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nBlocklist: %s, Description: %s\n", got.Name, got.Description)

	items, err := c.ListItems(ctx, name)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "\nBlock items:")
	for _, it := range items {
		fmt.Fprintf(w, "ID: %s, Text: %s, Description: %s\n", it.ID, it.Text, it.Description)
	}

	id, err := c.ItemID(ctx, name, "k*ll")
	if err != nil {
		return err
	}
	item, err := c.GetItem(ctx, name, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nFetched block item: ID: %s, Text: %s\n", item.ID, item.Text)

	if err := c.RemoveItems(ctx, name, id); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nRemoved block item ID: %s\n", id)

	if err := c.DeleteBlocklist(ctx, name); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nDeleted blocklist: %s\n", name)
	return nil
}
