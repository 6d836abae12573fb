package syncro

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Tiliavir/syncro-import/internal/model"
)

// FetchReference pulls the lookup data an import needs: techs, issue
// types, customers, contacts, ticket statuses and products.
func (c *Client) FetchReference(ctx context.Context) (*model.Reference, error) {
	ref := &model.Reference{}

	users, err := c.getAll(ctx, "/users", "users", nil)
	if err != nil {
		return nil, fmt.Errorf("fetching techs: %w", err)
	}
	for _, raw := range users {
		v, err := decodeAny(raw)
		if err != nil {
			continue
		}
		if t, ok := techFrom(v); ok {
			ref.Techs = append(ref.Techs, t)
		}
	}

	var settings map[string]json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/settings", nil, nil, &settings); err != nil {
		return nil, fmt.Errorf("fetching issue types: %w", err)
	}
	if raw, ok := settings["ticket"]; ok {
		if o, err := decodeObject(raw); err == nil {
			ref.IssueTypes = names(o["problem_types"])
		}
	}
	if len(ref.IssueTypes) == 0 {
		c.log.Warn().Msg("no issue types found in Syncro settings")
	}

	if ref.Customers, err = fetchList(ctx, c, "/customers", "customers", customer); err != nil {
		return nil, fmt.Errorf("fetching customers: %w", err)
	}
	if ref.Contacts, err = fetchList(ctx, c, "/contacts", "contacts", contact); err != nil {
		return nil, fmt.Errorf("fetching contacts: %w", err)
	}

	var ticketSettings map[string]json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/tickets/settings", nil, nil, &ticketSettings); err != nil {
		return nil, fmt.Errorf("fetching ticket statuses: %w", err)
	}
	if raw, ok := ticketSettings["ticket_status_list"]; ok {
		if v, err := decodeAny(raw); err == nil {
			ref.Statuses = names(v)
		}
	}

	if ref.Products, err = fetchList(ctx, c, "/products", "products", product); err != nil {
		return nil, fmt.Errorf("fetching products: %w", err)
	}

	c.log.Info().
		Int("techs", len(ref.Techs)).
		Int("issue_types", len(ref.IssueTypes)).
		Int("customers", len(ref.Customers)).
		Int("contacts", len(ref.Contacts)).
		Int("statuses", len(ref.Statuses)).
		Int("products", len(ref.Products)).
		Msg("fetched reference data")
	return ref, nil
}

func fetchList[T any](ctx context.Context, c *Client, path, key string, conv func(object) T) ([]T, error) {
	items, err := c.getAll(ctx, path, key, nil)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for _, raw := range items {
		o, err := decodeObject(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding %s record: %w", key, err)
		}
		out = append(out, conv(o))
	}
	return out, nil
}
