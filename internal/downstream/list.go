package downstream

import (
	"bytes"
	"context"
	"encoding/json"
)

// listOf decodes either a bare JSON array or an object wrapping one under a
// well-known key. Different shop API endpoints do both.
type listOf[T any] []T

var listKeys = []string{"data", "items", "products", "categories", "orders", "users", "notifications", "wishlist", "cart"}

func (l *listOf[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*l = listOf[T]{}
		return nil
	}
	if b[0] == '[' {
		var items []T
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(b, &wrapper); err != nil {
		return err
	}
	for _, k := range listKeys {
		raw, ok := wrapper[k]
		if !ok {
			continue
		}
		var inner listOf[T]
		if err := json.Unmarshal(raw, &inner); err != nil {
			return err
		}
		*l = inner
		return nil
	}
	*l = listOf[T]{}
	return nil
}

func getList[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	l, err := getJSON[listOf[T]](ctx, c, path)
	if err != nil {
		return []T{}, err
	}
	if l == nil {
		return []T{}, nil
	}
	return []T(l), nil
}
