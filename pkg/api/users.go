package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/napryag/salon_bot/pkg/repository/model"
)

type UserListParams struct {
	Search string `json:"search,omitempty"`
	SortBy string `json:"sortBy,omitempty"`
}

type Users struct{ c *Client }

func (u Users) List(ctx context.Context, p UserListParams) ([]model.Customer, error) {
	var raw json.RawMessage
	q := listParams(map[string]string{"search": p.Search, "sortBy": p.SortBy})
	if err := u.c.get(ctx, pathUsers, q, &raw); err != nil {
		return nil, err
	}
	return wrapDecode(decodeList[model.Customer](raw, "users"))
}

func (u Users) Create(ctx context.Context, in model.Customer) (model.Customer, error) {
	return sendItem[model.Customer](ctx, u.c, request{method: http.MethodPost, path: pathUsers, body: in}, "user")
}

func (u Users) Update(ctx context.Context, id string, in model.Customer) (model.Customer, error) {
	return sendItem[model.Customer](ctx, u.c, request{method: http.MethodPut, path: itemPath(pathUsers, id), body: in}, "user")
}

func (u Users) Delete(ctx context.Context, id string) error {
	return u.c.delete(ctx, itemPath(pathUsers, id), nil)
}
