package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/napryag/salon_bot/pkg/repository/model"
)

type Services struct{ c *Client }

func (s Services) List(ctx context.Context) ([]model.Service, error) {
	return s.list(ctx, pathServices)
}

// ListPublic is the anonymous catalogue used by the customer screens.
func (s Services) ListPublic(ctx context.Context) ([]model.Service, error) {
	return s.list(ctx, pathPublicServices)
}

func (s Services) list(ctx context.Context, path string) ([]model.Service, error) {
	var raw json.RawMessage
	if err := s.c.get(ctx, path, nil, &raw); err != nil {
		return nil, err
	}
	return wrapDecode(decodeList[model.Service](raw, "services"))
}

func (s Services) Get(ctx context.Context, id string) (model.Service, error) {
	return getItem[model.Service](ctx, s.c, itemPath(pathServices, id), "service")
}

func (s Services) Create(ctx context.Context, in model.Service) (model.Service, error) {
	return sendItem[model.Service](ctx, s.c, request{method: http.MethodPost, path: pathServices, body: in}, "service")
}

func (s Services) Update(ctx context.Context, id string, in model.Service) (model.Service, error) {
	return sendItem[model.Service](ctx, s.c, request{method: http.MethodPut, path: itemPath(pathServices, id), body: in}, "service")
}

func (s Services) Delete(ctx context.Context, id string) error {
	return s.c.delete(ctx, itemPath(pathServices, id), nil)
}

func getItem[T any](ctx context.Context, c *Client, path, key string) (T, error) {
	var raw json.RawMessage
	if err := c.get(ctx, path, nil, &raw); err != nil {
		var zero T
		return zero, err
	}
	return wrapDecode(decodeItem[T](raw, key))
}

func sendItem[T any](ctx context.Context, c *Client, r request, key string) (T, error) {
	var raw json.RawMessage
	if err := c.do(ctx, r, &raw); err != nil {
		var zero T
		return zero, err
	}
	return wrapDecode(decodeItem[T](raw, key))
}

func wrapDecode[T any](v T, err error) (T, error) {
	if err != nil {
		return v, &Error{Status: 200, Message: "unexpected response body", cause: err}
	}
	return v, nil
}
