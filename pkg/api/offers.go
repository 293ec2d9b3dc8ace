package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/napryag/salon_bot/pkg/repository/model"
)

type Offers struct{ c *Client }

func (o Offers) List(ctx context.Context) ([]model.Offer, error) {
	var raw json.RawMessage
	if err := o.c.get(ctx, pathOffers, nil, &raw); err != nil {
		return nil, err
	}
	return wrapDecode(decodeList[model.Offer](raw, "offers"))
}

func (o Offers) Get(ctx context.Context, id string) (model.Offer, error) {
	return getItem[model.Offer](ctx, o.c, itemPath(pathOffers, id), "offer")
}

func (o Offers) Create(ctx context.Context, in model.Offer) (model.Offer, error) {
	return sendItem[model.Offer](ctx, o.c, request{method: http.MethodPost, path: pathOffers, body: in}, "offer")
}

func (o Offers) Update(ctx context.Context, id string, in model.Offer) (model.Offer, error) {
	return sendItem[model.Offer](ctx, o.c, request{method: http.MethodPut, path: itemPath(pathOffers, id), body: in}, "offer")
}

func (o Offers) Delete(ctx context.Context, id string) error {
	return o.c.delete(ctx, itemPath(pathOffers, id), nil)
}
