package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/napryag/salon_bot/pkg/repository/model"
)

type ReviewPage struct {
	Reviews      []model.Review `json:"reviews"`
	TotalPages   int            `json:"totalPages"`
	TotalReviews int            `json:"totalReviews"`
}

// Photo is an optional picture attached to a public review.
type Photo struct {
	Filename string
	Data     []byte
}

type ReviewSubmission struct {
	Name        string
	PhoneNumber string
	Review      string
	Rating      int
	Photo       *Photo
}

type Reviews struct{ c *Client }

func (r Reviews) List(ctx context.Context, page, limit int) (ReviewPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var raw json.RawMessage
	if err := r.c.get(ctx, pathReviews, q, &raw); err != nil {
		return ReviewPage{}, err
	}
	if len(raw) > 0 && raw[0] == '[' {
		items, err := wrapDecode(decodeList[model.Review](raw, "reviews"))
		return ReviewPage{Reviews: items, TotalPages: 1, TotalReviews: len(items)}, err
	}
	out, err := wrapDecode(decodeItem[ReviewPage](raw, "data"))
	if err != nil {
		return ReviewPage{}, err
	}
	if out.Reviews == nil {
		out.Reviews = []model.Review{}
	}
	if out.TotalPages < 1 {
		out.TotalPages = 1
	}
	return out, nil
}

func (r Reviews) Stats(ctx context.Context) (model.ReviewStats, error) {
	return getItem[model.ReviewStats](ctx, r.c, pathReviewStats, "stats")
}

func (r Reviews) Get(ctx context.Context, id string) (model.Review, error) {
	return getItem[model.Review](ctx, r.c, itemPath(pathReviews, id), "review")
}

// Create is the admin path; it skips the booking check the public one does.
func (r Reviews) Create(ctx context.Context, in model.Review) (model.Review, error) {
	return sendItem[model.Review](ctx, r.c, request{method: http.MethodPost, path: pathReviews, body: in}, "review")
}

// Submit posts a public review as multipart form data. The backend rejects
// it with CUSTOMER_NOT_FOUND or REVIEW_EXISTS.
func (r Reviews) Submit(ctx context.Context, in ReviewSubmission) (model.Review, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"name", in.Name},
		{"phoneNumber", in.PhoneNumber},
		{"review", in.Review},
		{"rating", strconv.Itoa(in.Rating)},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return model.Review{}, transportError(err)
		}
	}
	if in.Photo != nil && len(in.Photo.Data) > 0 {
		name := in.Photo.Filename
		if name == "" {
			name = "photo.jpg"
		}
		part, err := w.CreateFormFile("photo", name)
		if err != nil {
			return model.Review{}, transportError(err)
		}
		if _, err := part.Write(in.Photo.Data); err != nil {
			return model.Review{}, transportError(err)
		}
	}
	if err := w.Close(); err != nil {
		return model.Review{}, transportError(err)
	}

	return sendItem[model.Review](ctx, r.c, request{
		method:      http.MethodPost,
		path:        pathSubmitReview,
		raw:         &buf,
		contentType: w.FormDataContentType(),
	}, "review")
}

func (r Reviews) Update(ctx context.Context, id string, in model.Review) (model.Review, error) {
	return sendItem[model.Review](ctx, r.c, request{method: http.MethodPut, path: itemPath(pathReviews, id), body: in}, "review")
}

func (r Reviews) Delete(ctx context.Context, id string) error {
	return r.c.delete(ctx, itemPath(pathReviews, id), nil)
}

func (r Reviews) Approve(ctx context.Context, id string) (model.Review, error) {
	return sendItem[model.Review](ctx, r.c, request{method: http.MethodPatch, path: reviewApprovePath(id)}, "review")
}
