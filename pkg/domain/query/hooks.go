package query

import (
	"context"

	"github.com/napryag/salon_bot/pkg/api"
	"github.com/napryag/salon_bot/pkg/repository/model"
)

// Update carries the id and body of an update call.
type Update[T any] struct {
	ID   string
	Body T
}

type StatusChange struct {
	ID     string
	Status string
}

// Empty is the result of calls that return nothing.
type Empty struct{}

type ReviewPageParams struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func deleter(fn func(ctx context.Context, id string) error) func(context.Context, string) (Empty, error) {
	return func(ctx context.Context, id string) (Empty, error) {
		return Empty{}, fn(ctx, id)
	}
}

func updater[T any](fn func(ctx context.Context, id string, body T) (T, error)) func(context.Context, Update[T]) (T, error) {
	return func(ctx context.Context, u Update[T]) (T, error) {
		return fn(ctx, u.ID, u.Body)
	}
}

func NewServicesQuery(r api.Resources) *Query[struct{}, []model.Service] {
	return NewQuery(func(ctx context.Context, _ struct{}) ([]model.Service, error) {
		return r.Services.List(ctx)
	})
}

func NewPublicServicesQuery(r api.Resources) *Query[struct{}, []model.Service] {
	return NewQuery(func(ctx context.Context, _ struct{}) ([]model.Service, error) {
		return r.Services.ListPublic(ctx)
	})
}

func NewBookingsQuery(r api.Resources) *Query[api.BookingListParams, []model.Booking] {
	return NewQuery(r.Bookings.List)
}

func NewOffersQuery(r api.Resources) *Query[struct{}, []model.Offer] {
	return NewQuery(func(ctx context.Context, _ struct{}) ([]model.Offer, error) {
		return r.Offers.List(ctx)
	})
}

func NewReviewsQuery(r api.Resources) *Query[ReviewPageParams, api.ReviewPage] {
	return NewQuery(func(ctx context.Context, p ReviewPageParams) (api.ReviewPage, error) {
		return r.Reviews.List(ctx, p.Page, p.Limit)
	})
}

func NewReviewStatsQuery(r api.Resources) *Query[struct{}, model.ReviewStats] {
	return NewQuery(func(ctx context.Context, _ struct{}) (model.ReviewStats, error) {
		return r.Reviews.Stats(ctx)
	})
}

func NewUsersQuery(r api.Resources) *Query[api.UserListParams, []model.Customer] {
	return NewQuery(r.Users.List)
}

func NewDashboardStatsQuery(r api.Resources) *Query[struct{}, model.DashboardStats] {
	return NewQuery(func(ctx context.Context, _ struct{}) (model.DashboardStats, error) {
		return r.Dashboard.Stats(ctx)
	})
}

func NewRecentBookingsQuery(r api.Resources) *Query[int, []model.Booking] {
	return NewQuery(r.Dashboard.RecentBookings)
}

func NewRecentReviewsQuery(r api.Resources) *Query[int, []model.Review] {
	return NewQuery(r.Dashboard.RecentReviews)
}

type ServiceMutations struct {
	Create *Mutation[model.Service, model.Service]
	Update *Mutation[Update[model.Service], model.Service]
	Delete *Mutation[string, Empty]
}

func NewServiceMutations(r api.Resources) ServiceMutations {
	return ServiceMutations{
		Create: NewMutation(r.Services.Create),
		Update: NewMutation(updater(r.Services.Update)),
		Delete: NewMutation(deleter(r.Services.Delete)),
	}
}

type BookingMutations struct {
	BookAppointment *Mutation[model.Booking, model.Booking]
	Delete          *Mutation[string, Empty]
	UpdateStatus    *Mutation[StatusChange, model.Booking]
}

func NewBookingMutations(r api.Resources) BookingMutations {
	return BookingMutations{
		BookAppointment: NewMutation(r.Bookings.BookAppointment),
		Delete:          NewMutation(deleter(r.Bookings.Delete)),
		UpdateStatus: NewMutation(func(ctx context.Context, s StatusChange) (model.Booking, error) {
			return r.Bookings.UpdateStatus(ctx, s.ID, s.Status)
		}),
	}
}

type OfferMutations struct {
	Create *Mutation[model.Offer, model.Offer]
	Update *Mutation[Update[model.Offer], model.Offer]
	Delete *Mutation[string, Empty]
}

func NewOfferMutations(r api.Resources) OfferMutations {
	return OfferMutations{
		Create: NewMutation(r.Offers.Create),
		Update: NewMutation(updater(r.Offers.Update)),
		Delete: NewMutation(deleter(r.Offers.Delete)),
	}
}

type ReviewMutations struct {
	Submit  *Mutation[api.ReviewSubmission, model.Review]
	Delete  *Mutation[string, Empty]
	Approve *Mutation[string, model.Review]
}

func NewReviewMutations(r api.Resources) ReviewMutations {
	return ReviewMutations{
		Submit:  NewMutation(r.Reviews.Submit),
		Delete:  NewMutation(deleter(r.Reviews.Delete)),
		Approve: NewMutation(r.Reviews.Approve),
	}
}

// UserMutations only deletes: customers are aggregates the backend builds
// from bookings.
type UserMutations struct {
	Delete *Mutation[string, Empty]
}

func NewUserMutations(r api.Resources) UserMutations {
	return UserMutations{
		Delete: NewMutation(deleter(r.Users.Delete)),
	}
}
