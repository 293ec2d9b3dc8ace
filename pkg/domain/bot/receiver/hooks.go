package receiver

import (
	"strconv"

	"github.com/napryag/salon_bot/pkg/api"
	"github.com/napryag/salon_bot/pkg/domain/query"
	"github.com/napryag/salon_bot/pkg/repository/model"
)

type none = struct{}

// hooks are the queries and mutations one chat's screens read through.
type hooks struct {
	// fresh forces the next rendered screen to refetch.
	fresh bool

	services      *query.Query[none, []model.Service]
	adminServices *query.Query[none, []model.Service]
	bookings      *query.Query[api.BookingListParams, []model.Booking]
	offers        *query.Query[none, []model.Offer]
	reviews       *query.Query[query.ReviewPageParams, api.ReviewPage]
	reviewStats   *query.Query[none, model.ReviewStats]
	users         *query.Query[api.UserListParams, []model.Customer]
	stats         *query.Query[none, model.DashboardStats]
	recent        *query.Query[int, []model.Booking]
	recentReviews *query.Query[int, []model.Review]

	bookingMut query.BookingMutations
	reviewMut  query.ReviewMutations
	offerMut   query.OfferMutations
	serviceMut query.ServiceMutations
	userMut    query.UserMutations
}

func newHooks(r api.Resources) *hooks {
	return &hooks{
		services:      query.NewPublicServicesQuery(r),
		adminServices: query.NewServicesQuery(r),
		bookings:      query.NewBookingsQuery(r),
		offers:        query.NewOffersQuery(r),
		reviews:       query.NewReviewsQuery(r),
		reviewStats:   query.NewReviewStatsQuery(r),
		users:         query.NewUsersQuery(r),
		stats:         query.NewDashboardStatsQuery(r),
		recent:        query.NewRecentBookingsQuery(r),
		recentReviews: query.NewRecentReviewsQuery(r),

		bookingMut: query.NewBookingMutations(r),
		reviewMut:  query.NewReviewMutations(r),
		offerMut:   query.NewOfferMutations(r),
		serviceMut: query.NewServiceMutations(r),
		userMut:    query.NewUserMutations(r),
	}
}

func (hk *hooks) close() {
	hk.services.Close()
	hk.adminServices.Close()
	hk.bookings.Close()
	hk.offers.Close()
	hk.reviews.Close()
	hk.reviewStats.Close()
	hk.users.Close()
	hk.stats.Close()
	hk.recent.Close()
	hk.recentReviews.Close()
}

// takeFresh reports and clears the refetch flag.
func (hk *hooks) takeFresh() bool {
	f := hk.fresh
	hk.fresh = false
	return f
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
