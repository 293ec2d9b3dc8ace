package model

import "time"

type Category string

const (
	CategoryMen   Category = "men"
	CategoryWomen Category = "women"
)

type OfferStatus string

const (
	OfferActive   OfferStatus = "Active"
	OfferInactive OfferStatus = "Inactive"
)

// Service is a salon service as the backend returns it. Price is a pointer
// because older records come back without one.
type Service struct {
	ID           string   `json:"_id,omitempty"`
	Name         string   `json:"serviceName"`
	Description  string   `json:"serviceDescription,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	Category     Category `json:"category,omitempty"`
	ServiceType  string   `json:"serviceType,omitempty"`
	Img          string   `json:"img,omitempty"`
	BookingCount int      `json:"bookingCount,omitempty"`
}

// PriceOrZero never panics on a missing price.
func (s Service) PriceOrZero() float64 {
	if s.Price == nil {
		return 0
	}
	return *s.Price
}

type LineItem struct {
	ServiceName  string  `json:"serviceName"`
	ServicePrice float64 `json:"servicePrice"`
	ServiceImg   string  `json:"serviceImg,omitempty"`
}

// Booking dates are "DD-MM-YYYY" and times are free text such as "10:30 AM".
// The phone number is the customer identity.
type Booking struct {
	ID               string     `json:"_id,omitempty"`
	Name             string     `json:"name"`
	PhoneNumber      string     `json:"phoneNumber"`
	Services         []LineItem `json:"service"`
	Date             string     `json:"date"`
	Time             string     `json:"time"`
	ConfirmationCode string     `json:"confirmationCode,omitempty"`
	ReminderSent     bool       `json:"reminderMessageSend,omitempty"`
	// Status is set by an admin; empty means derive it from Date.
	Status           string     `json:"status,omitempty"`
}

func (b Booking) Total() float64 {
	var total float64
	for _, it := range b.Services {
		total += it.ServicePrice
	}
	return total
}

type Offer struct {
	ID         string      `json:"_id,omitempty"`
	Name       string      `json:"offerName"`
	Img        string      `json:"offerImg,omitempty"`
	StartDate  string      `json:"startDate"`
	EndDate    string      `json:"endDate"`
	UsageLimit int         `json:"usageLimit,omitempty"`
	Status     OfferStatus `json:"status"`
}

type Review struct {
	ID          string     `json:"_id,omitempty"`
	Name        string     `json:"name"`
	PhoneNumber string     `json:"phoneNumber"`
	Text        string     `json:"review"`
	Rating      int        `json:"rating"`
	Photo       string     `json:"photo,omitempty"`
	Approved    bool       `json:"isApproved"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
}

type ReviewStats struct {
	TotalReviews       int            `json:"totalReviews"`
	ApprovedReviews    int            `json:"approvedReviews"`
	PendingReviews     int            `json:"pendingReviews"`
	AverageRating      float64        `json:"averageRating"`
	RatingDistribution []RatingBucket `json:"ratingDistribution,omitempty"`
}

type RatingBucket struct {
	Rating int `json:"_id"`
	Count  int `json:"count"`
}

// Customer is the read-only aggregate the backend builds from bookings.
type Customer struct {
	ID              string  `json:"_id,omitempty"`
	Name            string  `json:"name"`
	PhoneNumber     string  `json:"phoneNumber"`
	TotalBookings   int     `json:"totalBookings"`
	TotalSpent      float64 `json:"totalSpent"`
	LastVisit       string  `json:"lastVisit,omitempty"`
	FavoriteService string  `json:"favoriteService,omitempty"`
	AverageRating   float64 `json:"averageRating,omitempty"`
}

type DashboardStats struct {
	TotalBookings int `json:"totalBookings"`
	TotalServices int `json:"totalServices"`
	TotalUsers    int `json:"totalUsers"`
	TotalReviews  int `json:"totalReviews,omitempty"`
}

// CartItem is the slice of a Service kept in the cart.
type CartItem struct {
	ID          string   `json:"_id"`
	Name        string   `json:"serviceName"`
	Description string   `json:"serviceDescription,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Img         string   `json:"img,omitempty"`
	Category    Category `json:"category,omitempty"`
	ServiceType string   `json:"serviceType,omitempty"`
}

func CartItemFrom(s Service) CartItem {
	return CartItem{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Price:       s.Price,
		Img:         s.Img,
		Category:    s.Category,
		ServiceType: s.ServiceType,
	}
}

func (c CartItem) LineItem() LineItem {
	li := LineItem{ServiceName: c.Name, ServiceImg: c.Img}
	if c.Price != nil {
		li.ServicePrice = *c.Price
	}
	return li
}
