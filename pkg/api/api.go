// Package api is the typed access layer over the salon backend. Every
// resource wrapper is a thin pass-through: it validates nothing the backend
// does not, and it returns the backend's error as *Error.
package api

type Resources struct {
	Auth      Auth
	Services  Services
	Bookings  Bookings
	Offers    Offers
	Reviews   Reviews
	Users     Users
	Dashboard Dashboard
}

func NewResources(c *Client) Resources {
	return Resources{
		Auth:      Auth{c: c},
		Services:  Services{c: c},
		Bookings:  Bookings{c: c},
		Offers:    Offers{c: c},
		Reviews:   Reviews{c: c},
		Users:     Users{c: c},
		Dashboard: Dashboard{c: c},
	}
}
