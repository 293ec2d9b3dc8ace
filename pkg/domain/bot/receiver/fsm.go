package receiver

import (
	"strings"
	"sync"

	"github.com/napryag/salon_bot/pkg/api"
	"github.com/napryag/salon_bot/pkg/repository/model"
)

// ---------- FSM ----------

type State int

const (
	StateStart State = iota
	StateMain
	StateServices
	StateCart
	StateBookName
	StateBookPhone
	StateBookDate
	StateBookTime
	StateBookConfirm
	StateReviewName
	StateReviewPhone
	StateReviewRating
	StateReviewText
	StateReviewPhoto
	StateReviewConfirm
	StateHelp
	StateLogin
	StateAdmin
	StateAdminDashboard
	StateAdminBookings
	StateAdminReviews
	StateAdminOffers
	StateAdminUsers
	StateAdminServices
	StateBookingSearch
	StateServiceName
	StateServiceDesc
	StateServicePrice
	StateServiceCategory
	StateServiceType
	StateServiceConfirm
	StateOfferName
	StateOfferStart
	StateOfferEnd
	StateOfferLimit
	StateOfferConfirm
)

// AdminOnly reports states that need an authenticated session.
func (s State) AdminOnly() bool {
	return s >= StateAdmin
}

// TextInput reports states that consume the next free-text message.
func (s State) TextInput() bool {
	switch s {
	case StateBookName, StateBookPhone, StateReviewName, StateReviewPhone, StateReviewText,
		StateBookingSearch, StateServiceName, StateServiceDesc, StateServicePrice, StateServiceType,
		StateOfferName, StateOfferStart, StateOfferEnd, StateOfferLimit:
		return true
	}
	return false
}

type BookingForm struct {
	Name  string
	Phone string
	Date  string // DD-MM-YYYY
	Time  string // 10:30 AM
}

type ReviewForm struct {
	Name   string
	Phone  string
	Rating int
	Text   string
	Photo  *api.Photo
}

// Session is the dialog state of one chat. Login state and the cart live in
// the chat's workspace, not here.
type Session struct {
	State   State
	history []State
	Booking BookingForm
	Review  ReviewForm

	Category      string // "", "men", "women"
	DatePage      int
	ReviewPage    int
	BookingFilter string // "", "today", "upcoming", "completed"
	BookingSearch string // name, phone or confirmation code
	ReviewFilter  string // "", "approved", "pending"
	ServiceFilter string // "", "men", "women"

	// Drafts of the admin forms; an empty ID means create.
	ServiceDraft model.Service
	OfferDraft   model.Offer

	// Notice is shown once above the next rendered screen.
	Notice string
}

func (s *Session) Go(to State) {
	if s.State == to {
		return
	}
	s.history = append(s.history, s.State)
	s.State = to
}

func (s *Session) Back() {
	if n := len(s.history); n > 0 {
		s.State = s.history[n-1]
		s.history = s.history[:n-1]
	} else {
		s.State = StateMain
	}
}

// ResetFlow returns to the main menu and forgets half-filled forms.
func (s *Session) ResetFlow() {
	s.State = StateMain
	s.history = s.history[:0]
	s.Booking = BookingForm{}
	s.Review = ReviewForm{}
	s.DatePage = 0
	s.ServiceDraft = model.Service{}
	s.OfferDraft = model.Offer{}
}

// Jump replaces the whole history with a single target, used for redirects.
func (s *Session) Jump(to State) {
	s.history = s.history[:0]
	s.State = to
}

// TakeNotice returns and clears the pending notice.
func (s *Session) TakeNotice() string {
	n := s.Notice
	s.Notice = ""
	return n
}

// ---------- Session store (in-memory, thread-safe) ----------

type Store struct {
	mu sync.RWMutex
	m  map[int64]*Session
}

func NewStore() *Store {
	return &Store{m: make(map[int64]*Session)}
}

func (s *Store) Get(chatID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.m[chatID]; ok {
		return sess
	}
	se := &Session{State: StateStart}
	s.m[chatID] = se
	return se
}

// ---------- Callback keys ----------

const (
	CbStart    = "start"
	CbMain     = "main"
	CbServices = "services"
	CbCart     = "cart"
	CbClear    = "clear"
	CbBook     = "book"
	CbReview   = "review"
	CbHelp     = "help"
	CbBack     = "back"
	CbOk       = "confirm"
	CbSkip     = "skip"

	CbAdmin     = "admin"
	CbDashboard = "a:dash"
	CbBookings  = "a:bookings"
	CbReviews   = "a:reviews"
	CbOffers    = "a:offers"
	CbUsers     = "a:users"
	CbLogout    = "a:logout"
	CbAdminSvc  = "a:services"
	CbSvcNew    = "a:svcnew"
	CbOfferNew  = "a:offernew"
	CbBSearch   = "a:bsearch"
	CbBSClear   = "a:bsclear"
	CbKeep      = "a:keep"

	PCat      = "cat:"  // cat:men
	PAdd      = "add:"  // add:<service id>
	PRm       = "rm:"   // rm:<service id>
	PD        = "d:"    // d:20-08-2025
	PDPage    = "dp:"   // dp:1
	PT        = "t:"    // t:10:30 AM
	PRate     = "r:"    // r:5
	PBFilter  = "bf:"   // bf:today
	PBDel     = "bdel:" // bdel:<booking id>
	PRPage    = "rp:"   // rp:2
	PRApprove = "rok:"  // rok:<review id>
	PRDel     = "rdel:" // rdel:<review id>
	POToggle  = "ot:"   // ot:<offer id>
	PODel     = "odel:" // odel:<offer id>
	POEdit    = "oe:"   // oe:<offer id>
	PBDone    = "bd:"   // bd:<booking id>
	PRFilter  = "rf:"   // rf:pending
	PSFilter  = "sf:"   // sf:women
	PSEdit    = "se:"   // se:<service id>
	PSDel     = "sdel:" // sdel:<service id>
	PSCat     = "sc:"   // sc:men, category of the service draft
	PUDel     = "udel:" // udel:<customer id>
)

func Is(k, prefix string) (string, bool) {
	if strings.HasPrefix(k, prefix) {
		return strings.TrimPrefix(k, prefix), true
	}
	return "", false
}
