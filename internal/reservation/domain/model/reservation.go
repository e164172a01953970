package model

// Status is a reservation's lifecycle state as reported by the remote API.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
	// StatusAll is a filter value only, never a stored status.
	StatusAll Status = "ALL"
)

// ValidFilter reports whether s can be used as a list filter.
func (s Status) ValidFilter() bool {
	switch s {
	case StatusActive, StatusCancelled, StatusCompleted, StatusAll:
		return true
	}
	return false
}

// TimeSlots are the bookable slots offered by the restaurant.
var TimeSlots = []string{
	"17:00-18:00",
	"18:00-19:00",
	"19:00-20:00",
	"20:00-21:00",
}

// ValidTimeSlot reports whether slot is one of the bookable slots.
func ValidTimeSlot(slot string) bool {
	for _, s := range TimeSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// Reservation is a table reservation record as returned by the remote API.
type Reservation struct {
	ID       string `json:"id"`
	UserID   string `json:"userId,omitempty"`
	Date     string `json:"date"`
	TimeSlot string `json:"timeSlot"`
	Guests   int    `json:"guests"`
	Status   Status `json:"status"`
}

// Page is one page of the admin list-all response.
type Page struct {
	Items []Reservation `json:"data"`
	Page  int           `json:"page"`
	Pages int           `json:"pages"`
}
