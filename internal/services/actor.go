package services

import "seekeradv/internal/models"

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Role   models.UserRole
	Email  string
}

func (a *Actor) IsAdmin() bool {
	return a.Role == models.UserRoleAdmin
}

func (a *Actor) IsHost() bool {
	return a.Role == models.UserRoleHost
}

// canManage reports whether a may act on the booking as owner or admin.
func (a *Actor) canManage(booking *models.Booking) bool {
	return booking.IsOwnedBy(a.UserID) || a.IsAdmin()
}

// canView additionally lets hosts read bookings.
func (a *Actor) canView(booking *models.Booking) bool {
	return a.canManage(booking) || a.IsHost()
}
