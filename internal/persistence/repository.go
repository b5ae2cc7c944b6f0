package persistence

import "trading-dashboard-go/internal/models"

// StateRepository defines the interface for dashboard state persistence.
// It abstracts the underlying storage mechanism (e.g., BadgerDB, in-memory)
// from the rest of the application.
type StateRepository interface {
	// SaveState atomically replaces the stored dashboard state.
	SaveState(state *models.DashboardState) error

	// LoadState loads the dashboard state from storage.
	// If no state is found, it should return (nil, nil).
	LoadState() (*models.DashboardState, error)

	// Close gracefully closes the connection to the database.
	Close() error
}
