package domain

// AppState is the global UI state used to block concurrent user actions.
type AppState string

const (
	// AppStateIdle means no transaction is in flight.
	AppStateIdle AppState = "idle"
	// AppStateBusy means a user initiated transaction is in flight.
	AppStateBusy AppState = "busy"
)
