package quarry

// Host is the boundary to the host's quarry update client. Response types
// carry only what the coordination layer consumes; quarry owns the wave
// math and content verification.
type Host interface {
	Status() (*statusResponse, error)
	ListAvailable() (*listAvailableResponse, error)
	PrepareUpdate(id UpdateID) (*prepareUpdateResponse, error)
	ApplyUpdate(id UpdateID) (*applyUpdateResponse, error)
	BootUpdate(id UpdateID, rebootNow bool) (*bootUpdateResponse, error)
}

// UpdateID is quarry's opaque identifier for a distinct update.
type UpdateID = string

type statusResponse struct {
	HostHealthy bool
}

func (s *statusResponse) OK() bool {
	return s.HostHealthy
}

type availableUpdate struct {
	ID UpdateID
}

func (u *availableUpdate) Identifier() interface{} {
	return u.ID
}

type listAvailableResponse struct {
	ReportedUpdates []*availableUpdate
}

type prepareUpdateResponse struct {
	ID UpdateID
}

type applyUpdateResponse struct{}

type bootUpdateResponse struct{}
