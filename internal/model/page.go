package model

const (
	// DefaultPageLimit applies when a list request omits limit
	DefaultPageLimit = 100
	// MaxPageLimit bounds every list request to prevent unbounded scans
	MaxPageLimit = 1000
)

// PageRequest is the windowing contract shared by every list operation
type PageRequest struct {
	Offset int `form:"offset" json:"offset" validate:"omitempty,min=0"`
	Limit  int `form:"limit" json:"limit" validate:"omitempty,min=1,max=1000"`
}

// ApplyDefaults applies default values to the PageRequest
func (p *PageRequest) ApplyDefaults() {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
}

// NextOffset returns the offset of the following page, or nil when the
// returned slice reaches the end of the matching set. Total is recomputed per
// call, so pages walked under concurrent mutation may disagree with it; that
// is the accepted trade-off of offset pagination.
func NextOffset(offset, returned int, total int64) *int {
	if returned == 0 {
		return nil
	}
	next := offset + returned
	if int64(next) >= total {
		return nil
	}
	return &next
}
