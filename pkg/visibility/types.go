package visibility

import "time"

// ViewType is the coarse policy governing which engineers a business
// partner may see, absent NG exclusions.
type ViewType string

const (
	ViewTypeAll     ViewType = "all"
	ViewTypeWaiting ViewType = "waiting"
	ViewTypeCustom  ViewType = "custom"
)

// DefaultViewType applies when a partner has no visibility setting yet:
// the narrowest non-custom mode, not "all".
const DefaultViewType = ViewTypeWaiting

// ValidViewType reports whether v is one of the closed set of view types.
func ValidViewType(v ViewType) bool {
	switch v {
	case ViewTypeAll, ViewTypeWaiting, ViewTypeCustom:
		return true
	}
	return false
}

// Availability enumerates how soon an engineer can start an engagement.
type Availability string

const (
	AvailabilityImmediate     Availability = "immediate"
	AvailabilityWithinMonth   Availability = "within_month"
	AvailabilityWithin3Months Availability = "within_3months"
	AvailabilityAdjustable    Availability = "adjustable"
	AvailabilityUnavailable   Availability = "unavailable"
)

// WaitingAvailabilities is the canonical "waiting" set. It is the single
// source for both the waiting view mode and the "available" bucket of
// the availability filter, so the two call sites cannot drift apart.
func WaitingAvailabilities() []Availability {
	return []Availability{
		AvailabilityImmediate,
		AvailabilityWithinMonth,
		AvailabilityWithin3Months,
	}
}

// AvailabilityBucket is the coarse availability filter exposed to
// listing callers. It narrows whatever the view mode already selected;
// it never replaces it.
type AvailabilityBucket string

const (
	BucketAll       AvailabilityBucket = "all"
	BucketAvailable AvailabilityBucket = "available"
	BucketPending   AvailabilityBucket = "pending"
)

// Availabilities returns the availability values the bucket selects.
// A nil result means no restriction.
func (b AvailabilityBucket) Availabilities() []Availability {
	switch b {
	case BucketAvailable:
		return WaitingAvailabilities()
	case BucketPending:
		return []Availability{AvailabilityAdjustable}
	default:
		return nil
	}
}

// VisibilitySetting holds the active view mode for a partner. At most
// one row exists per partner; ShowWaitingOnly is kept redundantly in
// sync with ViewType for fast filtering.
type VisibilitySetting struct {
	ID              int64     `json:"id"`
	PartnerID       int64     `json:"business_partner_id"`
	ViewType        ViewType  `json:"view_type"`
	ShowWaitingOnly bool      `json:"show_waiting_only"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// EngineerPermission is an allow-list entry, meaningful only when the
// partner's view type is custom. Entries are replaced wholesale, never
// diffed.
type EngineerPermission struct {
	ID         int64     `json:"id"`
	PartnerID  int64     `json:"business_partner_id"`
	EngineerID int64     `json:"engineer_id"`
	IsAllowed  bool      `json:"is_allowed"`
	CreatedAt  time.Time `json:"created_at"`
}

// NgListEntry blocks an engineer from a partner absolutely, overriding
// any view mode or allow-list inclusion.
type NgListEntry struct {
	ID         int64     `json:"id"`
	PartnerID  int64     `json:"business_partner_id"`
	EngineerID int64     `json:"engineer_id"`
	Reason     *string   `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Engineer is a tenant-owned worker record. Visibility decisions never
// consider engineers outside the requesting tenant.
type Engineer struct {
	ID           int64        `json:"id"`
	TenantID     int64        `json:"tenant_id"`
	Name         string       `json:"name"`
	NameKana     string       `json:"name_kana,omitempty"`
	Email        string       `json:"email,omitempty"`
	Availability Availability `json:"availability"`
	Skills       []string     `json:"skills,omitempty"`
	IsActive     bool         `json:"is_active"`
	IsPublic     bool         `json:"is_public"`
	CreatedAt    time.Time    `json:"created_at"`
}

// ListParams are the caller-supplied filters and pagination for a
// visible-engineer listing. Page is 1-based.
type ListParams struct {
	Page               int
	PageSize           int
	Search             string
	Skills             []string
	AvailabilityFilter AvailabilityBucket
}

// Pagination bounds.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// normalize clamps pagination to sane bounds.
func (p ListParams) normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}
