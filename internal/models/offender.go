package models

// OffenderSummary is the part of the offender search document needed for access checks
// and event payloads.
type OffenderSummary struct {
	Crn                string   `json:"crn"`
	NomsNumber         *string  `json:"nomsNumber,omitempty"`
	FirstName          string   `json:"firstName"`
	Surname            string   `json:"surname"`
	CurrentRestriction bool     `json:"currentRestriction"`
	CurrentExclusion   bool     `json:"currentExclusion"`
	RestrictedTo       []string `json:"restrictedTo,omitempty"`
	ExcludedUsers      []string `json:"excludedUsers,omitempty"`
}

// CanBeAccessedBy applies the limited access offender rules: excluded users are
// refused and, under a restriction, only the listed users are allowed.
func (o *OffenderSummary) CanBeAccessedBy(username string) bool {
	if o.CurrentExclusion && containsUser(o.ExcludedUsers, username) {
		return false
	}
	if o.CurrentRestriction && !containsUser(o.RestrictedTo, username) {
		return false
	}
	return true
}

func (o *OffenderSummary) IsLAO() bool {
	return o.CurrentRestriction || o.CurrentExclusion
}

func containsUser(users []string, username string) bool {
	for _, u := range users {
		if u == username {
			return true
		}
	}
	return false
}

type OffenderLookupStatus string

const (
	OffenderFound        OffenderLookupStatus = "FOUND"
	OffenderNotFound     OffenderLookupStatus = "NOT_FOUND"
	OffenderUnauthorised OffenderLookupStatus = "UNAUTHORISED"
)

type OffenderResult struct {
	Status   OffenderLookupStatus
	Offender *OffenderSummary
}
