package core

// Identity is the resolved caller of a turn. Every store operation carries
// the TeamID; team isolation is enforced at the data layer, not by locking.
type Identity struct {
	UserID      string `json:"user_id"`
	TeamID      string `json:"team_id"`
	DisplayName string `json:"display_name,omitempty"`
}
