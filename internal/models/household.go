package models

import (
	"fmt"
	"strings"
	"time"
)

// KeyPrefix is the reserved store namespace for household records.
const KeyPrefix = "family:"

// PendingSyncKey is a marker key the form UI polls to show that unsynced
// work is queued. Set on commit, cleared after a clean drain.
const PendingSyncKey = "sync:pending"

// Member represents one enumerated person inside a household.
type Member struct {
	ID           string `json:"id"`
	DoorNo       string `json:"newDoorNo"` // shared across the household, frozen from the head
	OldDoorNo    string `json:"oldDoorNo"`
	PortionNo    string `json:"portionNo"`
	Name         string `json:"name"`         // required, stored uppercase
	Relationship string `json:"relationship"` // F, H, O or empty
	RelativeName string `json:"relativeName"`
	Gender       string `json:"gender"` // M, F, O or empty
	Age          string `json:"age"`
	DOB          string `json:"dob"` // DD/MM/YYYY or empty
	VoterID      string `json:"voterId"`
	Timestamp    string `json:"timestamp"` // RFC 3339 creation time
}

// Household is the unit of persistence: one family and its members.
// Immutable after commit except for the Synced flag.
type Household struct {
	ID         string   `json:"id"` // store key, family:<ms>-<suffix>
	DoorNo     string   `json:"doorNo"`
	FamilyHead string   `json:"familyHead"` // name of the first-added member
	Members    []Member `json:"members"`    // add order; index 0 is the head
	CreatedAt  string   `json:"createdAt"`  // RFC 3339
	Enumerator string   `json:"enumerator,omitempty"`
	Synced     bool     `json:"synced"`
}

// Relationship codes accepted on a member.
var RelationshipCodes = []string{"F", "H", "O"}

// Gender codes accepted on a member.
var GenderCodes = []string{"M", "F", "O"}

// EnumerationStats holds the headline counters for the dashboard.
type EnumerationStats struct {
	FamilyCount int `json:"family_count"`
	PersonCount int `json:"person_count"`
}

// SyncRow is one flattened member row in the batch pushed to the
// collection endpoint. Household-level fields are repeated on every row.
type SyncRow struct {
	FamilyID     string `json:"familyId"`
	DoorNo       string `json:"doorNo"`
	OldDoorNo    string `json:"oldDoorNo"`
	PortionNo    string `json:"portionNo"`
	FamilyHead   string `json:"familyHead"`
	MemberName   string `json:"memberName"`
	Relationship string `json:"relationship"`
	RelativeName string `json:"relativeName"`
	Gender       string `json:"gender"`
	Age          string `json:"age"`
	DOB          string `json:"dob"`
	VoterID      string `json:"voterId"`
	Enumerator   string `json:"enumerator"`
	CreatedAt    string `json:"createdAt"`
}

// SyncBatch is the payload of one drain cycle.
type SyncBatch struct {
	Rows []SyncRow `json:"rows"`
}

// Rows flattens the household into one SyncRow per member.
func (h *Household) Rows() []SyncRow {
	rows := make([]SyncRow, 0, len(h.Members))
	for _, m := range h.Members {
		rows = append(rows, SyncRow{
			FamilyID:     h.ID,
			DoorNo:       m.DoorNo,
			OldDoorNo:    m.OldDoorNo,
			PortionNo:    m.PortionNo,
			FamilyHead:   h.FamilyHead,
			MemberName:   m.Name,
			Relationship: m.Relationship,
			RelativeName: m.RelativeName,
			Gender:       m.Gender,
			Age:          m.Age,
			DOB:          m.DOB,
			VoterID:      m.VoterID,
			Enumerator:   h.Enumerator,
			CreatedAt:    h.CreatedAt,
		})
	}
	return rows
}

// FormatDOB renders day/month/year as zero-padded DD/MM/YYYY. A partial
// date never renders: any missing component yields "".
func FormatDOB(day, month, year string) string {
	if day == "" || month == "" || year == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s", padLeft(day, 2), padLeft(month, 2), year)
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

// Timestamp formats t the way records store times.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
