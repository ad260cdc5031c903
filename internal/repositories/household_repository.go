package repositories

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"census-backend/internal/faults"
	"census-backend/internal/models"
	"census-backend/internal/store"
)

// MemberInput carries the raw form fields for one person. Door fields are
// only honoured on the first member; later members inherit the
// household's frozen values.
type MemberInput struct {
	DoorNo       string `json:"newDoorNo"`
	OldDoorNo    string `json:"oldDoorNo"`
	PortionNo    string `json:"portionNo"`
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	RelativeName string `json:"relativeName"`
	Gender       string `json:"gender"`
	Age          string `json:"age"`
	DOBDay       string `json:"dobDay"`
	DOBMonth     string `json:"dobMonth"`
	DOBYear      string `json:"dobYear"`
	VoterID      string `json:"voterId"`
}

// Draft is an in-memory household under construction. It belongs to the
// caller until Commit; nothing is persisted before that.
type Draft struct {
	doorNo     string
	oldDoorNo  string
	portionNo  string
	familyHead string
	members    []models.Member
}

// Members returns the draft's members in add order.
func (d *Draft) Members() []models.Member {
	return d.members
}

// FamilyHead returns the head's name, or "" while the draft is empty.
func (d *Draft) FamilyHead() string {
	return d.familyHead
}

// HouseholdRepository owns household identity and lifecycle on top of the
// local store. Members have no persistence outside their household.
type HouseholdRepository struct {
	store store.Store
}

func NewHouseholdRepository(s store.Store) *HouseholdRepository {
	return &HouseholdRepository{store: s}
}

// NewDraft starts an empty household. The head is determined by the
// first AddMember call.
func (r *HouseholdRepository) NewDraft() *Draft {
	return &Draft{}
}

// AddMember validates and appends one person to the draft. The first
// member becomes the family head and freezes the door fields for the
// whole household.
func (r *HouseholdRepository) AddMember(d *Draft, in MemberInput) (models.Member, error) {
	name := strings.ToUpper(strings.TrimSpace(in.Name))
	if name == "" {
		return models.Member{}, faults.Validationf("member name is required")
	}
	if !validCode(in.Relationship, models.RelationshipCodes) {
		return models.Member{}, faults.Validationf("invalid relationship code %q", in.Relationship)
	}
	if !validCode(in.Gender, models.GenderCodes) {
		return models.Member{}, faults.Validationf("invalid gender code %q", in.Gender)
	}

	if len(d.members) == 0 {
		d.doorNo = in.DoorNo
		d.oldDoorNo = in.OldDoorNo
		d.portionNo = in.PortionNo
		d.familyHead = name
	}

	m := models.Member{
		ID:           newMemberID(),
		DoorNo:       d.doorNo,
		OldDoorNo:    d.oldDoorNo,
		PortionNo:    d.portionNo,
		Name:         name,
		Relationship: in.Relationship,
		RelativeName: strings.ToUpper(strings.TrimSpace(in.RelativeName)),
		Gender:       in.Gender,
		Age:          in.Age,
		DOB:          models.FormatDOB(in.DOBDay, in.DOBMonth, in.DOBYear),
		VoterID:      strings.ToUpper(strings.TrimSpace(in.VoterID)),
		Timestamp:    models.Timestamp(time.Now()),
	}
	d.members = append(d.members, m)
	return m, nil
}

// RemoveMember drops a member from the draft. The head (index 0) is
// protected while any other member remains.
func (r *HouseholdRepository) RemoveMember(d *Draft, memberID string) error {
	for i, m := range d.members {
		if m.ID != memberID {
			continue
		}
		if i == 0 && len(d.members) > 1 {
			return faults.Validationf("cannot remove the family head while other members remain")
		}
		d.members = append(d.members[:i], d.members[i+1:]...)
		if len(d.members) == 0 {
			d.familyHead = ""
		}
		return nil
	}
	return faults.Validationf("no draft member with id %s", memberID)
}

// Commit persists the draft as one store record and returns the saved
// household. This is the atomicity boundary: a partial household is
// never visible to the store, and a failed commit writes nothing.
func (r *HouseholdRepository) Commit(d *Draft, enumerator string) (*models.Household, error) {
	if len(d.members) == 0 {
		return nil, faults.Validationf("add at least one family member before saving")
	}

	h := &models.Household{
		ID:         NewHouseholdID(),
		DoorNo:     d.doorNo,
		FamilyHead: d.familyHead,
		Members:    d.members,
		CreatedAt:  models.Timestamp(time.Now()),
		Enumerator: enumerator,
		Synced:     false,
	}

	data, err := json.Marshal(h)
	if err != nil {
		return nil, faults.StorageErr("failed to encode household", err)
	}
	if err := r.store.Put(h.ID, string(data)); err != nil {
		return nil, err
	}
	return h, nil
}

// Get reads one household by id.
func (r *HouseholdRepository) Get(id string) (*models.Household, bool, error) {
	value, found, err := r.store.Get(id)
	if err != nil || !found {
		return nil, false, err
	}
	var h models.Household
	if err := json.Unmarshal([]byte(value), &h); err != nil {
		return nil, false, faults.ParseErr("malformed household record "+id, err)
	}
	return &h, true, nil
}

// ListAll returns every parseable household. A corrupt record is logged
// and skipped so it cannot abort enumeration of the rest.
func (r *HouseholdRepository) ListAll() ([]models.Household, error) {
	keys, err := r.store.ListKeys(models.KeyPrefix)
	if err != nil {
		return nil, err
	}

	households := make([]models.Household, 0, len(keys))
	for _, key := range keys {
		value, found, err := r.store.Get(key)
		if err != nil {
			return nil, err
		}
		if !found {
			continue // deleted between list and get
		}
		var h models.Household
		if err := json.Unmarshal([]byte(value), &h); err != nil {
			log.Printf("[Repository] Skipping malformed record %s: %v", key, err)
			continue
		}
		households = append(households, h)
	}
	return households, nil
}

// ListUnsynced returns households not yet delivered to the collection
// endpoint.
func (r *HouseholdRepository) ListUnsynced() ([]models.Household, error) {
	all, err := r.ListAll()
	if err != nil {
		return nil, err
	}
	unsynced := make([]models.Household, 0)
	for _, h := range all {
		if !h.Synced {
			unsynced = append(unsynced, h)
		}
	}
	return unsynced, nil
}

// MarkSynced flips the synced flag to true. Already-synced and missing
// records are a no-op: the record may have been delivered or deleted by
// a concurrent drain.
func (r *HouseholdRepository) MarkSynced(id string) error {
	value, found, err := r.store.Get(id)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	var h models.Household
	if err := json.Unmarshal([]byte(value), &h); err != nil {
		return faults.ParseErr("malformed household record "+id, err)
	}
	if h.Synced {
		return nil
	}

	h.Synced = true
	data, err := json.Marshal(&h)
	if err != nil {
		return faults.StorageErr("failed to encode household", err)
	}
	return r.store.Put(id, string(data))
}

// NewHouseholdID builds a store key under the family: namespace.
// Zero-padded milliseconds keep keys sortable by creation time; the
// random suffix keeps two commits in the same millisecond distinct.
func NewHouseholdID() string {
	return fmt.Sprintf("%s%013d-%s", models.KeyPrefix, time.Now().UnixMilli(), shortSuffix())
}

func newMemberID() string {
	return fmt.Sprintf("%013d-%s", time.Now().UnixMilli(), shortSuffix())
}

func shortSuffix() string {
	return uuid.NewString()[:8]
}

func validCode(code string, allowed []string) bool {
	if code == "" {
		return true
	}
	for _, c := range allowed {
		if code == c {
			return true
		}
	}
	return false
}
