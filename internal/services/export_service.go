package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"census-backend/internal/repositories"
)

// csvHeader is the fixed column set of the export projection, one row
// per member with household fields repeated.
var csvHeader = []string{
	"Family ID", "Door No", "Old Door", "Portion", "Family Head",
	"Name", "Relation", "Relative", "Gender", "Age", "DOB",
	"Voter ID", "Enumerator", "Date",
}

// ExportService produces the read-only CSV projection of all persisted
// households.
type ExportService struct {
	repo *repositories.HouseholdRepository
}

func NewExportService(repo *repositories.HouseholdRepository) *ExportService {
	return &ExportService{repo: repo}
}

// WriteCSV streams the projection to w. Every field is quoted, embedded
// quotes doubled. Households come out in creation order (the key encodes
// the commit time).
func (s *ExportService) WriteCSV(w io.Writer) error {
	households, err := s.repo.ListAll()
	if err != nil {
		return err
	}
	sort.Slice(households, func(i, j int) bool {
		return households[i].ID < households[j].ID
	})

	if err := writeRow(w, csvHeader); err != nil {
		return err
	}

	for _, h := range households {
		for _, m := range h.Members {
			row := []string{
				h.ID, m.DoorNo, m.OldDoorNo, m.PortionNo, h.FamilyHead,
				m.Name, m.Relationship, m.RelativeName, m.Gender, m.Age, m.DOB,
				m.VoterID, h.Enumerator, h.CreatedAt,
			}
			if err := writeRow(w, row); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeRow(w io.Writer, fields []string) error {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	_, err := fmt.Fprintln(w, strings.Join(quoted, ","))
	return err
}
