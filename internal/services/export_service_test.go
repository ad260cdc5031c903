package services_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"census-backend/internal/repositories"
	"census-backend/internal/services"
)

func TestWriteCSVQuotesEveryField(t *testing.T) {
	f := newSyncFixture(t, &fakePusher{})

	draft := f.repo.NewDraft()
	_, err := f.repo.AddMember(draft, repositories.MemberInput{
		DoorNo: "12", Name: "JOHN DOE", Age: "40",
		DOBDay: "5", DOBMonth: "3", DOBYear: "1990",
	})
	require.NoError(t, err)
	_, err = f.repo.AddMember(draft, repositories.MemberInput{
		Name: "JANE DOE", Relationship: "O", Gender: "F", Age: "38",
	})
	require.NoError(t, err)
	_, err = f.repo.Commit(draft, "AGENT 7")
	require.NoError(t, err)

	var sb strings.Builder
	export := services.NewExportService(f.repo)
	require.NoError(t, export.WriteCSV(&sb))

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	require.Len(t, lines, 3) // header + one row per member

	assert.Equal(t,
		`"Family ID","Door No","Old Door","Portion","Family Head","Name","Relation","Relative","Gender","Age","DOB","Voter ID","Enumerator","Date"`,
		lines[0])

	for _, line := range lines[1:] {
		fields := strings.Split(line, ",")
		assert.Len(t, fields, 14)
		for _, field := range fields {
			assert.True(t, strings.HasPrefix(field, `"`) && strings.HasSuffix(field, `"`),
				"field %s is not quoted", field)
		}
	}

	assert.Contains(t, lines[1], `"JOHN DOE"`)
	assert.Contains(t, lines[1], `"05/03/1990"`)
	assert.Contains(t, lines[2], `"JANE DOE"`)
	assert.Contains(t, lines[2], `"AGENT 7"`)
}

func TestWriteCSVEmptyStoreWritesHeaderOnly(t *testing.T) {
	f := newSyncFixture(t, &fakePusher{})

	var sb strings.Builder
	export := services.NewExportService(f.repo)
	require.NoError(t, export.WriteCSV(&sb))

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	assert.Len(t, lines, 1)
}
