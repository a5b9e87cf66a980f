package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/esgsynth-cli/internal/table"
)

func TestValidateNormalizesIndustry(t *testing.T) {
	f := Filters{Industry: "  finance", Rows: 3, Columns: 4}
	require.NoError(t, f.Validate())
	assert.Equal(t, "Finance", f.Industry)

	empty := Filters{}
	require.NoError(t, empty.Validate())
	assert.Equal(t, "Other", empty.Industry)
}

func TestValidateRejects(t *testing.T) {
	for name, f := range map[string]Filters{
		"negative rows":    {Rows: -1},
		"negative columns": {Columns: -2},
		"unknown industry": {Industry: "Mining"},
	} {
		err := f.Validate()
		assert.ErrorIs(t, err, table.ErrInvalidInput, name)
	}
}

func TestBuildGenerate(t *testing.T) {
	p := BuildGenerate(Filters{
		Industry: "Technology", Company: "Any Company", Country: "India",
		Location: "Bangalore", Year: "2023", DataType: "ESG Scope 1", Rows: 10, Columns: 5,
	})
	lines := strings.Split(strings.TrimSpace(p), "\n")
	require.Len(t, lines, 12)
	assert.Equal(t, "1) Industry type for which data should be generated : Technology", lines[1])
	assert.Equal(t, "5) Year : 2023", lines[5])
	assert.Equal(t, "7) Number of rows to be generated : 10", lines[7])
	assert.Equal(t, "8) Number of columns to be generated : 5", lines[8])
	assert.Contains(t, lines[9], "tabular form data only")
}

func TestBuildExtendEmbedsSample(t *testing.T) {
	sample := "Company,Year\nAcme,2021\n"
	p := BuildExtend(sample, 7, 0)
	assert.Contains(t, p, "of 7 rows only")
	assert.True(t, strings.HasSuffix(p, "The CSV file is this:\n"+sample))
}

func TestBuildExtendTruncatesOnLineBoundary(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("a,b\n")
	for i := 0; i < 200; i++ {
		sb.WriteString("xxxxxxxx,yyyyyyyy\n")
	}
	p := BuildExtend(sb.String(), 1, 20)
	body := p[strings.Index(p, "The CSV file is this:\n")+len("The CSV file is this:\n"):]
	assert.LessOrEqual(t, len(body), 80)
	assert.True(t, strings.HasSuffix(body, "\n"))
	assert.True(t, strings.HasPrefix(body, "a,b\n"))
	for _, line := range strings.Split(strings.TrimSuffix(body, "\n"), "\n")[1:] {
		assert.Equal(t, "xxxxxxxx,yyyyyyyy", line)
	}
}
