// Package prompt assembles the instructions sent to the generative text service.
package prompt

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/esgsynth-cli/internal/table"
	"github.com/KaramelBytes/esgsynth-cli/internal/utils"
)

// Industries lists the sectors offered to users. "Other" is the fallback.
var Industries = []string{"Vehicle Manufacturing", "Finance", "Healthcare", "Technology", "Other"}

// Filters describe the dataset a user wants generated from scratch.
type Filters struct {
	Industry string `json:"industry"`
	Company  string `json:"company"`
	Country  string `json:"country"`
	Location string `json:"location"`
	Year     string `json:"year"`
	DataType string `json:"data_type"`
	Rows     int    `json:"rows"`
	Columns  int    `json:"columns"`
}

// Validate checks counts and normalizes the industry to its canonical spelling.
func (f *Filters) Validate() error {
	if err := table.CheckCount(f.Rows, table.MaxRows); err != nil {
		return err
	}
	if f.Columns < 0 {
		return fmt.Errorf("%w: columns must be >= 0, got %d", table.ErrInvalidInput, f.Columns)
	}
	ind := strings.TrimSpace(f.Industry)
	if ind == "" {
		f.Industry = "Other"
		return nil
	}
	for _, known := range Industries {
		if strings.EqualFold(ind, known) {
			f.Industry = known
			return nil
		}
	}
	return fmt.Errorf("%w: unknown industry %q (choose one of %s)", table.ErrInvalidInput, f.Industry, strings.Join(Industries, ", "))
}

// BuildGenerate renders the from-scratch generation prompt.
func BuildGenerate(f Filters) string {
	var sb strings.Builder
	sb.WriteString("Act as an ESG Data Generator and generate the data based on below given details.\n")
	fmt.Fprintf(&sb, "1) Industry type for which data should be generated : %s\n", f.Industry)
	fmt.Fprintf(&sb, "2) Company for which data should be generated : %s\n", f.Company)
	fmt.Fprintf(&sb, "3) Country for which data should be generated : %s\n", f.Country)
	fmt.Fprintf(&sb, "4) Location for which data should be generated : %s\n", f.Location)
	fmt.Fprintf(&sb, "5) Year : %s\n", f.Year)
	fmt.Fprintf(&sb, "6) Type of data to be generated : %s\n", f.DataType)
	fmt.Fprintf(&sb, "7) Number of rows to be generated : %d\n", f.Rows)
	fmt.Fprintf(&sb, "8) Number of columns to be generated : %d\n", f.Columns)
	sb.WriteString("Just generate tabular form data only for the details given, don't provide any text.\n")
	sb.WriteString("Generate data on the basis of the number of rows and columns asked and generate actual data, not estimated data.\n")
	sb.WriteString("The data is known to be hypothetical, so do not mention that in the output.\n")
	return sb.String()
}

// BuildExtend renders the prompt asking the service to append rows to a sample CSV.
// When maxTokens > 0 the sample is truncated to roughly fit that budget.
func BuildExtend(sampleCSV string, rows, maxTokens int) string {
	if maxTokens > 0 {
		sampleCSV = utils.TruncateLines(sampleCSV, maxTokens)
	}
	var sb strings.Builder
	sb.WriteString("I want you to act as a ESG data Generator and follow the steps below:\n")
	sb.WriteString("1) Analyze the CSV file given below first and identify the company and what type of data is there.\n")
	sb.WriteString("2) After analyzing the data, generate new data that is accurate and within the scope of the data provided in the CSV file.\n")
	fmt.Fprintf(&sb, "3) The new data generated should be of %d rows only; make sure it is not more or less.\n", rows)
	sb.WriteString("4) Add the new data at the end of the given CSV file.\n")
	sb.WriteString("5) Output only the final table containing both the CSV file and the newly generated rows in tabular form, not the analysis or generation steps.\n")
	sb.WriteString("The CSV file is this:\n")
	sb.WriteString(sampleCSV)
	if !strings.HasSuffix(sampleCSV, "\n") {
		sb.WriteString("\n")
	}
	return sb.String()
}

// Estimate returns a rough token count for a rendered prompt.
func Estimate(p string) int { return utils.CountTokens(p) }
