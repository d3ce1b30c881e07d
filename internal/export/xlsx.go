package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/CloudShih/ripsearch/internal/models"
)

const (
	matchesSheet = "Matches"
	summarySheet = "Summary"
)

// writeXLSX writes the flattened match table to a "Matches" sheet and the
// summary to a "Summary" sheet.
func writeXLSX(c *models.SearchResultCollection, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", matchesSheet); err != nil {
		return err
	}
	header := make([]interface{}, len(csvHeader))
	for i, h := range csvHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(matchesSheet, "A1", &header); err != nil {
		return err
	}
	row := 2
	for _, fr := range c.FileResults() {
		for _, m := range fr.Matches {
			cell := fmt.Sprintf("A%d", row)
			values := []interface{}{fr.FilePath, m.LineNumber, m.Column, m.Content, len(m.Highlights)}
			if err := f.SetSheetRow(matchesSheet, cell, &values); err != nil {
				return err
			}
			row++
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	s := c.Summary
	if s == nil {
		s = &models.SearchSummary{}
	}
	summaryRows := [][]interface{}{
		{"Pattern", s.Pattern},
		{"Status", string(s.Status)},
		{"Total matches", s.TotalMatches},
		{"Files with matches", s.FilesWithMatches},
		{"Files searched", s.FilesSearched},
		{"Search time (s)", s.SearchTime},
	}
	for i, values := range summaryRows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(summarySheet, cell, &values); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
