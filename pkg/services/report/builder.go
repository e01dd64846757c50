// Package report turns per-owner billing data into the two report tables.
// Builders are pure transforms; serialization lives in csv.go.
package report

import (
	"fmt"

	"github.com/de-tools/cluster-report/pkg/models/domain"
)

const usageHeaderLabel = "User ID"

// ColumnMode selects how usage cells are placed under the header dates.
type ColumnMode int

const (
	// ColumnsByDate resolves each cell by date lookup against the header,
	// leaving a cell empty when the owner has no bucket for that day.
	ColumnsByDate ColumnMode = iota

	// ColumnsPositional appends each owner's values in its own series
	// order, regardless of the header. Kept for compatibility with the
	// legacy report layout; rows can end up misaligned when series differ.
	ColumnsPositional
)

// BuildUsageTable assembles the wide usage table. The header is fixed by
// the first owner's series: its dates, in billing-API return order.
func BuildUsageTable(rows []domain.OwnerUsage, mode ColumnMode) [][]string {
	if len(rows) == 0 {
		return nil
	}

	header := append([]string{usageHeaderLabel}, rows[0].Series.Dates()...)
	table := [][]string{header}

	for _, row := range rows {
		record := []string{row.Owner}
		switch mode {
		case ColumnsPositional:
			for _, p := range row.Series.Points {
				record = append(record, formatHours(p.Hours))
			}
		default:
			for _, date := range header[1:] {
				if hours, ok := row.Series.Lookup(date); ok {
					record = append(record, formatHours(hours))
				} else {
					record = append(record, "")
				}
			}
		}
		table = append(table, record)
	}
	return table
}

// BuildCostTable assembles the two-column cost table. No header row.
func BuildCostTable(rows []domain.OwnerCost) [][]string {
	table := make([][]string, 0, len(rows))
	for _, row := range rows {
		table = append(table, []string{row.Owner, formatCost(row.Total)})
	}
	return table
}

func formatHours(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

func formatCost(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
