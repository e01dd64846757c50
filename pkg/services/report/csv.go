package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// WriteCSV serializes a table as comma-separated rows.
func WriteCSV(w io.Writer, table [][]string) error {
	writer := csv.NewWriter(w)
	for _, row := range table {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteCSVFile truncates path and writes the table to it.
func WriteCSVFile(path string, table [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, table); err != nil {
		return err
	}
	return f.Sync()
}
