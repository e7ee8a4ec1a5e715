package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadSymptomsCSV reads a Symptom,Condition table. Repeated symptom rows
// accumulate conditions in row order.
func LoadSymptomsCSV(path string) (*Symptoms, error) {
	links := map[string][]string{}
	err := readTable(path, []string{"symptom", "condition"}, func(row []string) {
		links[row[0]] = append(links[row[0]], row[1])
	})
	if err != nil {
		return nil, err
	}
	return NewSymptoms(links), nil
}

// LoadTreatmentsCSV reads a Condition,Treatment table.
func LoadTreatmentsCSV(path string) (*Treatments, error) {
	advice := map[string][]string{}
	err := readTable(path, []string{"condition", "treatment"}, func(row []string) {
		advice[row[0]] = append(advice[row[0]], row[1])
	})
	if err != nil {
		return nil, err
	}
	return NewTreatments(advice), nil
}

// LoadDoctorsCSV reads a Name[,Specialty][,Email] table in file order.
func LoadDoctorsCSV(path string) (Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()
	return ReadDoctors(f)
}

// ReadDoctors parses a doctor roster from r.
func ReadDoctors(r io.Reader) (Roster, error) {
	var roster Roster
	err := scanTable(r, []string{"name"}, func(header map[string]int, rec []string) {
		d := Doctor{Name: field(rec, header, "name")}
		d.Specialty = field(rec, header, "specialty")
		d.Email = field(rec, header, "email")
		if d.Name != "" {
			roster = append(roster, d)
		}
	})
	return roster, err
}

func readTable(path string, columns []string, fn func(row []string)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()
	return ReadTable(f, columns, fn)
}

// ReadTable streams the named columns of a headed CSV into fn, skipping rows
// where any requested column is blank.
func ReadTable(r io.Reader, columns []string, fn func(row []string)) error {
	return scanTable(r, columns, func(header map[string]int, rec []string) {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = field(rec, header, col)
			if row[i] == "" {
				return
			}
		}
		fn(row)
	})
}

func scanTable(r io.Reader, required []string, fn func(header map[string]int, rec []string)) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	head, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("catalog: missing header row")
		}
		return fmt.Errorf("catalog: read header: %w", err)
	}
	header := make(map[string]int, len(head))
	for i, name := range head {
		header[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, col := range required {
		if _, ok := header[col]; !ok {
			return fmt.Errorf("catalog: missing column %q", col)
		}
	}

	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("catalog: read row: %w", err)
		}
		fn(header, rec)
	}
}

func field(rec []string, header map[string]int, name string) string {
	idx, ok := header[name]
	if !ok || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}
