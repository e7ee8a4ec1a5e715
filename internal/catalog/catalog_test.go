package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSymptomsSortsLabelsAndKeepsConditionOrder(t *testing.T) {
	s := NewSymptoms(map[string][]string{
		"headache": {"Flu", "Migraine"},
		"fever":    {"Flu"},
		"  ":       {"Ignored"},
	})
	assert.Equal(t, []string{"fever", "headache"}, s.Labels())
	assert.Equal(t, []string{"Flu", "Migraine"}, s.Conditions("headache"))
	assert.Nil(t, s.Conditions("cough"))
	assert.Equal(t, 2, s.Len())
}

func TestSymptomsLabelsReturnsCopy(t *testing.T) {
	s := NewSymptoms(map[string][]string{"fever": {"Flu"}})
	labels := s.Labels()
	labels[0] = "mutated"
	assert.Equal(t, []string{"fever"}, s.Labels())
}

func TestTreatmentsDefault(t *testing.T) {
	tr := NewTreatments(map[string][]string{"Flu": {"Rest", "Fluids"}, "Empty": nil})
	assert.Equal(t, []string{"Rest", "Fluids"}, tr.For("Flu"))
	assert.Equal(t, []string{DefaultTreatment}, tr.For("Migraine"))
	assert.Equal(t, []string{DefaultTreatment}, tr.For("Empty"))

	var nilCatalog *Treatments
	assert.Equal(t, []string{DefaultTreatment}, nilCatalog.For("Flu"))
}

func TestLoadSymptomsCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "symptoms.csv")
	data := "\ufeffSymptom,Condition\nheadache,Flu\nfever,Flu\nheadache,Migraine\n,Orphan\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	s, err := LoadSymptomsCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"fever", "headache"}, s.Labels())
	assert.Equal(t, []string{"Flu", "Migraine"}, s.Conditions("headache"))
}

func TestLoadTreatmentsCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "treatments.csv")
	data := "Condition,Treatment\nFlu,Rest\nFlu,Drink fluids\nMigraine,Dark room\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	tr, err := LoadTreatmentsCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Rest", "Drink fluids"}, tr.For("Flu"))
	assert.Equal(t, 2, tr.Len())
}

func TestLoadCSVErrors(t *testing.T) {
	_, err := LoadSymptomsCSV(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)

	err = ReadTable(strings.NewReader(""), []string{"symptom"}, func([]string) {})
	require.ErrorContains(t, err, "missing header")

	err = ReadTable(strings.NewReader("Name,Other\nx,y\n"), []string{"symptom"}, func([]string) {})
	require.ErrorContains(t, err, `missing column "symptom"`)
}

func TestReadDoctors(t *testing.T) {
	roster, err := ReadDoctors(strings.NewReader("Name,Specialty,Email\nDr. Patel,General,patel@clinic.test\n,,\nDr. Shah,ENT,\n"))
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, "Dr. Patel", roster[0].Name)
	assert.Equal(t, "patel@clinic.test", roster[0].Email)
	assert.Equal(t, "ENT", roster[1].Specialty)

	first, err := roster.First()
	require.NoError(t, err)
	assert.Equal(t, "Dr. Patel", first.Name)
}

func TestReadDoctorsNameOnly(t *testing.T) {
	roster, err := ReadDoctors(strings.NewReader("Name\nDr. Mehta\n"))
	require.NoError(t, err)
	assert.Equal(t, Roster{{Name: "Dr. Mehta"}}, roster)
}

func TestEmptyRoster(t *testing.T) {
	_, err := Roster(nil).First()
	assert.ErrorIs(t, err, ErrNoDoctors)
}

func TestLoadDoctorsFromDB(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT name, specialty, email FROM doctors").
		WillReturnRows(sqlmock.NewRows([]string{"name", "specialty", "email"}).
			AddRow("Dr. Patel", "General", "patel@clinic.test").
			AddRow("Dr. Shah", nil, nil))

	roster, err := LoadDoctorsFromDB(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, Doctor{Name: "Dr. Patel", Specialty: "General", Email: "patel@clinic.test"}, roster[0])
	assert.Equal(t, Doctor{Name: "Dr. Shah"}, roster[1])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadDoctorsFromDBQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT name").WillReturnError(assert.AnError)

	_, err = LoadDoctorsFromDB(context.Background(), db)
	require.ErrorIs(t, err, assert.AnError)
	require.NoError(t, mock.ExpectationsWereMet())
}
