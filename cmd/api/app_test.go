package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/wolfman30/campus-triage-bot/internal/config"
	"github.com/wolfman30/campus-triage-bot/pkg/logging"
)

func testConfig(t *testing.T) *appconfig.Config {
	t.Helper()
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		return path
	}
	return &appconfig.Config{
		SymptomsCSV:        write("symptoms.csv", "Symptom,Condition\nfever,Flu\nheadache,Migraine\n"),
		TreatmentsCSV:      write("treatments.csv", "Condition,Treatment\nFlu,Rest\n"),
		DoctorsCSV:         write("doctors.csv", "Name,Specialty,Email\nDr. Patel,General,\n"),
		AppointmentsCSV:    filepath.Join(dir, "appointments.csv"),
		SessionStore:       "memory",
		AppointmentStore:   "csv",
		ClinicName:         "Guni Health Clinic",
		CampusName:         "Ganpat University",
		ClinicTimezone:     "UTC",
		LongIllnessDays:    5,
		CORSAllowedOrigins: []string{"*"},
	}
}

func chat(t *testing.T, h http.Handler, session, message string) string {
	t.Helper()
	body, err := json.Marshal(map[string]string{"session_id": session, "message": message})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/chatbot", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Response string `json:"response"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Response
}

func TestBuildAppServesChat(t *testing.T) {
	application, err := buildApp(context.Background(), testConfig(t), logging.New("error"))
	require.NoError(t, err)
	defer application.Close()

	assert.Contains(t, chat(t, application.handler, "s1", "Asha"), "Asha")
	reply := chat(t, application.handler, "s1", "I have a fever")
	assert.Contains(t, reply, "you may have Flu")
	assert.Contains(t, reply, "Rest")

	rr := httptest.NewRecorder()
	application.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "triage_chat_turns_total")
}

func TestBuildAppWithRedisSessions(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.SessionStore = "redis"
	cfg.RedisAddr = mr.Addr()

	application, err := buildApp(context.Background(), cfg, logging.New("error"))
	require.NoError(t, err)
	defer application.Close()

	chat(t, application.handler, "s1", "Asha")
	assert.True(t, mr.Exists("triage:session:s1"))
}

func TestBuildAppRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*appconfig.Config)
		want   string
	}{
		{name: "unknown session store", mutate: func(c *appconfig.Config) { c.SessionStore = "etcd" }, want: "SESSION_STORE"},
		{name: "unknown appointment store", mutate: func(c *appconfig.Config) { c.AppointmentStore = "s3" }, want: "APPOINTMENT_STORE"},
		{name: "postgres without url", mutate: func(c *appconfig.Config) { c.AppointmentStore = "postgres" }, want: "DATABASE_URL"},
		{name: "doctors from postgres without url", mutate: func(c *appconfig.Config) { c.DoctorSource = "postgres" }, want: "DATABASE_URL"},
		{name: "missing symptoms", mutate: func(c *appconfig.Config) { c.SymptomsCSV = filepath.Join(t.TempDir(), "nope.csv") }, want: "nope.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)
			_, err := buildApp(context.Background(), cfg, logging.New("error"))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestBuildAppNeedsDoctors(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.DoctorsCSV, []byte("Name,Specialty\n"), 0o644))

	_, err := buildApp(context.Background(), cfg, logging.New("error"))
	assert.Error(t, err)
}
