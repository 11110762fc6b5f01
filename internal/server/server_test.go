package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/night-courses/internal/catalog"
	"github.com/pfrederiksen/night-courses/internal/logger"
	"github.com/pfrederiksen/night-courses/internal/storage"
)

const year = "2023-2024"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.SetDefault(logger.New(logger.LevelError, io.Discard))
	os.Exit(m.Run())
}

func newTestServer(t *testing.T, withSnapshot bool) (*Server, Options) {
	t.Helper()

	store, err := storage.New(t.TempDir())
	require.NoError(t, err)

	if withSnapshot {
		g := catalog.GroupingOf([]catalog.Record{
			{ModuleCode: "CS1010", Title: "Programming Methodology", ModuleCredit: "4", Faculty: "Computing", Semester: 1},
			{ModuleCode: "MA1521", Title: "Calculus for Computing", ModuleCredit: "4", Semester: 1},
			{ModuleCode: "LAJ1201", Title: "Japanese 1", ModuleCredit: "4", Semester: 2},
			{ModuleCode: "CS1010", Title: "Programming Methodology", ModuleCredit: "4", Faculty: "Computing", Semester: 3},
		})
		require.NoError(t, store.CreateSnapshotFromGrouping(year, g))
	}

	opts := Options{
		AcademicYear: year,
		CourseURL:    "https://nusmods.com/courses/",
		Store:        store,
		Metrics:      logger.NewMetrics(),
	}
	s, err := New(opts)
	require.NoError(t, err)
	return s, opts
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestIndex(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := get(t, s, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)

	assert.Equal(t, "Semester 1: 2 courses", strings.TrimSpace(doc.Find("#semester-1 h2").Text()))
	href, _ := doc.Find("#semester-2 td.code a").Attr("href")
	assert.Equal(t, "https://nusmods.com/courses/LAJ1201", href)
	assert.Equal(t, "Computing", doc.Find("#semester-1 td.faculty").First().Text())
}

func TestIndex_NoSnapshot(t *testing.T) {
	s, _ := newTestServer(t, false)

	rec := get(t, s, "/")
	require.Equal(t, http.StatusOK, rec.Code)

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 4, doc.Find("p.empty").Length())
}

func TestListAll(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := get(t, s, "/api/night-courses")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		AcademicYear string                      `json:"academic_year"`
		Total        int                         `json:"total"`
		Semesters    map[string][]catalog.Record `json:"semesters"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, year, body.AcademicYear)
	assert.Equal(t, 4, body.Total)
	assert.Len(t, body.Semesters, 4)
	require.Len(t, body.Semesters["1"], 2)
	assert.Equal(t, "CS1010", body.Semesters["1"][0].ModuleCode)
	assert.Empty(t, body.Semesters["4"])
}

func TestListSemester(t *testing.T) {
	s, _ := newTestServer(t, true)

	tests := []struct {
		name      string
		path      string
		wantCode  int
		wantCount int
	}{
		{name: "semester with courses", path: "/api/night-courses/1", wantCode: http.StatusOK, wantCount: 2},
		{name: "empty semester", path: "/api/night-courses/4", wantCode: http.StatusOK, wantCount: 0},
		{name: "unknown semester", path: "/api/night-courses/5", wantCode: http.StatusNotFound},
		{name: "not a number", path: "/api/night-courses/one", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, tt.path)
			require.Equal(t, tt.wantCode, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

			if tt.wantCode != http.StatusOK {
				assert.NotEmpty(t, body["error"])
				return
			}
			assert.Equal(t, float64(tt.wantCount), body["count"])
		})
	}
}

func TestGetModule(t *testing.T) {
	s, _ := newTestServer(t, true)

	tests := []struct {
		name          string
		path          string
		wantCode      int
		wantSemesters []int
	}{
		{name: "saved module", path: "/api/night-courses/module/CS1010", wantCode: http.StatusOK, wantSemesters: []int{1, 3}},
		{name: "case insensitive", path: "/api/night-courses/module/laj1201", wantCode: http.StatusOK, wantSemesters: []int{2}},
		{name: "not a night course", path: "/api/night-courses/module/GEA1000", wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, tt.path)
			require.Equal(t, tt.wantCode, rec.Code)

			var body struct {
				ModuleCode string           `json:"module_code"`
				Semesters  []int            `json:"semesters"`
				Courses    []catalog.Record `json:"courses"`
				Error      string           `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

			if tt.wantCode != http.StatusOK {
				assert.Contains(t, body.Error, "GEA1000")
				return
			}
			assert.Equal(t, tt.wantSemesters, body.Semesters)
			require.Len(t, body.Courses, len(tt.wantSemesters))
			assert.Equal(t, body.ModuleCode, body.Courses[0].ModuleCode)
		})
	}

	// The semester route still matches next to the static segment
	rec := get(t, s, "/api/night-courses/2")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetModule_NoSnapshot(t *testing.T) {
	s, _ := newTestServer(t, false)

	rec := get(t, s, "/api/night-courses/module/CS1010")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	for _, withSnapshot := range []bool{true, false} {
		s, _ := newTestServer(t, withSnapshot)

		rec := get(t, s, "/healthz")
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, withSnapshot, body["snapshot"])
	}
}

func TestStyles(t *testing.T) {
	s, _ := newTestServer(t, false)

	rec := get(t, s, "/styles.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
	assert.Contains(t, rec.Body.String(), "table")
}

func TestStyles_StaticDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "styles.css"), []byte("body { color: red; }"), 0644))

	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	s, err := New(Options{AcademicYear: year, StaticDir: dir, Store: store, Metrics: logger.NewMetrics()})
	require.NoError(t, err)

	rec := get(t, s, "/styles.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "body { color: red; }", rec.Body.String())
}

func TestMetrics(t *testing.T) {
	s, opts := newTestServer(t, true)

	get(t, s, "/api/night-courses")
	get(t, s, "/api/night-courses/9")

	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "nightcourses_http_requests_2xx_total")
	assert.Contains(t, rec.Body.String(), "nightcourses_http_requests_4xx_total 1")

	counters := opts.Metrics.GetSnapshot()["counters"].(map[string]float64)
	assert.Equal(t, float64(1), counters["http_requests_4xx"])
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(200))
	assert.Equal(t, "3xx", statusClass(304))
	assert.Equal(t, "4xx", statusClass(404))
	assert.Equal(t, "5xx", statusClass(503))
}
