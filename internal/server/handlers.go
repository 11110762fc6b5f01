package server

import (
	"bytes"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pfrederiksen/night-courses/internal/catalog"
	"github.com/pfrederiksen/night-courses/internal/export"
	"github.com/pfrederiksen/night-courses/internal/logger"
	"github.com/pfrederiksen/night-courses/internal/storage"
)

func respondError(c *gin.Context, message string, status int) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// snapshot loads the current snapshot, answering 500 itself on failure
func (s *Server) snapshot(c *gin.Context) (*catalog.Snapshot, bool) {
	snap, err := s.opts.Store.LoadSnapshot(s.opts.AcademicYear)
	if err != nil {
		logger.Error("Failed to load snapshot", logger.Fields{"year": s.opts.AcademicYear}, err)
		respondError(c, "snapshot unavailable", http.StatusInternalServerError)
		return nil, false
	}
	return snap, true
}

// GET /
func (s *Server) index(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := s.page.Export(&buf, snap.Grouping()); err != nil {
		logger.Error("Failed to render page", nil, err)
		respondError(c, "render failed", http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// GET /styles.css
func (s *Server) styles(c *gin.Context) {
	if s.opts.StaticDir != "" {
		path := filepath.Join(s.opts.StaticDir, export.StylesFileName)
		if _, err := os.Stat(path); err == nil {
			c.File(path)
			return
		}
	}
	c.Data(http.StatusOK, "text/css; charset=utf-8", export.Stylesheet)
}

// GET /healthz
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"year":     s.opts.AcademicYear,
		"snapshot": s.opts.Store.HasSnapshot(s.opts.AcademicYear),
	})
}

// GET /api/night-courses
func (s *Server) listAll(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		return
	}

	g := snap.Grouping()
	c.JSON(http.StatusOK, gin.H{
		"academic_year": snap.AcademicYear,
		"updated_at":    snap.UpdatedAt,
		"total":         g.Total(),
		"semesters":     g,
	})
}

func paramSemester(c *gin.Context) (int, bool) {
	semester, err := strconv.Atoi(c.Param("semester"))
	if err != nil {
		respondError(c, "semester must be a number", http.StatusBadRequest)
		return 0, false
	}
	if !catalog.ValidSemester(semester) {
		respondError(c, "unknown semester", http.StatusNotFound)
		return 0, false
	}
	return semester, true
}

func paramCode(c *gin.Context) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))
	if code == "" {
		respondError(c, "module code is required", http.StatusBadRequest)
		return "", false
	}
	return code, true
}

// GET /api/night-courses/:semester
func (s *Server) listSemester(c *gin.Context) {
	semester, ok := paramSemester(c)
	if !ok {
		return
	}

	snap, ok := s.snapshot(c)
	if !ok {
		return
	}

	records := snap.Grouping().Records(semester)
	c.JSON(http.StatusOK, gin.H{
		"academic_year": snap.AcademicYear,
		"semester":      semester,
		"count":         len(records),
		"courses":       records,
	})
}

// GET /api/night-courses/module/:code
func (s *Server) getModule(c *gin.Context) {
	code, ok := paramCode(c)
	if !ok {
		return
	}

	records, err := s.opts.Store.GetRecordsByCode(s.opts.AcademicYear, code)
	if errors.Is(err, storage.ErrModuleNotFound) {
		respondError(c, "module is not a night course: "+code, http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error("Failed to look up module", logger.Fields{"module": code}, err)
		respondError(c, "snapshot unavailable", http.StatusInternalServerError)
		return
	}

	semesters := make([]int, len(records))
	for i, r := range records {
		semesters[i] = r.Semester
	}
	c.JSON(http.StatusOK, gin.H{
		"academic_year": s.opts.AcademicYear,
		"module_code":   code,
		"semesters":     semesters,
		"courses":       records,
	})
}
