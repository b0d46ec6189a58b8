package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spk-docs/doctracker/internal/document"
	"github.com/spk-docs/doctracker/internal/document/repository"
	"github.com/spk-docs/doctracker/internal/document/state"
	"github.com/spk-docs/doctracker/internal/export"
	"github.com/spk-docs/doctracker/internal/rpc"
	"github.com/spk-docs/doctracker/pkg/logger"
	"github.com/spk-docs/doctracker/pkg/middleware"
)

// Meta is the static configuration clients need to render forms and tables.
type Meta struct {
	SystemTitle  string    `json:"systemTitle"`
	DirectorName string    `json:"directorName"`
	Departments  [4]string `json:"departments"`
	Groups       []string  `json:"groups"`
}

// Deps are the collaborators of the document routes. Exporter and Dispatcher
// are optional; their routes answer 503 or are not registered when nil.
// RateLimit, when set, runs after authentication so callers with a token are
// limited by subject.
type Deps struct {
	Controller *state.Controller
	Verifier   middleware.Verifier
	RateLimit  gin.HandlerFunc
	Exporter   *export.Exporter
	Dispatcher *rpc.Dispatcher
	Meta       Meta
}

func RegisterDocumentRoutes(r gin.IRouter, d Deps) {
	ctrl := d.Controller
	limit := d.RateLimit
	if limit == nil {
		limit = func(c *gin.Context) { c.Next() }
	}
	public := r.Group("", limit)
	guarded := r.Group("", middleware.AuthMiddleware(d.Verifier), limit)
	labels := export.Labels{DirectorName: d.Meta.DirectorName, Departments: d.Meta.Departments}

	public.GET("/api/meta", func(c *gin.Context) {
		var lastErr string
		if err := ctrl.LastError(); err != nil {
			lastErr = err.Error()
		}
		c.JSON(http.StatusOK, gin.H{
			"systemTitle":      d.Meta.SystemTitle,
			"directorName":     d.Meta.DirectorName,
			"departments":      d.Meta.Departments,
			"groups":           d.Meta.Groups,
			"statuses":         document.Statuses,
			"directorStatuses": document.DirectorStatuses,
			"pageSize":         state.PageSize,
			"mode":             ctrl.Mode(),
			"today":            ctrl.Today(),
			"lastError":        lastErr,
		})
	})

	public.GET("/api/documents", func(c *gin.Context) {
		q := state.Query{
			Search: c.Query("q"),
			Group:  c.Query("group"),
			Expr:   c.Query("expr"),
		}
		var err error
		if q.Month, err = intQuery(c, "month", 0); err != nil {
			writeError(c, err)
			return
		}
		if q.Page, err = intQuery(c, "page", 1); err != nil {
			writeError(c, err)
			return
		}
		view, err := ctrl.View(q)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	})

	public.GET("/api/documents/:id", func(c *gin.Context) {
		doc, ok := ctrl.Get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusOK, doc)
	})

	guarded.POST("/api/documents", func(c *gin.Context) {
		var doc document.Document
		if err := c.ShouldBindJSON(&doc); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		// an id the collection holds updates that record; any other id is
		// stored as new by the gateway
		_, exists := ctrl.Get(doc.ID)
		saved, err := ctrl.Save(c.Request.Context(), doc)
		if err != nil {
			writeError(c, err)
			return
		}
		if exists {
			c.JSON(http.StatusOK, saved)
			return
		}
		logger.Infof("document %s created by %q", saved.DocNumber, middleware.Subject(c))
		c.JSON(http.StatusCreated, saved)
	})

	guarded.PUT("/api/documents/:id", func(c *gin.Context) {
		id := c.Param("id")
		if _, ok := ctrl.Get(id); !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		var doc document.Document
		if err := c.ShouldBindJSON(&doc); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		doc.ID = id
		saved, err := ctrl.Save(c.Request.Context(), doc)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, saved)
	})

	guarded.DELETE("/api/documents/:id", func(c *gin.Context) {
		res, err := ctrl.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		logger.Infof("document %s deleted by %q", res.ID, middleware.Subject(c))
		c.JSON(http.StatusOK, res)
	})

	public.POST("/api/documents/reload", func(c *gin.Context) {
		if err := ctrl.Load(c.Request.Context()); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": len(ctrl.Documents())})
	})

	public.GET("/api/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"stats":        ctrl.Stats(),
			"departments":  d.Meta.Departments,
			"directorName": d.Meta.DirectorName,
		})
	})

	public.GET("/api/calendar", func(c *gin.Context) {
		today := ctrl.Today()
		year, err := intQuery(c, "year", today.Year())
		if err != nil {
			writeError(c, err)
			return
		}
		month, err := intQuery(c, "month", int(today.Month()))
		if err != nil {
			writeError(c, err)
			return
		}
		if month < 1 || month > 12 {
			writeError(c, fmt.Errorf("%w: month %d out of range", state.ErrInvalidQuery, month))
			return
		}
		c.JSON(http.StatusOK, gin.H{"year": year, "month": month, "days": ctrl.CalendarDays(year, time.Month(month))})
	})

	public.GET("/api/export.csv", func(c *gin.Context) {
		name := "documents-" + ctrl.Today().String() + ".csv"
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		c.Status(http.StatusOK)
		if err := export.WriteCSV(c.Writer, ctrl.Documents(), labels); err != nil {
			logger.Errorf("write csv export: %v", err)
		}
	})

	guarded.POST("/api/export", func(c *gin.Context) {
		if d.Exporter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "export storage not configured"})
			return
		}
		snap, err := d.Exporter.Publish(c.Request.Context(), ctrl.Documents())
		if err != nil {
			logger.Errorf("publish export: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, snap)
	})

	public.GET("/api/exports", func(c *gin.Context) {
		if d.Exporter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "export storage not configured"})
			return
		}
		objs, err := d.Exporter.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, objs)
	})

	if d.Dispatcher != nil {
		guarded.POST("/api/rpc", d.Dispatcher.GinHandler())
	}
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" || raw == state.GroupAll {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", state.ErrInvalidQuery, key)
	}
	return n, nil
}

// writeError maps controller errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, document.ErrInvalidDocument), errors.Is(err, state.ErrInvalidQuery):
		status = http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, repository.ErrBackendUnavailable):
		status = http.StatusServiceUnavailable
	}
	body := gin.H{"error": err.Error()}
	var oe *state.OpError
	if errors.As(err, &oe) {
		body["message"] = oe.Message
		body["op"] = oe.Op
	}
	c.JSON(status, body)
}
