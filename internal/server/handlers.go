package server

import (
	"bytes"
	"errors"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"tasklist/internal/logger"
	"tasklist/internal/storage"
)

const (
	msgTitleRequired = "Title is required."
	msgTaskNotFound  = "Task not found"
	msgInternal      = "Internal server error"
)

const errorPage = `<!doctype html>
<html lang="en"><head><meta charset="utf-8"><title>Internal Server Error</title></head>
<body><h1>Internal Server Error</h1><p>The server could not complete your request.</p></body></html>
`

type taskURI struct {
	ID uint64 `uri:"id"`
}

func (s *Server) handleIndex(c *gin.Context) {
	repo, err := s.repo(c)
	if err != nil {
		s.failPage(c, err)
		return
	}
	tasks, err := repo.List(c.Request.Context())
	releaseSession(c)
	if err != nil {
		s.failPage(c, err)
		return
	}
	var buf bytes.Buffer
	if err := s.renderer.Page(&buf, tasks); err != nil {
		s.failPage(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) handleAdd(c *gin.Context) {
	repo, err := s.repo(c)
	if err != nil {
		s.failJSON(c, "create", err)
		return
	}
	task, err := repo.Create(c.Request.Context(), c.PostForm("title"))
	releaseSession(c)
	if err != nil {
		s.failJSON(c, "create", err)
		return
	}
	html, err := s.renderer.Fragment(task)
	if err != nil {
		s.failJSON(c, "create", err)
		return
	}
	s.metrics.ObserveTaskOp("create", "ok")
	logger.FromContext(c.Request.Context()).Debug("task created", "task_id", task.ID)
	c.JSON(http.StatusOK, gin.H{"ok": true, "task_html": html})
}

func (s *Server) handleComplete(c *gin.Context) {
	id, ok := bindTaskID(c)
	if !ok {
		s.failJSON(c, "toggle", storage.ErrTaskNotFound)
		return
	}
	repo, err := s.repo(c)
	if err != nil {
		s.failJSON(c, "toggle", err)
		return
	}
	task, err := repo.Toggle(c.Request.Context(), id)
	releaseSession(c)
	if err != nil {
		s.failJSON(c, "toggle", err)
		return
	}
	html, err := s.renderer.Fragment(task)
	if err != nil {
		s.failJSON(c, "toggle", err)
		return
	}
	s.metrics.ObserveTaskOp("toggle", "ok")
	c.JSON(http.StatusOK, gin.H{"ok": true, "task_html": html, "task_id": task.ID})
}

func (s *Server) handleDelete(c *gin.Context) {
	id, ok := bindTaskID(c)
	if !ok {
		s.failJSON(c, "delete", storage.ErrTaskNotFound)
		return
	}
	repo, err := s.repo(c)
	if err != nil {
		s.failJSON(c, "delete", err)
		return
	}
	err = repo.Delete(c.Request.Context(), id)
	releaseSession(c)
	if err != nil {
		s.failJSON(c, "delete", err)
		return
	}
	s.metrics.ObserveTaskOp("delete", "ok")
	c.JSON(http.StatusOK, gin.H{"ok": true, "task_id": id})
}

func (s *Server) handleInitDB(c *gin.Context) {
	if err := s.store.InitSchema(c.Request.Context()); err != nil {
		s.failJSON(c, "init_schema", err)
		return
	}
	s.metrics.ObserveTaskOp("init_schema", "ok")
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) repo(c *gin.Context) (*storage.Tasks, error) {
	return sessionFrom(c).Tasks(c.Request.Context())
}

// bindTaskID accepts only non-negative integers that fit the id column.
func bindTaskID(c *gin.Context) (int64, bool) {
	var uri taskURI
	if err := c.ShouldBindUri(&uri); err != nil {
		return 0, false
	}
	if uri.ID > math.MaxInt64 {
		return 0, false
	}
	return int64(uri.ID), true
}

func (s *Server) failJSON(c *gin.Context, op string, err error) {
	releaseSession(c)
	switch {
	case errors.Is(err, storage.ErrTitleRequired):
		s.metrics.ObserveTaskOp(op, "invalid")
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": msgTitleRequired})
	case errors.Is(err, storage.ErrTaskNotFound):
		s.metrics.ObserveTaskOp(op, "not_found")
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": msgTaskNotFound})
	default:
		s.metrics.ObserveTaskOp(op, "error")
		_ = c.Error(err)
		logger.FromContext(c.Request.Context()).Error("request failed", "op", op, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": msgInternal})
	}
}

func (s *Server) failPage(c *gin.Context, err error) {
	releaseSession(c)
	_ = c.Error(err)
	logger.FromContext(c.Request.Context()).Error("render index failed", "error", err)
	c.Data(http.StatusInternalServerError, "text/html; charset=utf-8", []byte(errorPage))
}

// abortInternal answers a request that panicked. JSON routes keep their
// {ok:false} shape; the index gets the error page.
func (s *Server) abortInternal(c *gin.Context) {
	if c.Request.Method == http.MethodGet && c.FullPath() == "/" {
		c.Data(http.StatusInternalServerError, "text/html; charset=utf-8", []byte(errorPage))
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"ok": false, "error": msgInternal})
}
