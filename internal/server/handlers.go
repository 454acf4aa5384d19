package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/harvester/internal/database"
	"github.com/nao1215/harvester/internal/message"
	"github.com/nao1215/harvester/internal/model"
	"github.com/nao1215/harvester/internal/rules"
)

const (
	// maxRequestBody bounds JSON request bodies.
	maxRequestBody = 1 << 20

	// DefaultHistoryLimit is used when /api/history has no limit.
	DefaultHistoryLimit = 50
)

type errorResponse struct {
	Error string `json:"error"`
}

type rulesRequest struct {
	Rules []model.Rule `json:"rules"`
}

type navigationResponse struct {
	Scanned bool `json:"scanned"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleMessage accepts any request of the message protocol.
func (s *Server) handleMessage(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRequestBody))
	if err != nil {
		s.badRequest(c, err)
		return
	}
	req, err := message.Decode(body)
	if err != nil {
		s.badRequest(c, err)
		return
	}
	s.dispatch(c, req)
}

func (s *Server) handleStart(c *gin.Context) {
	var body rulesRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err)
		return
	}
	s.dispatch(c, message.Start{Rules: body.Rules})
}

func (s *Server) handleSaveRules(c *gin.Context) {
	var body rulesRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err)
		return
	}
	s.dispatch(c, message.SaveRules{Rules: body.Rules})
}

func (s *Server) handleStop(c *gin.Context) {
	s.dispatch(c, message.Stop{})
}

func (s *Server) handleClear(c *gin.Context) {
	s.dispatch(c, message.Clear{})
}

func (s *Server) handleState(c *gin.Context) {
	s.dispatch(c, message.GetState{})
}

// handleNavigation applies a page-load event. The reply tells whether a
// scan was started; the scan itself runs in the background.
func (s *Server) handleNavigation(c *gin.Context) {
	var nav message.Navigation
	if err := c.ShouldBindJSON(&nav); err != nil {
		s.badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, navigationResponse{Scanned: s.ctrl.Navigate(c.Request.Context(), nav)})
}

func (s *Server) handleHistory(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusOK, []database.ScanRecord{})
		return
	}
	limit := DefaultHistoryLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.badRequest(c, errors.New("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	records, err := s.history.ListScanRecords(c.Request.Context(), limit)
	if err != nil {
		s.internalError(c, err)
		return
	}
	if records == nil {
		records = []database.ScanRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// dispatch applies UI-boundary validation and hands req to the controller.
func (s *Server) dispatch(c *gin.Context, req message.Request) {
	req, err := prepare(req)
	if err != nil {
		s.badRequest(c, err)
		return
	}

	resp, err := s.ctrl.Handle(c.Request.Context(), req)
	switch {
	case errors.Is(err, message.ErrUnknownRequest):
		s.badRequest(c, err)
	case err != nil:
		s.internalError(c, err)
	case resp == nil:
		c.Status(http.StatusNoContent)
	default:
		c.JSON(http.StatusOK, resp)
	}
}

// prepare drops blank rules and enforces the start policy.
func prepare(req message.Request) (message.Request, error) {
	switch r := req.(type) {
	case message.Start:
		kept, err := rules.PrepareStart(r.Rules)
		if err != nil {
			return nil, err
		}
		return message.Start{Rules: kept}, nil
	case message.SaveRules:
		return message.SaveRules{Rules: rules.NonEmpty(r.Rules)}, nil
	default:
		return req, nil
	}
}

func (s *Server) badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func (s *Server) internalError(c *gin.Context, err error) {
	s.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
}
