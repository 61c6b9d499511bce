package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stress-guru-go/internal/model"
	"stress-guru-go/internal/service"
)

// PSSHandler 提供自适应 PSS 评估接口。
type PSSHandler struct {
	pssService service.PSSService
}

func NewPSSHandler(pssService service.PSSService) *PSSHandler {
	return &PSSHandler{pssService: pssService}
}

func (h *PSSHandler) Questions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": h.pssService.Questions()})
}

type nextQuestionRequest struct {
	CurrentResponses []model.PSSResponse `json:"current_responses"`
}

// NextQuestion 请求体可以为空，视为尚未作答。
func (h *PSSHandler) NextQuestion(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		abortNoUser(c)
		return
	}
	var req nextQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "Responses must be a list of [index, label] pairs", "data": nil})
		return
	}

	next, err := h.pssService.NextQuestion(c.Request.Context(), user.ID, req.CurrentResponses)
	if err != nil {
		respondError(c, "NextQuestion", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": next})
}

type assessRequest struct {
	Responses []model.PSSResponse `json:"responses"`
}

func (h *PSSHandler) Assess(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		abortNoUser(c)
		return
	}
	var req assessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		message := "Responses must be a list of [index, label] pairs"
		if errors.Is(err, io.EOF) {
			message = "No responses provided"
		}
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": message, "data": nil})
		return
	}

	res, err := h.pssService.Assess(c.Request.Context(), user.ID, req.Responses)
	if err != nil {
		respondError(c, "Assess", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": res})
}

// History 支持 ?limit=N，缺省返回全部记录。
func (h *PSSHandler) History(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		abortNoUser(c)
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "limit must be a non-negative integer", "data": nil})
		return
	}

	records, err := h.pssService.History(c.Request.Context(), user.ID, limit)
	if err != nil {
		respondError(c, "History", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": records})
}
