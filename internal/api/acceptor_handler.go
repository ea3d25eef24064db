package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/cash-acceptor/internal/errors"
	"github.com/wfunc/cash-acceptor/internal/hardware"
	"github.com/wfunc/cash-acceptor/internal/repository"
	"go.uber.org/zap"
)

// AcceptorHandler 纸币器API处理器
type AcceptorHandler struct {
	driver     *hardware.Driver
	billCounts repository.BillCountRepository
	events     repository.AcceptorEventRepository
	log        *zap.Logger
}

// NewAcceptorHandler 创建处理器
func NewAcceptorHandler(
	driver *hardware.Driver,
	billCounts repository.BillCountRepository,
	events repository.AcceptorEventRepository,
	log *zap.Logger,
) *AcceptorHandler {
	return &AcceptorHandler{
		driver:     driver,
		billCounts: billCounts,
		events:     events,
		log:        log,
	}
}

// GetCounts 按面额升序返回所有计数
func (h *AcceptorHandler) GetCounts(c *gin.Context) {
	counts, err := h.billCounts.GetCounts(c.Request.Context())
	if err != nil {
		h.fail(c, errors.Wrap(err, errors.ErrDatabaseQuery))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    counts,
	})
}

// GetTotal 返回累计总金额
func (h *AcceptorHandler) GetTotal(c *gin.Context) {
	total, err := h.billCounts.GetTotal(c.Request.Context())
	if err != nil {
		// 聚合查询失败时总额按0处理
		h.log.Error("查询总金额失败", zap.Error(err))
		total = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"total": total},
	})
}

// GetStatus 返回纸币器运行状态
func (h *AcceptorHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"running":         h.driver.IsRunning(),
			"enabled":         h.driver.IsEnabled(),
			"stacker_removed": h.driver.StackerRemoved(),
		},
	})
}

// GetRecentEvents 返回最近的事件审计记录
func (h *AcceptorHandler) GetRecentEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	events, err := h.events.Recent(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, errors.Wrap(err, errors.ErrDatabaseQuery))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    events,
	})
}

// Enable 请求开始收钞
func (h *AcceptorHandler) Enable(c *gin.Context) {
	if err := h.driver.Enable(); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"success": true})
}

// Disable 请求停止收钞
func (h *AcceptorHandler) Disable(c *gin.Context) {
	if err := h.driver.Disable(); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"success": true})
}

// fail 输出统一错误响应
func (h *AcceptorHandler) fail(c *gin.Context, err error) {
	appErr, ok := err.(*errors.AppError)
	if !ok {
		appErr = errors.Wrap(err, errors.ErrUnknown)
	}

	h.log.Error("API请求失败",
		zap.String("path", c.Request.URL.Path),
		zap.Error(appErr))

	c.JSON(appErr.HTTPStatus(), gin.H{
		"success": false,
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
			"details": appErr.Details,
		},
	})
}
