package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Tencent/WeKnora/internal/errors"
	"github.com/Tencent/WeKnora/internal/review"
)

// ContractHandler implements the contract-review HTTP routes (§6), each a
// thin translation between Gin and the Engine.
type ContractHandler struct {
	engine     *review.Engine
	renderer   review.ReportRenderer
	sseTimeout time.Duration
}

// NewContractHandler builds a ContractHandler.
func NewContractHandler(engine *review.Engine, renderer review.ReportRenderer, sseTimeout time.Duration) *ContractHandler {
	return &ContractHandler{engine: engine, renderer: renderer, sseTimeout: sseTimeout}
}

// RegisterRoutes wires the contract-review endpoints onto rg.
func (h *ContractHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/contracts/upload", h.upload)
	rg.GET("/contracts/:id/analyze-async", h.analyzeAsync)
	rg.GET("/contracts/:id", h.get)
	rg.GET("/contracts/:id/summary", h.summary)
	rg.GET("/contracts/my-reviews", h.myReviews)
	rg.GET("/contracts/:id/report", h.report)
	rg.POST("/contracts/:id/reprocess", h.reprocess)
}

// upload godoc
// @Summary      上传合同文件
// @Description  接收合同文件，创建一条待处理的审查记录
// @Tags         合同审查
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "合同文件"
// @Success      202  {object}  map[string]interface{}  "已接受，返回 reviewId 与状态"
// @Failure      400  {object}  map[string]interface{}  "缺少文件字段"
// @Router       /contracts/upload [post]
func (h *ContractHandler) upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.Error(apperrors.NewBadRequestError(apperrors.KindEmptyInput, "missing multipart file field \"file\""))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.Error(apperrors.NewInternalServerError(err, "open uploaded file"))
		return
	}
	defer f.Close()

	rev, err := h.engine.Upload(c.Request.Context(), TenantID(c), UserID(c), fileHeader.Filename, fileHeader.Size, f)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"reviewId": rev.ID, "status": rev.Status})
}

func (h *ContractHandler) idParam(c *gin.Context) (uint64, bool) {
	id, err := parseUintParam(c.Param("id"))
	if err != nil {
		c.Error(err)
		return 0, false
	}
	return id, true
}

// get godoc
// @Summary      获取审查记录
// @Description  返回合同审查记录的完整详情，包括风险条款列表
// @Tags         合同审查
// @Produce      json
// @Param        id   path      int  true  "审查记录 ID"
// @Success      200  {object}  types.ContractReview
// @Failure      404  {object}  map[string]interface{}  "记录不存在"
// @Router       /contracts/{id} [get]
func (h *ContractHandler) get(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	rev, err := h.engine.Get(c.Request.Context(), id, TenantID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rev)
}

// summary godoc
// @Summary      获取审查摘要
// @Description  返回审查记录的精简视图，不含风险条款明细，用于列表展示
// @Tags         合同审查
// @Produce      json
// @Param        id   path      int  true  "审查记录 ID"
// @Success      200  {object}  map[string]interface{}  "审查摘要"
// @Failure      404  {object}  map[string]interface{}  "记录不存在"
// @Router       /contracts/{id}/summary [get]
func (h *ContractHandler) summary(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	rev, err := h.engine.Get(c.Request.Context(), id, TenantID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":               rev.ID,
		"originalFilename": rev.OriginalFilename,
		"status":           rev.Status,
		"riskLevel":        rev.RiskLevel,
		"totalRisks":       rev.TotalRisks,
		"createdAt":        rev.CreatedAt,
		"completedAt":      rev.CompletedAt,
	})
}

// myReviews godoc
// @Summary      列出我的审查记录
// @Description  分页返回当前租户下的审查记录
// @Tags         合同审查
// @Produce      json
// @Param        page  query     int  false  "页码，默认 1"
// @Param        size  query     int  false  "每页条数，默认 20"
// @Success      200   {object}  map[string]interface{}  "分页结果"
// @Router       /contracts/my-reviews [get]
func (h *ContractHandler) myReviews(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	reviews, total, err := h.engine.List(c.Request.Context(), TenantID(c), page, size)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": reviews, "total": total, "page": page, "size": size})
}

// report godoc
// @Summary      获取审查报告
// @Description  渲染并返回审查记录的 PDF 报告
// @Tags         合同审查
// @Produce      application/pdf
// @Param        id   path  int  true  "审查记录 ID"
// @Success      200  {file}    file  "PDF 报告"
// @Failure      404  {object}  map[string]interface{}  "记录不存在"
// @Router       /contracts/{id}/report [get]
func (h *ContractHandler) report(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	rev, err := h.engine.Get(c.Request.Context(), id, TenantID(c))
	if err != nil {
		c.Error(err)
		return
	}
	pdf, err := h.renderer.Render(c.Request.Context(), rev)
	if err != nil {
		c.Error(err)
		return
	}
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// reprocess godoc
// @Summary      重新处理审查记录
// @Description  清除已索引的分段，重置为 PENDING 并重新入队分析
// @Tags         合同审查
// @Produce      json
// @Param        id   path      int  true  "审查记录 ID"
// @Success      202  {object}  map[string]interface{}  "已重新入队"
// @Failure      404  {object}  map[string]interface{}  "记录不存在"
// @Router       /contracts/{id}/reprocess [post]
func (h *ContractHandler) reprocess(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	if err := h.engine.Reprocess(c.Request.Context(), id, TenantID(c)); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"reviewId": id, "status": "PENDING"})
}

// analyzeAsync godoc
// @Summary      异步分析合同（SSE）
// @Description  若分析尚未开始则触发分析，随后以 SSE 转发 progress/result/complete 事件，直至终止事件或连接超时
// @Tags         合同审查
// @Produce      text/event-stream
// @Param        id   path      int  true  "审查记录 ID"
// @Success      200  {string}  string  "text/event-stream"
// @Failure      404  {object}  map[string]interface{}  "记录不存在"
// @Router       /contracts/{id}/analyze-async [get]
func (h *ContractHandler) analyzeAsync(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	tenantID := TenantID(c)

	if _, err := h.engine.TriggerAnalysis(c.Request.Context(), id, tenantID); err != nil {
		c.Error(err)
		return
	}

	ch, unsubscribe := h.engine.Subscribe(id)
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	writeSSE(c, "connected", gin.H{"reviewId": id})

	timeout := time.NewTimer(h.sseTimeout)
	defer timeout.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-timeout.C:
			writeSSE(c, "timeout", gin.H{"message": "connection timeout", "reviewId": id})
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			writeSSE(c, string(evt.Type), evt.Payload)
			if evt.Type == "complete" || evt.Type == "error" {
				return
			}
		}
	}
}

func writeSSE(c *gin.Context, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte(`{}`)
	}
	c.SSEvent(event, string(data))
	c.Writer.Flush()
}
