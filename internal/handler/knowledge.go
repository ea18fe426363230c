package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Tencent/WeKnora/internal/errors"
	"github.com/Tencent/WeKnora/internal/knowledge"
	"github.com/Tencent/WeKnora/internal/types"
)

// KnowledgeHandler implements the Knowledge-Doc Registry's HTTP routes (§6):
// upload, list, get, and delete over the legal corpus the Advanced-RAG
// Service retrieves from.
type KnowledgeHandler struct {
	svc *knowledge.Service
}

// NewKnowledgeHandler builds a KnowledgeHandler.
func NewKnowledgeHandler(svc *knowledge.Service) *KnowledgeHandler {
	return &KnowledgeHandler{svc: svc}
}

// RegisterRoutes wires the knowledge-document endpoints onto rg.
func (h *KnowledgeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/knowledge/documents", h.upload)
	rg.GET("/knowledge/documents", h.list)
	rg.GET("/knowledge/documents/:id", h.get)
	rg.DELETE("/knowledge/documents/:id", h.delete)
}

// upload godoc
// @Summary      上传知识库文档
// @Description  解析并索引一份法律参考文档（法律、法规、判例或合同模板），按内容哈希去重
// @Tags         知识库
// @Accept       multipart/form-data
// @Produce      json
// @Param        file          formData  file    true   "文档文件"
// @Param        title         formData  string  false  "文档标题，默认取文件名"
// @Param        documentType  formData  string  false  "文档类型：LAW/REGULATION/CASE/CONTRACT_TEMPLATE"
// @Success      201  {object}  types.KnowledgeDocument
// @Failure      400  {object}  map[string]interface{}  "缺少文件字段或文档无可提取文本"
// @Router       /knowledge/documents [post]
func (h *KnowledgeHandler) upload(c *gin.Context) {
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

	docType := types.DocumentType(c.DefaultPostForm("documentType", string(types.DocumentTypeLaw)))
	title := c.PostForm("title")

	doc, err := h.svc.Ingest(c.Request.Context(), TenantID(c), title, fileHeader.Filename, fileHeader.Size, docType, f)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// list godoc
// @Summary      列出知识库文档
// @Description  返回当前租户索引的全部知识库文档
// @Tags         知识库
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "文档列表"
// @Router       /knowledge/documents [get]
func (h *KnowledgeHandler) list(c *gin.Context) {
	docs, err := h.svc.List(c.Request.Context(), TenantID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": docs, "total": len(docs)})
}

// get godoc
// @Summary      获取知识库文档
// @Description  返回单篇知识库文档的完整内容
// @Tags         知识库
// @Produce      json
// @Param        id   path      string  true  "文档 ID"
// @Success      200  {object}  types.KnowledgeDocument
// @Failure      404  {object}  map[string]interface{}  "文档不存在"
// @Router       /knowledge/documents/{id} [get]
func (h *KnowledgeHandler) get(c *gin.Context) {
	doc, err := h.svc.Get(c.Request.Context(), c.Param("id"), TenantID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// delete godoc
// @Summary      删除知识库文档
// @Description  删除文档记录及其已索引的全部向量分段
// @Tags         知识库
// @Produce      json
// @Param        id   path      string  true  "文档 ID"
// @Success      204  {object}  nil
// @Failure      404  {object}  map[string]interface{}  "文档不存在"
// @Router       /knowledge/documents/{id} [delete]
func (h *KnowledgeHandler) delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.Delete(c.Request.Context(), id, TenantID(c)); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
