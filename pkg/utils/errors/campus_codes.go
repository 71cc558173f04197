package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// campus-rag 业务错误码 (服务代码 20)。
// 后端故障统一映射为 5xx，具体原因只写日志不返回给调用方。

var (
	// 请求类 (01)
	ErrInvalidQuery       = NewRequestErr(ServiceCampusRAG, 1, "Query must not be empty", "查询内容不能为空")
	ErrEmptyExtractedText = NewRequestErr(ServiceCampusRAG, 2, "Extracted text is empty", "提取的文本为空")
	ErrUnreadableFile     = NewRequestErr(ServiceCampusRAG, 3, "Uploaded file could not be read", "上传文件无法读取")
	ErrFetchURLFailed     = NewRequestErr(ServiceCampusRAG, 4, "Failed to fetch URL", "URL 获取失败")
	ErrAudioTooLarge      = NewError(ServiceCampusRAG, CategoryRequest, 5, http.StatusRequestEntityTooLarge, codes.InvalidArgument, "Audio file too large", "音频文件过大")

	// 内部错误 (07)
	ErrRetrievalFailed  = NewInternalErr(ServiceCampusRAG, 1, "Failed to retrieve context", "检索上下文失败")
	ErrGenerationFailed = NewInternalErr(ServiceCampusRAG, 2, "Failed to generate answer", "生成回答失败")
	ErrIngestFailed     = NewInternalErr(ServiceCampusRAG, 3, "Failed to ingest document", "文档入库失败")
	ErrTranslateFailed  = NewInternalErr(ServiceCampusRAG, 4, "Failed to translate FAQs", "FAQ 翻译失败")
	ErrTranscribeFailed = NewInternalErr(ServiceCampusRAG, 5, "Failed to transcribe audio", "音频转写失败")
	ErrAnalyticsFailed  = NewInternalErr(ServiceCampusRAG, 6, "Failed to search analytics", "分析检索失败")

	// 存储类 (08)
	ErrFAQFetchFailed       = NewDatabaseErr(ServiceCampusRAG, 1, "Failed to fetch FAQs", "获取 FAQ 失败")
	ErrDocumentDeleteFailed = NewDatabaseErr(ServiceCampusRAG, 2, "Failed to delete documents", "删除文档失败")
)
