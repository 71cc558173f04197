package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/campus-rag/internal/pkg/httputils"
)

// TranscriptResponse 是 /transcribe 的响应体。
type TranscriptResponse struct {
	Transcript string `json:"transcript"`
}

// Transcribe 转写上传的音频。只读取 MaxAudioSize+1 字节，超限由 Provider 拒绝。
func (h *Handler) Transcribe(c *gin.Context) {
	p, ok := tenant(c)
	if !ok {
		return
	}

	audio, filename, err := readUpload(c, p.MaxAudioSize()+1)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}

	text, err := p.TranscribeAudio(c.Request.Context(), audio, filename)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, TranscriptResponse{Transcript: text})
}
