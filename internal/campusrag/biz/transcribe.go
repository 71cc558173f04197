package biz

import (
	"context"

	ctxlog "github.com/kart-io/campus-rag/pkg/infra/logger"
	"github.com/kart-io/campus-rag/pkg/llm"
	"github.com/kart-io/campus-rag/pkg/utils/errors"
)

// AudioTranscriber 在调用转写后端前检查音频大小。
type AudioTranscriber struct {
	backend llm.Transcriber
	maxSize int64
}

// NewAudioTranscriber 创建转写服务，maxSize 为允许的最大字节数。
func NewAudioTranscriber(backend llm.Transcriber, maxSize int64) *AudioTranscriber {
	return &AudioTranscriber{backend: backend, maxSize: maxSize}
}

// MaxSize 返回允许的最大音频字节数。
func (t *AudioTranscriber) MaxSize() int64 {
	return t.maxSize
}

// Transcribe 转写音频。超过大小上限时直接返回 ErrAudioTooLarge，不访问后端。
// 后端报告未识别到语音或非成功状态时返回空串。
func (t *AudioTranscriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if int64(len(audio)) > t.maxSize {
		return "", errors.ErrAudioTooLarge
	}

	text, err := t.backend.Transcribe(ctx, audio, filename)
	if err != nil {
		return "", errors.ErrTranscribeFailed.WithCause(err)
	}
	if text == "" {
		ctxlog.GetLogger(ctx).Infow("empty transcript", "filename", filename, "bytes", len(audio))
	}
	return text, nil
}
