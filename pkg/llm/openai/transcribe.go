package openai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/kart-io/logger"
)

const audioSuffix = ".webm"

// Transcribe 调用 /audio/transcriptions。音频先落盘为临时 .webm 文件再以
// multipart 上传，临时文件在任何返回路径上都会被删除。
// 上传的文件名取临时文件名，服务端据扩展名识别格式。
func (p *Provider) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if p.azure {
		return "", fmt.Errorf("transcription is not supported by azure openai")
	}

	tmp, err := os.CreateTemp("", "campus-rag-audio-*"+audioSuffix)
	if err != nil {
		return "", fmt.Errorf("create temp audio file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			logger.Warnw("failed to remove temp audio file", "path", tmpPath, "error", err.Error())
		}
	}()

	if _, err := tmp.Write(audio); err != nil {
		return "", fmt.Errorf("write temp audio file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind temp audio file: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := writeTranscriptionForm(mw, p.transcribeModel, filepath.Base(tmpPath), tmp); err != nil {
		return "", fmt.Errorf("build multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint("", "audio/transcriptions"), &body)
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	p.setHeaders(req)

	logger.Debugw("transcribing audio", "filename", filename, "bytes", len(audio))

	var resp struct {
		Text string `json:"text"`
	}
	if err := p.client.DoJSON(req, &resp); err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	return resp.Text, nil
}

func writeTranscriptionForm(mw *multipart.Writer, model, filename string, audio io.Reader) error {
	if err := mw.WriteField("model", model); err != nil {
		return err
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, audio); err != nil {
		return err
	}
	return mw.Close()
}
