// Package azure 封装 Azure Speech 短音频识别 REST 接口。
package azure

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kart-io/logger"

	"github.com/kart-io/campus-rag/pkg/llm"
	azureopts "github.com/kart-io/campus-rag/pkg/options/azure"
	"github.com/kart-io/campus-rag/pkg/utils/httpclient"
)

// 识别状态，见 RecognitionStatus 字段。
const (
	StatusSuccess = "Success"
	StatusNoMatch = "NoMatch"
)

const wavContentType = "audio/wav; codecs=audio/pcm; samplerate=16000"

// Result 识别接口响应体（simple 格式）。
type Result struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	Offset            int64  `json:"Offset"`
	Duration          int64  `json:"Duration"`
}

// Client 实现 llm.Transcriber。
type Client struct {
	http *httpclient.Client
	opts *azureopts.SpeechOptions
}

var _ llm.Transcriber = (*Client)(nil)

// New 创建语音识别客户端。
func New(opts *azureopts.SpeechOptions) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("azure speech options cannot be nil")
	}
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid azure speech options: %w", errs[0])
	}
	return &Client{
		http: httpclient.NewClient(opts.Timeout, 0),
		opts: opts,
	}, nil
}

// Transcribe 识别一段 WAV 音频。
// 传输失败返回错误；识别未成功（包括 NoMatch）返回空字符串并记录日志。
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	u, err := url.Parse(c.opts.Endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid speech endpoint: %w", err)
	}
	q := u.Query()
	q.Set("language", c.opts.Language)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("create speech request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.opts.APIKey)
	req.Header.Set("Content-Type", wavContentType)
	req.Header.Set("Accept", "application/json")

	logger.Infow("sending audio for azure transcription", "filename", filename, "bytes", len(audio))

	var res Result
	if err := c.http.DoJSON(req, &res); err != nil {
		return "", fmt.Errorf("azure speech request: %w", err)
	}

	switch res.RecognitionStatus {
	case StatusSuccess:
		return res.DisplayText, nil
	case StatusNoMatch:
		logger.Warnw("no speech could be recognized", "filename", filename)
		return "", nil
	default:
		logger.Errorw("speech recognition failed", "status", res.RecognitionStatus, "filename", filename)
		return "", nil
	}
}
