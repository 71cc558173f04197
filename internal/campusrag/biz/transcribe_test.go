package biz

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/campus-rag/pkg/utils/errors"
)

func TestAudioTranscriber(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		backend   *fakeTranscriber
		want      string
		wantErr   *errors.Errno
		wantCalls int32
	}{
		{name: "正常转写", size: 1024, backend: &fakeTranscriber{text: "hello"}, want: "hello", wantCalls: 1},
		{name: "恰好上限", size: 2 << 20, backend: &fakeTranscriber{text: "ok"}, want: "ok", wantCalls: 1},
		{name: "超过上限", size: 2<<20 + 1, backend: &fakeTranscriber{text: "never"}, wantErr: errors.ErrAudioTooLarge},
		{name: "未识别到语音", size: 10, backend: &fakeTranscriber{}, want: "", wantCalls: 1},
		{name: "后端错误", size: 10, backend: &fakeTranscriber{err: stderrors.New("dial tcp")}, wantErr: errors.ErrTranscribeFailed, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewAudioTranscriber(tt.backend, 2<<20)
			got, err := tr.Transcribe(context.Background(), make([]byte, tt.size), "audio.webm")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.Equal(t, tt.wantCalls, tt.backend.calls.Load())
		})
	}
}
