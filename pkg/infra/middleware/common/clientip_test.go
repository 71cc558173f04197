package common

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		xff     string
		xri     string
		trusted []string
		want    string
	}{
		{"未配置代理时忽略 XFF", "203.0.113.9:5000", "1.1.1.1", "", nil, "203.0.113.9"},
		{"可信代理取 XFF 第一个", "10.0.0.2:5000", "198.51.100.7, 10.0.0.2", "", []string{"10.0.0.0/8"}, "198.51.100.7"},
		{"可信代理单 IP", "127.0.0.1:80", "", "198.51.100.8", []string{"127.0.0.1"}, "198.51.100.8"},
		{"非法 XFF 回退到 RemoteAddr", "10.0.0.2:5000", "not-an-ip", "", []string{"10.0.0.0/8"}, "10.0.0.2"},
		{"不可信来源", "192.168.1.5:5000", "1.1.1.1", "", []string{"10.0.0.0/8", "bad/cidr"}, "192.168.1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/transcribe", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.want, ClientIP(req, tt.trusted))
		})
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))

	rid := GenerateRequestID()
	assert.Len(t, rid, 26)
	assert.NotEqual(t, rid, GenerateRequestID())
	assert.Equal(t, rid, GetRequestID(WithRequestID(ctx, rid)))
}
