package cache

import (
	"context"
	"net/http"
	"time"

	"EchoFM/logger"
)

var probeClient = &http.Client{Timeout: 3 * time.Second}

// ProbeURL 对流媒体URL做存活探测。200/206视为可用（CDN对HEAD常回206）
func ProbeURL(ctx context.Context, url string) bool {
	if url == "" {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	resp, err := probeClient.Do(req)
	if err != nil {
		logger.Debug("流地址探测失败", logger.String("url", url), logger.ErrorField(err))
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusPartialContent
}
