package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"dlt-predictor/internal/config"
	"dlt-predictor/internal/database"
	"dlt-predictor/internal/logger"
)

// ErrNoData 接口没有返回可用的开奖数据
var ErrNoData = errors.New("no draw data returned from API")

// Recorder 接口调用指标
type Recorder interface {
	RecordLatency(op string, d time.Duration)
	RecordError(kind string)
}

// Client 开奖数据接口客户端
type Client struct {
	httpClient *http.Client
	baseURL    string
	retryCount int
	retryDelay time.Duration
	recorder   Recorder
}

// NewClient 创建新的API客户端
func NewClient(cfg *config.API) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:    cfg.URL,
		retryCount: cfg.RetryCount,
		retryDelay: cfg.RetryDelay,
	}
}

// SetRecorder 设置指标记录
func (c *Client) SetRecorder(r Recorder) {
	c.recorder = r
}

// FetchDraws 获取最近 limit 期开奖数据，失败时按 retryDelay 线性退避重试
func (c *Client) FetchDraws(ctx context.Context, limit int) (*database.APIResponse, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API url: %w", err)
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	start := time.Now()
	var lastErr error
	for attempt := 0; attempt <= c.retryCount; attempt++ {
		if attempt > 0 {
			logger.Warnf("API request retry attempt %d/%d", attempt, c.retryCount)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			}
		}

		resp, err := c.makeRequest(ctx, u.String())
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if c.recorder != nil {
			c.recorder.RecordLatency("api_fetch", time.Since(start))
		}
		return resp, nil
	}

	if c.recorder != nil {
		c.recorder.RecordError("api_fetch")
	}
	return nil, fmt.Errorf("failed to fetch draw data after %d attempts: %w", c.retryCount+1, lastErr)
}

// makeRequest 执行HTTP请求
func (c *Client) makeRequest(ctx context.Context, target string) (*database.APIResponse, error) {
	logger.Debugf("Making API request to: %s", target)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP request failed with status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var apiResponse database.APIResponse
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if apiResponse.Message != "success" {
		return nil, fmt.Errorf("API returned error message: %s", apiResponse.Message)
	}

	logger.Debugf("API request successful, got %d records", len(apiResponse.Data))
	return &apiResponse, nil
}

// ConvertAPIData 转换接口数据为开奖记录并校验号码
func ConvertAPIData(d database.APIDrawData) (*database.DrawRecord, error) {
	date, err := database.ParseDrawDate(d.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to parse draw date: %w", err)
	}
	front, err := database.ParseNumbers(d.Front)
	if err != nil {
		return nil, fmt.Errorf("failed to parse front numbers: %w", err)
	}
	back, err := database.ParseNumbers(d.Back)
	if err != nil {
		return nil, fmt.Errorf("failed to parse back numbers: %w", err)
	}

	record := &database.DrawRecord{
		Issue:    d.Issue,
		DrawDate: date,
		Front:    database.SortedCopy(front),
		Back:     database.SortedCopy(back),
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	return record, nil
}

// FetchLatestDraw 获取最新一期开奖数据
func (c *Client) FetchLatestDraw(ctx context.Context) (*database.DrawRecord, error) {
	records, err := c.GetHistoricalData(ctx, 10)
	if err != nil {
		return nil, err
	}
	latest := records[len(records)-1]
	logger.Debugf("Latest draw: %s %v + %v", latest.Issue, latest.Front, latest.Back)
	return &latest, nil
}

// GetHistoricalData 获取历史数据，跳过无法解析的记录，旧到新返回
func (c *Client) GetHistoricalData(ctx context.Context, limit int) ([]database.DrawRecord, error) {
	apiResponse, err := c.FetchDraws(ctx, limit)
	if err != nil {
		return nil, err
	}

	var records []database.DrawRecord
	for _, d := range apiResponse.Data {
		record, err := ConvertAPIData(d)
		if err != nil {
			logger.Warnf("Failed to convert API data for issue %s: %v", d.Issue, err)
			continue
		}
		records = append(records, *record)
	}
	if len(records) == 0 {
		return nil, ErrNoData
	}

	logger.Debugf("Retrieved %d historical draws", len(records))
	return database.Chronological(records), nil
}

// HealthCheck 检查API健康状态
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.FetchDraws(ctx, 1); err != nil {
		return fmt.Errorf("API health check failed: %w", err)
	}
	logger.Debugf("API health check passed")
	return nil
}
