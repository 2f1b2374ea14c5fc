// Package judge 封裝對外部評測服務 (Judge0) 的呼叫
// 核心只需要每組測試資料的通過與否，評測協議細節都收在這裡
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"codebattle/internal/models"
)

// ErrUnsupportedLanguage 表示提交了不支援的語言
var ErrUnsupportedLanguage = errors.New("unsupported language")

// languageIDs 對應 Judge0 的語言編號
var languageIDs = map[string]int{
	"java":       62, // Java (OpenJDK 13.0.1)
	"javascript": 93,
	"python":     71,
}

const (
	pollInterval    = time.Second
	maxPollAttempts = 20
)

// Client 是 Judge0 REST API 的客戶端
type Client struct {
	baseURL    string
	apiKey     string
	apiHost    string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey, apiHost string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		apiHost: apiHost,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Status 是 Judge0 回傳的執行狀態
type Status struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// TestResult 是單一測試資料的評測結果
type TestResult struct {
	Token         string `json:"token"`
	Stdout        string `json:"stdout"`
	Stderr        string `json:"stderr"`
	CompileOutput string `json:"compile_output"`
	Time          string `json:"time"`
	Status        Status `json:"status"`
}

// Accepted 檢查該測試資料是否通過
func (r TestResult) Accepted() bool {
	return r.Status.Description == "Accepted"
}

// finished 表示評測已離開排隊/執行中狀態
func (r TestResult) finished() bool {
	return r.Status.ID >= 3
}

type submissionRequest struct {
	SourceCode     string `json:"source_code"`
	LanguageID     int    `json:"language_id"`
	Stdin          string `json:"stdin,omitempty"`
	ExpectedOutput string `json:"expected_output,omitempty"`
}

// RunBatch 將程式碼對題目的每組測試資料送交批次評測並輪詢結果
// 回傳的結果順序與測試資料順序一致
func (c *Client) RunBatch(ctx context.Context, code, language string, cases []models.TestCase) ([]TestResult, error) {
	languageID, ok := languageIDs[language]
	if !ok {
		return nil, ErrUnsupportedLanguage
	}

	submissions := make([]submissionRequest, 0, len(cases))
	for _, tc := range cases {
		submissions = append(submissions, submissionRequest{
			SourceCode:     code,
			LanguageID:     languageID,
			Stdin:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
		})
	}

	body := map[string]interface{}{"submissions": submissions}
	var created []struct {
		Token string `json:"token"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/batch?base64_encoded=false&fields=*", body, &created); err != nil {
		return nil, fmt.Errorf("judge batch submit: %v", err)
	}

	tokens := make([]string, 0, len(created))
	for _, s := range created {
		tokens = append(tokens, s.Token)
	}

	return c.pollBatch(ctx, tokens)
}

// RunSingle 以自訂輸入執行一次程式碼，Judge0 以 wait=true 同步回傳
func (c *Client) RunSingle(ctx context.Context, code, language, stdin string) (*TestResult, error) {
	languageID, ok := languageIDs[language]
	if !ok {
		return nil, ErrUnsupportedLanguage
	}

	body := submissionRequest{
		SourceCode: code,
		LanguageID: languageID,
		Stdin:      stdin,
	}

	var result TestResult
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"?base64_encoded=false&wait=true&fields=*", body, &result); err != nil {
		return nil, fmt.Errorf("judge run: %v", err)
	}
	return &result, nil
}

// pollBatch 以固定間隔輪詢批次結果，直到所有評測完成或逾時
func (c *Client) pollBatch(ctx context.Context, tokens []string) ([]TestResult, error) {
	endpoint := fmt.Sprintf("%s/batch?tokens=%s&base64_encoded=false&fields=*",
		c.baseURL, url.QueryEscape(strings.Join(tokens, ",")))

	for attempt := 0; attempt < maxPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}

		var resp struct {
			Submissions []TestResult `json:"submissions"`
		}
		if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
			return nil, fmt.Errorf("judge batch poll: %v", err)
		}

		done := true
		for _, r := range resp.Submissions {
			if !r.finished() {
				done = false
				break
			}
		}
		if done {
			return resp.Submissions, nil
		}
	}

	return nil, errors.New("judge batch poll timed out")
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, body, out interface{}) error {
	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.apiHost)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// CountPassed 統計通過的測試資料數量
func CountPassed(results []TestResult) int {
	count := 0
	for _, r := range results {
		if r.Accepted() {
			count++
		}
	}
	return count
}
