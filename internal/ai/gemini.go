// Package ai 封裝對生成式文字服務 (Gemini) 的呼叫
// 賽評內容僅供觀賞，不參與勝負判定
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Tone 是賽評的語氣分類
type Tone string

const (
	ToneCelebratory Tone = "celebratory" // 全數通過
	ToneEncouraging Tone = "encouraging" // 部分通過
	ToneSympathetic Tone = "sympathetic" // 全軍覆沒
)

// ToneFor 依通過的測試數量決定賽評語氣
func ToneFor(passed, total int) Tone {
	switch {
	case total > 0 && passed == total:
		return ToneCelebratory
	case passed == 0:
		return ToneSympathetic
	default:
		return ToneEncouraging
	}
}

// instruction 回傳各語氣對應的提示規則
func (t Tone) instruction() string {
	switch t {
	case ToneCelebratory:
		return "They passed all tests, so be celebratory."
	case ToneSympathetic:
		return "They passed none, so be sympathetic but highlight the challenge."
	default:
		return "They passed some but not all, so be encouraging but note the partial success."
	}
}

// BuildPrompt 產生固定格式的賽評提示詞
func BuildPrompt(problemTitle string, passed, total int) string {
	var b strings.Builder
	b.WriteString("You are an excited eSports commentator for a competitive coding battle.\n")
	fmt.Fprintf(&b, "A user just submitted a solution for a problem titled %q.\n", problemTitle)
	fmt.Fprintf(&b, "They passed %d out of %d test cases.\n", passed, total)
	b.WriteString("Generate a short, punchy, and exciting commentary line about this event. ")
	b.WriteString(ToneFor(passed, total).instruction())
	b.WriteString("\nCommentary:")
	return b.String()
}

// Client 是 Gemini generateContent API 的客戶端
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// GenerateCommentary 產生一句針對該次提交的賽評
func (c *Client) GenerateCommentary(ctx context.Context, problemTitle string, passed, total int) (string, error) {
	prompt := BuildPrompt(problemTitle, passed, total)

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini: unexpected status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini: empty response")
	}

	return strings.TrimSpace(out.Candidates[0].Content.Parts[0].Text), nil
}
