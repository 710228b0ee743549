package api

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) VerifyOTP(ctx context.Context, phone, otp string) (AuthVerifyResponse, error) {
	var out AuthVerifyResponse
	err := c.do(ctx, http.MethodPost, "/auth/verify", AuthVerifyRequest{Phone: phone, OTP: otp}, &out)
	return out, err
}

func (c *Client) Me(ctx context.Context) (MeResponse, error) {
	var out MeResponse
	err := c.do(ctx, http.MethodGet, "/me", nil, &out)
	return out, err
}

func (c *Client) SetupProfile(ctx context.Context, req ProfileSetupRequest) error {
	return c.do(ctx, http.MethodPost, "/profile/setup", req, nil)
}

// PlanItems 按日期过滤计划项；date 为空表示取全部。
// PlanItems fetches plan items filtered by date; an empty date fetches all.
func (c *Client) PlanItems(ctx context.Context, date string) ([]PlanItem, error) {
	path := "/planner/items"
	if date != "" {
		path += "?date=" + url.QueryEscape(date)
	}
	var out struct {
		Items []PlanItem `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) GeneratePlan(ctx context.Context, req PlanGenerateRequest) error {
	return c.do(ctx, http.MethodPost, "/planner/generate", req, nil)
}

func (c *Client) LogProgress(ctx context.Context, req StudyLogRequest) error {
	return c.do(ctx, http.MethodPost, "/planner/log", req, nil)
}

func (c *Client) AnalyticsDashboard(ctx context.Context) (Dashboard, error) {
	var out Dashboard
	err := c.do(ctx, http.MethodGet, "/analytics/dashboard", nil, &out)
	return out, err
}

func (c *Client) Resources(ctx context.Context) ([]Resource, error) {
	var out struct {
		Resources []Resource `json:"resources"`
	}
	if err := c.do(ctx, http.MethodGet, "/resources", nil, &out); err != nil {
		return nil, err
	}
	return out.Resources, nil
}

func (c *Client) CreateResource(ctx context.Context, req ResourceCreateRequest) (Resource, error) {
	var out Resource
	err := c.do(ctx, http.MethodPost, "/resources", req, &out)
	return out, err
}

func (c *Client) SendChatMessage(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	var out ChatResponse
	err := c.do(ctx, http.MethodPost, "/chat/message", req, &out)
	return out, err
}

func (c *Client) ChatHistory(ctx context.Context, sessionID string) ([]ChatHistoryMessage, error) {
	var out struct {
		Messages []ChatHistoryMessage `json:"messages"`
	}
	if err := c.do(ctx, http.MethodGet, "/chat/history/"+url.PathEscape(sessionID), nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

func (c *Client) GenerateMCQs(ctx context.Context, req MCQGenerateRequest) (MCQSet, error) {
	var out MCQSet
	err := c.do(ctx, http.MethodPost, "/mcq/generate", req, &out)
	return out, err
}

func (c *Client) GenerateFlashcards(ctx context.Context, req FlashcardGenerateRequest) ([]Flashcard, error) {
	var out struct {
		Flashcards []Flashcard `json:"flashcards"`
	}
	if err := c.do(ctx, http.MethodPost, "/flashcards/generate", req, &out); err != nil {
		return nil, err
	}
	return out.Flashcards, nil
}

func (c *Client) FlashcardsForReview(ctx context.Context) ([]Flashcard, error) {
	var out struct {
		Flashcards []Flashcard `json:"flashcards"`
	}
	if err := c.do(ctx, http.MethodGet, "/flashcards/review", nil, &out); err != nil {
		return nil, err
	}
	return out.Flashcards, nil
}

func (c *Client) EvaluateAnswer(ctx context.Context, req EvaluationRequest) (Evaluation, error) {
	var out Evaluation
	err := c.do(ctx, http.MethodPost, "/evaluation/answer", req, &out)
	return out, err
}
