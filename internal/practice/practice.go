package practice

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"sarathi/internal/api"
)

// Backend 练习功能依赖的后端调用。
// Backend is the set of backend calls practice depends on.
type Backend interface {
	GenerateMCQs(ctx context.Context, req api.MCQGenerateRequest) (api.MCQSet, error)
	GenerateFlashcards(ctx context.Context, req api.FlashcardGenerateRequest) ([]api.Flashcard, error)
	FlashcardsForReview(ctx context.Context) ([]api.Flashcard, error)
	EvaluateAnswer(ctx context.Context, req api.EvaluationRequest) (api.Evaluation, error)
}

// 答卷图片超过此大小不再上送。
// Answer images larger than this are rejected before upload.
const maxAnswerImageBytes = 5 << 20

const (
	defaultMCQCount = 5
	maxMCQCount     = 20
)

// Service 封装测验、闪卡和主观题批改。
// Service wraps quizzes, flashcards and answer evaluation.
type Service struct {
	backend Backend
}

func NewService(backend Backend) *Service {
	return &Service{backend: backend}
}

// StartQuiz 向后端要一组选择题并开启本地测验会话。
// StartQuiz asks the backend for an MCQ set and opens a local quiz session.
func (s *Service) StartQuiz(ctx context.Context, subject api.Subject, topic string, count int) (*Quiz, error) {
	if !validSubject(subject) {
		return nil, &ValidationError{Field: "subject", Reason: "unknown subject " + string(subject)}
	}
	if count <= 0 {
		count = defaultMCQCount
	}
	if count > maxMCQCount {
		count = maxMCQCount
	}

	set, err := s.backend.GenerateMCQs(ctx, api.MCQGenerateRequest{
		Subject: subject,
		Topic:   strings.TrimSpace(topic),
		Count:   count,
	})
	if err != nil {
		return nil, err
	}
	if len(set.Questions) == 0 {
		return nil, fmt.Errorf("backend returned an empty question set")
	}
	return NewQuiz(set), nil
}

// GenerateFlashcards 按科目和主题生成闪卡。
// GenerateFlashcards generates flashcards for a subject and topic.
func (s *Service) GenerateFlashcards(ctx context.Context, subject api.Subject, topic string, count int) ([]api.Flashcard, error) {
	if !validSubject(subject) {
		return nil, &ValidationError{Field: "subject", Reason: "unknown subject " + string(subject)}
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, &ValidationError{Field: "topic", Reason: "topic is required"}
	}
	if count <= 0 {
		count = defaultMCQCount
	}
	return s.backend.GenerateFlashcards(ctx, api.FlashcardGenerateRequest{
		Subject: subject,
		Topic:   topic,
		Count:   count,
	})
}

// DueFlashcards 返回到期待复习的闪卡。
// DueFlashcards returns the flashcards due for review.
func (s *Service) DueFlashcards(ctx context.Context) ([]api.Flashcard, error) {
	return s.backend.FlashcardsForReview(ctx)
}

// EvaluateAnswer 读取答卷图片、base64 编码后提交批改。
// EvaluateAnswer reads the answer image, base64-encodes it and submits it
// for evaluation.
func (s *Service) EvaluateAnswer(ctx context.Context, question, imagePath string) (api.Evaluation, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return api.Evaluation{}, &ValidationError{Field: "question", Reason: "question is required"}
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return api.Evaluation{}, fmt.Errorf("read answer image: %w", err)
	}
	if len(data) > maxAnswerImageBytes {
		return api.Evaluation{}, &ValidationError{Field: "answer_image", Reason: "image exceeds 5 MB"}
	}

	return s.backend.EvaluateAnswer(ctx, api.EvaluationRequest{
		Question:    question,
		AnswerImage: base64.StdEncoding.EncodeToString(data),
	})
}

func validSubject(subject api.Subject) bool {
	for _, s := range api.AllSubjects() {
		if s == subject {
			return true
		}
	}
	return false
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}
