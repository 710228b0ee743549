package practice

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"sarathi/internal/api"
)

type fakeBackend struct {
	set       api.MCQSet
	mcqErr    error
	cards     []api.Flashcard
	cardsErr  error
	eval      api.Evaluation
	evalErr   error
	evalReqs  []api.EvaluationRequest
	mcqReqs   []api.MCQGenerateRequest
	cardReqs  []api.FlashcardGenerateRequest
	dueCalled int
}

func (f *fakeBackend) GenerateMCQs(ctx context.Context, req api.MCQGenerateRequest) (api.MCQSet, error) {
	f.mcqReqs = append(f.mcqReqs, req)
	return f.set, f.mcqErr
}

func (f *fakeBackend) GenerateFlashcards(ctx context.Context, req api.FlashcardGenerateRequest) ([]api.Flashcard, error) {
	f.cardReqs = append(f.cardReqs, req)
	return f.cards, f.cardsErr
}

func (f *fakeBackend) FlashcardsForReview(ctx context.Context) ([]api.Flashcard, error) {
	f.dueCalled++
	return f.cards, f.cardsErr
}

func (f *fakeBackend) EvaluateAnswer(ctx context.Context, req api.EvaluationRequest) (api.Evaluation, error) {
	f.evalReqs = append(f.evalReqs, req)
	return f.eval, f.evalErr
}

func sampleSet() api.MCQSet {
	return api.MCQSet{
		ID:      "set1",
		Title:   "Polity basics",
		Subject: api.SubjectGS2,
		Questions: []api.MCQQuestion{
			{ID: "q1", Stem: "Which article?", Options: []string{"A", "B", "C", "D"}, AnswerIndex: 2},
			{ID: "q2", Stem: "Which schedule?", Options: []string{"A", "B", "C", "D"}, AnswerIndex: 0},
			{ID: "q3", Stem: "Which part?", Options: []string{"A", "B", "C", "D"}, AnswerIndex: 3},
		},
	}
}

func TestStartQuiz(t *testing.T) {
	backend := &fakeBackend{set: sampleSet()}
	svc := NewService(backend)

	quiz, err := svc.StartQuiz(context.Background(), api.SubjectGS2, "polity", 0)
	if err != nil {
		t.Fatal(err)
	}
	if quiz.Len() != 3 {
		t.Fatalf("len=%d", quiz.Len())
	}
	// count<=0 使用默认值 / non-positive count falls back to the default
	if backend.mcqReqs[0].Count != defaultMCQCount {
		t.Fatalf("count=%d", backend.mcqReqs[0].Count)
	}
}

func TestStartQuizRejectsUnknownSubject(t *testing.T) {
	svc := NewService(&fakeBackend{})
	_, err := svc.StartQuiz(context.Background(), "astrology", "", 5)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "subject" {
		t.Fatalf("err=%v", err)
	}
}

func TestStartQuizClampsCount(t *testing.T) {
	backend := &fakeBackend{set: sampleSet()}
	svc := NewService(backend)
	if _, err := svc.StartQuiz(context.Background(), api.SubjectGS1, "", 99); err != nil {
		t.Fatal(err)
	}
	if backend.mcqReqs[0].Count != maxMCQCount {
		t.Fatalf("count=%d", backend.mcqReqs[0].Count)
	}
}

func TestStartQuizEmptySet(t *testing.T) {
	svc := NewService(&fakeBackend{set: api.MCQSet{}})
	if _, err := svc.StartQuiz(context.Background(), api.SubjectGS1, "", 5); err == nil {
		t.Fatalf("empty set must be an error")
	}
}

func TestQuizGradingAndReview(t *testing.T) {
	quiz := NewQuiz(sampleSet())

	correct, err := quiz.Answer(2) // q1 answer_index=2
	if err != nil || !correct {
		t.Fatalf("correct=%v err=%v", correct, err)
	}
	correct, err = quiz.Answer(1) // q2 answer_index=0
	if err != nil || correct {
		t.Fatalf("wrong pick graded correct")
	}
	quiz.Skip()

	if !quiz.Done() {
		t.Fatalf("quiz should be done")
	}
	gotCorrect, answered, total := quiz.Score()
	if gotCorrect != 1 || answered != 2 || total != 3 {
		t.Fatalf("score=%d/%d/%d", gotCorrect, answered, total)
	}

	review := quiz.Review()
	if len(review) != 3 {
		t.Fatalf("review=%d", len(review))
	}
	if !review[0].Correct || review[1].Correct || !review[2].Skipped {
		t.Fatalf("review=%+v", review)
	}
}

func TestQuizAnswerOutOfRange(t *testing.T) {
	quiz := NewQuiz(sampleSet())
	if _, err := quiz.Answer(7); err == nil {
		t.Fatalf("out-of-range pick must fail")
	}
	// 失败的作答不前进 / a failed answer must not advance
	if _, pos, ok := quiz.Current(); !ok || pos != 1 {
		t.Fatalf("pos=%d ok=%v", pos, ok)
	}
}

func TestGenerateFlashcardsRequiresTopic(t *testing.T) {
	svc := NewService(&fakeBackend{})
	_, err := svc.GenerateFlashcards(context.Background(), api.SubjectGS1, "  ", 5)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "topic" {
		t.Fatalf("err=%v", err)
	}
}

func TestEvaluateAnswerEncodesImage(t *testing.T) {
	img := []byte("fake-png-bytes")
	path := filepath.Join(t.TempDir(), "answer.png")
	if err := os.WriteFile(path, img, 0o644); err != nil {
		t.Fatal(err)
	}

	backend := &fakeBackend{eval: api.Evaluation{Score: 7}}
	svc := NewService(backend)

	eval, err := svc.EvaluateAnswer(context.Background(), "Discuss federalism.", path)
	if err != nil {
		t.Fatal(err)
	}
	if eval.Score != 7 {
		t.Fatalf("eval=%+v", eval)
	}
	want := base64.StdEncoding.EncodeToString(img)
	if backend.evalReqs[0].AnswerImage != want {
		t.Fatalf("image not base64 encoded")
	}
}

func TestEvaluateAnswerMissingFile(t *testing.T) {
	svc := NewService(&fakeBackend{})
	if _, err := svc.EvaluateAnswer(context.Background(), "Q", "/no/such/file.png"); err == nil {
		t.Fatalf("missing file must fail")
	}
}

func TestEvaluateAnswerRequiresQuestion(t *testing.T) {
	backend := &fakeBackend{}
	svc := NewService(backend)
	_, err := svc.EvaluateAnswer(context.Background(), " ", "whatever.png")
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "question" {
		t.Fatalf("err=%v", err)
	}
	if len(backend.evalReqs) != 0 {
		t.Fatalf("invalid request reached the backend")
	}
}
