package practice

import (
	"fmt"

	"sarathi/internal/api"
)

const unanswered = -1

// Quiz 一次本地测验会话：按题号顺序作答，本地即时判分。
// Quiz is one local quiz session: questions are answered in order and graded
// locally against the answer index.
type Quiz struct {
	set   api.MCQSet
	picks []int
	idx   int
}

// Result 单题作答结果。
// Result is the outcome of one answered question.
type Result struct {
	Question api.MCQQuestion
	Pick     int
	Correct  bool
	Skipped  bool
}

func NewQuiz(set api.MCQSet) *Quiz {
	picks := make([]int, len(set.Questions))
	for i := range picks {
		picks[i] = unanswered
	}
	return &Quiz{set: set, picks: picks}
}

func (q *Quiz) Title() string        { return q.set.Title }
func (q *Quiz) Subject() api.Subject { return q.set.Subject }
func (q *Quiz) Len() int             { return len(q.set.Questions) }

// Done 所有题都已作答或跳过。
// Done reports whether every question was answered or skipped.
func (q *Quiz) Done() bool {
	return q.idx >= len(q.set.Questions)
}

// Current 返回当前题目及其序号（从 1 开始）。
// Current returns the current question and its 1-based position.
func (q *Quiz) Current() (api.MCQQuestion, int, bool) {
	if q.Done() {
		return api.MCQQuestion{}, 0, false
	}
	return q.set.Questions[q.idx], q.idx + 1, true
}

// Answer 记录当前题的选项并前进；返回是否答对。
// Answer records the pick for the current question and advances; it reports
// whether the pick was correct.
func (q *Quiz) Answer(pick int) (bool, error) {
	if q.Done() {
		return false, fmt.Errorf("quiz is already finished")
	}
	question := q.set.Questions[q.idx]
	if pick < 0 || pick >= len(question.Options) {
		return false, fmt.Errorf("pick %d out of range (1-%d)", pick+1, len(question.Options))
	}
	q.picks[q.idx] = pick
	q.idx++
	return pick == question.AnswerIndex, nil
}

// Skip 跳过当前题。
// Skip passes over the current question.
func (q *Quiz) Skip() {
	if !q.Done() {
		q.idx++
	}
}

// Score 返回答对数、作答数和总题数。
// Score returns the correct, answered and total counts.
func (q *Quiz) Score() (correct, answered, total int) {
	total = len(q.set.Questions)
	for i, pick := range q.picks {
		if pick == unanswered {
			continue
		}
		answered++
		if pick == q.set.Questions[i].AnswerIndex {
			correct++
		}
	}
	return correct, answered, total
}

// Review 返回全部题目的作答回顾，用于结束后展示解析。
// Review returns the per-question outcomes for the post-quiz walkthrough.
func (q *Quiz) Review() []Result {
	results := make([]Result, 0, len(q.set.Questions))
	for i, question := range q.set.Questions {
		pick := q.picks[i]
		results = append(results, Result{
			Question: question,
			Pick:     pick,
			Correct:  pick != unanswered && pick == question.AnswerIndex,
			Skipped:  pick == unanswered,
		})
	}
	return results
}
