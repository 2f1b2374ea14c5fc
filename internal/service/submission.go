package service

import (
	"context"
	"encoding/json"
	"log"

	"codebattle/internal/judge"
	"codebattle/internal/models"
	"codebattle/internal/repository"
)

// EventPublisher 是佇列的生產端，由 storage.EventQueue 實作
type EventPublisher interface {
	Publish(topic string, payload []byte) error
}

// CodeJudge 是外部評測服務的邊界，核心只依賴每組測試的通過與否
type CodeJudge interface {
	RunBatch(ctx context.Context, code, language string, cases []models.TestCase) ([]judge.TestResult, error)
	RunSingle(ctx context.Context, code, language, stdin string) (*judge.TestResult, error)
}

// SubmissionService 處理提交流程：評測、計分、記錄勝場、排入賽評事件
type SubmissionService struct {
	userRepo    repository.UserRepository
	problemRepo repository.ProblemRepository
	matchRepo   repository.MatchRepository
	judge       CodeJudge
	queue       EventPublisher
}

func NewSubmissionService(
	userRepo repository.UserRepository,
	problemRepo repository.ProblemRepository,
	matchRepo repository.MatchRepository,
	codeJudge CodeJudge,
	queue EventPublisher,
) *SubmissionService {
	return &SubmissionService{
		userRepo:    userRepo,
		problemRepo: problemRepo,
		matchRepo:   matchRepo,
		judge:       codeJudge,
		queue:       queue,
	}
}

// SubmissionResult 是回傳給客戶端的評測摘要
type SubmissionResult struct {
	Results     []judge.TestResult `json:"results"`
	PassedCount int                `json:"passedCount"`
	TotalCount  int                `json:"totalCount"`
	AllPassed   bool               `json:"allPassed"`
}

// Submit 對題目的全部測試資料評測一次提交
// 全數通過且是首次解出該題時更新積分並記錄勝場；
// 無論結果如何都將評測摘要排入賽評佇列，入列失敗不阻斷提交流程
func (s *SubmissionService) Submit(ctx context.Context, userID, problemID uint, roomID, code, language string) (*SubmissionResult, error) {
	problem, err := s.problemRepo.FindByID(problemID)
	if err != nil {
		return nil, ErrProblemNotFound
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	results, err := s.judge.RunBatch(ctx, code, language, problem.TestCases)
	if err != nil {
		return nil, err
	}

	passed := judge.CountPassed(results)
	total := len(results)
	allPassed := total > 0 && passed == total

	if allPassed && !user.HasSolved(problem.ID) {
		user.Points += problem.Difficulty.Points()
		user.Wins++
		user.Solved = append(user.Solved, models.SolvedProblem{UserID: user.ID, ProblemID: problem.ID})
		if err := s.userRepo.Update(user); err != nil {
			return nil, err
		}

		match := &models.Match{
			ProblemID:     problem.ID,
			WinnerID:      user.ID,
			CodeSubmitted: code,
		}
		if err := s.matchRepo.Create(match); err != nil {
			return nil, err
		}
	}

	event := models.NewSubmissionEvent(problem.Title, passed, total, roomID)
	data, err := json.Marshal(event)
	if err == nil {
		err = s.queue.Publish(CommentaryTopic, data)
	}
	if err != nil {
		log.Printf("failed to queue commentary event: %v", err)
	}

	return &SubmissionResult{
		Results:     results,
		PassedCount: passed,
		TotalCount:  total,
		AllPassed:   allPassed,
	}, nil
}

// Run 以自訂輸入執行一次程式碼，不評分也不排入賽評事件
func (s *SubmissionService) Run(ctx context.Context, code, language, customInput string) (*judge.TestResult, error) {
	return s.judge.RunSingle(ctx, code, language, customInput)
}
