package service

import (
	"fmt"

	"codebattle/internal/ai"
	"codebattle/internal/judge"
	"codebattle/internal/repository"
	"codebattle/internal/storage"
	"codebattle/pkg/config"
)

type Services struct {
	User       *UserService
	Problem    *ProblemService
	Room       *RoomService
	Submission *SubmissionService
	WebSocket  *WebSocketManager
	Commentary *CommentaryWorker
	Queue      *storage.EventQueue
}

func NewServices(repos *repository.Repositories, cfg *config.Config) (*Services, error) {
	// 佇列開不起來就不該讓 worker 啟動，直接讓組裝失敗
	queue, err := storage.NewEventQueue(cfg.Queue.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open event queue: %v", err)
	}

	wsManager := NewWebSocketManager()
	roomService := NewRoomService(repos.Problem, wsManager)
	wsManager.BindRooms(roomService)

	judgeClient := judge.NewClient(cfg.Judge.URL, cfg.Judge.APIKey, cfg.Judge.Host)
	geminiClient := ai.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model)

	userService := NewUserService(repos.User)
	problemService := NewProblemService(repos.Problem)
	submissionService := NewSubmissionService(repos.User, repos.Problem, repos.Match, judgeClient, queue)
	commentaryWorker := NewCommentaryWorker(queue, geminiClient, wsManager)

	return &Services{
		User:       userService,
		Problem:    problemService,
		Room:       roomService,
		Submission: submissionService,
		WebSocket:  wsManager,
		Commentary: commentaryWorker,
		Queue:      queue,
	}, nil
}

// Close 釋放服務持有的資源
func (s *Services) Close() error {
	return s.Queue.Close()
}
