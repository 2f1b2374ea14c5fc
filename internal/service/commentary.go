package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"codebattle/internal/models"
)

// CommentaryTopic 是賽評事件使用的固定佇列主題
const CommentaryTopic = "commentary_queue"

// EventConsumer 是佇列的消費端，由 storage.EventQueue 實作
type EventConsumer interface {
	ConsumeBlocking(ctx context.Context, topic string) ([]byte, error)
}

// CommentaryGenerator 是產生賽評文字的外部協作者，由 ai.Client 實作
type CommentaryGenerator interface {
	GenerateCommentary(ctx context.Context, problemTitle string, passed, total int) (string, error)
}

// CommentaryWorker 是獨立於請求循環的背景消費者
// 一次取出一筆評測事件，產生賽評後廣播到事件所屬的房間
type CommentaryWorker struct {
	queue     EventConsumer
	generator CommentaryGenerator
	notifier  RoomNotifier
}

func NewCommentaryWorker(queue EventConsumer, generator CommentaryGenerator, notifier RoomNotifier) *CommentaryWorker {
	return &CommentaryWorker{
		queue:     queue,
		generator: generator,
		notifier:  notifier,
	}
}

// Run 阻塞式地消費佇列直到 ctx 被取消
// 單一事件的任何失敗都只記錄後跳過，不重試也不中斷迴圈；
// 佇列是 at-least-once，重複送達的事件只會多播一句賽評，沒有其他副作用
func (w *CommentaryWorker) Run(ctx context.Context) {
	log.Println("commentary worker is ready and listening...")

	for {
		data, err := w.queue.ConsumeBlocking(ctx, CommentaryTopic)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("commentary worker stopped")
				return
			}
			log.Printf("error in commentary worker: %v", err)
			time.Sleep(time.Second)
			continue
		}

		w.handle(ctx, data)
	}
}

// handle 處理單筆事件：解碼、生成賽評、廣播
func (w *CommentaryWorker) handle(ctx context.Context, data []byte) {
	var event models.SubmissionEvent
	if err := json.Unmarshal(data, &event); err != nil {
		log.Printf("error in commentary worker: decode event: %v", err)
		return
	}
	if event.Type != models.EventTypeSubmissionEvaluated {
		log.Printf("error in commentary worker: unexpected event type %q", event.Type)
		return
	}

	payload := event.Payload

	genCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	text, err := w.generator.GenerateCommentary(genCtx, payload.ProblemTitle, payload.PassedCount, payload.TotalCount)
	if err != nil {
		// 賽評是附帶內容，生成失敗就放掉這筆，重新生成的成本遠低於重試機制
		log.Printf("error in commentary worker: generate: %v", err)
		return
	}

	w.notifier.BroadcastToRoom(payload.RoomID, models.NewCommentary(text), 0)
}
