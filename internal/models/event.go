package models

// EventTypeSubmissionEvaluated 表示一次提交已完成評測
const EventTypeSubmissionEvaluated = "SUBMISSION_EVALUATED"

// SubmissionEvent 是放入評論佇列的事件封裝
// 一次提交產生一筆，由賽評 worker 消費
type SubmissionEvent struct {
	Type    string            `json:"type"`
	Payload SubmissionPayload `json:"payload"`
}

// SubmissionPayload 描述一次提交的評測結果摘要
type SubmissionPayload struct {
	ProblemTitle string `json:"problemTitle"`
	PassedCount  int    `json:"passedCount"`
	TotalCount   int    `json:"totalCount"`
	IsSuccess    bool   `json:"isSuccess"`
	RoomID       string `json:"roomId"`
}

// NewSubmissionEvent 建立一筆評測完成事件
func NewSubmissionEvent(problemTitle string, passed, total int, roomID string) *SubmissionEvent {
	return &SubmissionEvent{
		Type: EventTypeSubmissionEvaluated,
		Payload: SubmissionPayload{
			ProblemTitle: problemTitle,
			PassedCount:  passed,
			TotalCount:   total,
			IsSuccess:    passed == total && total > 0,
			RoomID:       roomID,
		},
	}
}
