package storage

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// pollInterval 是阻塞消費時的保底輪詢間隔
// 正常情況下 Publish 會透過 wake channel 立即喚醒消費者
const pollInterval = 500 * time.Millisecond

// EventQueue 是建立在 BadgerDB 上的持久化 FIFO 工作佇列
// key 格式: queue:<topic>:<8-byte big-endian 序號>
// 序號由 badger.Sequence 發放並持久化，依 key 排序即為入列順序
type EventQueue struct {
	db *badger.DB

	mu   sync.Mutex
	seqs map[string]*badger.Sequence
	wake map[string]chan struct{}
}

// NewEventQueue 開啟（或建立）位於 dir 的佇列資料庫
func NewEventQueue(dir string) (*EventQueue, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open event queue: %v", err)
	}

	return &EventQueue{
		db:   db,
		seqs: make(map[string]*badger.Sequence),
		wake: make(map[string]chan struct{}),
	}, nil
}

// Close 釋放序號並關閉資料庫
func (q *EventQueue) Close() error {
	q.mu.Lock()
	for _, seq := range q.seqs {
		seq.Release()
	}
	q.seqs = make(map[string]*badger.Sequence)
	q.mu.Unlock()

	return q.db.Close()
}

// Publish 將 payload 附加到指定 topic 的佇列尾端
func (q *EventQueue) Publish(topic string, payload []byte) error {
	seq, err := q.sequence(topic)
	if err != nil {
		return err
	}

	num, err := seq.Next()
	if err != nil {
		return err
	}

	key := queueKey(topic, num)
	err = q.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, payload)
	})
	if err != nil {
		return err
	}

	q.notify(topic)
	return nil
}

// ConsumeBlocking 取出並移除 topic 佇列最前端的事件
// 佇列為空時會阻塞，直到有新事件或 ctx 被取消
// 取出即視為交付（at-least-once：處理中途失敗的事件不會重新入列）
func (q *EventQueue) ConsumeBlocking(ctx context.Context, topic string) ([]byte, error) {
	wake := q.wakeChan(topic)

	for {
		payload, ok, err := q.tryPop(topic)
		if err != nil {
			return nil, err
		}
		if ok {
			return payload, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-wake:
		case <-time.After(pollInterval):
		}
	}
}

// Len 回傳 topic 目前待處理的事件數量
func (q *EventQueue) Len(topic string) (int, error) {
	prefix := topicPrefix(topic)
	count := 0

	err := q.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})

	return count, err
}

// tryPop 在單一交易中讀出最舊的事件並刪除它的 key
func (q *EventQueue) tryPop(topic string) ([]byte, bool, error) {
	prefix := topicPrefix(topic)

	var key, payload []byte
	err := q.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchSize = 1

		it := txn.NewIterator(opts)
		it.Seek(prefix)
		if !it.ValidForPrefix(prefix) {
			it.Close()
			return nil
		}

		item := it.Item()
		key = item.KeyCopy(nil)
		var err error
		payload, err = item.ValueCopy(nil)
		it.Close()
		if err != nil {
			return err
		}

		return txn.Delete(key)
	})
	if err != nil {
		return nil, false, err
	}
	if key == nil {
		return nil, false, nil
	}
	return payload, true, nil
}

// sequence 取得 topic 專屬的持久化序號產生器
func (q *EventQueue) sequence(topic string) (*badger.Sequence, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if seq, ok := q.seqs[topic]; ok {
		return seq, nil
	}

	seq, err := q.db.GetSequence([]byte("seq:"+topic), 64)
	if err != nil {
		return nil, err
	}
	q.seqs[topic] = seq
	return seq, nil
}

// wakeChan 取得 topic 的喚醒通道，容量為 1 足以合併多次通知
func (q *EventQueue) wakeChan(topic string) chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()

	if ch, ok := q.wake[topic]; ok {
		return ch
	}
	ch := make(chan struct{}, 1)
	q.wake[topic] = ch
	return ch
}

func (q *EventQueue) notify(topic string) {
	select {
	case q.wakeChan(topic) <- struct{}{}:
	default:
	}
}

func queueKey(topic string, seq uint64) []byte {
	key := make([]byte, 0, len(topic)+15)
	key = append(key, topicPrefix(topic)...)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seq)
	return append(key, buf[:]...)
}

func topicPrefix(topic string) []byte {
	return []byte("queue:" + topic + ":")
}
