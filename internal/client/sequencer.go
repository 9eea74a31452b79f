package client

import (
	"context"
	"sync"
)

// Ticket は1回分のリクエスト。Ctx は次の Begin でキャンセルされる。
type Ticket struct {
	Seq uint64
	Ctx context.Context
}

// Sequencer は最後に発行したリクエストの結果だけを反映させる。
// 正しさは Seq の比較で担保し、キャンセルは通信を早く打ち切るためだけに使う。
type Sequencer struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// Begin は番号を進め、前のチケットをキャンセルする。
func (s *Sequencer) Begin(parent context.Context) Ticket {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	s.cancel = cancel
	return Ticket{Seq: s.seq, Ctx: ctx}
}

func (s *Sequencer) IsCurrent(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return seq == s.seq
}

// Apply はチケットが最新のときだけ fn を実行する。
// fn の実行中は Begin がブロックされるので、fn から Begin を呼ばないこと。
// 購読者に通知するストアへの反映には ProductsStore.SetResultIf を使う。
func (s *Sequencer) Apply(t Ticket, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.Seq != s.seq {
		return false
	}
	fn()
	return true
}

// Close は未完了のリクエストをキャンセルする。
func (s *Sequencer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
