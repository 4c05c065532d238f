package store

// EventKind は状態変更イベントの種別。
type EventKind string

const (
	EventUserRegistered EventKind = "user.registered"
	EventUserLogin      EventKind = "user.login"
	EventUserLogout     EventKind = "user.logout"
	EventPostCreated    EventKind = "post.created"
	EventPostDeleted    EventKind = "post.deleted"
	EventPostVoted      EventKind = "post.voted"
	EventCommentCreated EventKind = "comment.created"
	EventCommentDeleted EventKind = "comment.deleted"
	EventCommentVoted   EventKind = "comment.voted"
	EventStoreReset     EventKind = "store.reset"
)

// Event は「何かが変わった」ことを表す通知。
// リスナーは内容を無視して再クエリしてもよい。差分は含まない。
type Event struct {
	Kind    EventKind
	ID      string // 対象エンティティのID（resetでは空）
	ActorID string // 操作したユーザーのID（不明な場合は空）
}

// Listener はイベントを受け取るコールバック。
type Listener func(Event)

type listenerEntry struct {
	id uint64
	fn Listener
}

// Subscribe はリスナーを登録し、登録解除用の関数を返す。
// 登録解除関数は複数回呼び出しても安全。
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.listenerMu.Lock()
	s.nextListener++
	id := s.nextListener
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: fn})
	s.listenerMu.Unlock()

	return func() {
		s.listenerMu.Lock()
		defer s.listenerMu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Notify は全リスナーを登録順に同期的に呼び出す。
// データロックの外で呼ぶこと（リスナーからStoreを読めるようにするため）。
func (s *Store) Notify(ev Event) {
	s.listenerMu.Lock()
	snapshot := make([]listenerEntry, len(s.listeners))
	copy(snapshot, s.listeners)
	s.listenerMu.Unlock()

	for _, l := range snapshot {
		l.fn(ev)
	}
}
