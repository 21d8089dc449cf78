package chat

// historyKey is the persistence key for the cached chat transcript.
const historyKey = "llm_chat_history"

// HistoryStore is the persistence port for chat transcripts. The
// localstore package provides the SQLite-backed implementation; tests
// use an in-memory one.
type HistoryStore interface {
	Load(key string) ([]Message, error)
	Save(key string, messages []Message) error
	Clear(key string) error
}
