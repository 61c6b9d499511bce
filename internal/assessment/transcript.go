package assessment

import "time"

type Sender string

const (
	SenderUser   Sender = "user"
	SenderSystem Sender = "system"
)

// Entry 是对话记录中的一条，Seq 从 0 开始连续递增。
type Entry struct {
	Seq    int       `json:"seq"`
	Sender Sender    `json:"sender"`
	Text   string    `json:"text"`
	At     time.Time `json:"at"`
}

// Transcript 是只追加的对话记录。
type Transcript struct {
	entries []Entry
	now     func() time.Time
}

// NewTranscript 从已持久化的记录恢复对话。
func NewTranscript(entries []Entry) *Transcript {
	t := &Transcript{now: time.Now}
	t.entries = append(t.entries, entries...)
	return t
}

func (t *Transcript) Append(sender Sender, text string) Entry {
	e := Entry{Seq: len(t.entries), Sender: sender, Text: text, At: t.now()}
	t.entries = append(t.entries, e)
	return e
}

func (t *Transcript) Len() int { return len(t.entries) }

// Entries 返回全部记录的副本。
func (t *Transcript) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Since 返回 Seq >= seq 的记录。
func (t *Transcript) Since(seq int) []Entry {
	if seq < 0 {
		seq = 0
	}
	if seq >= len(t.entries) {
		return nil
	}
	out := make([]Entry, len(t.entries)-seq)
	copy(out, t.entries[seq:])
	return out
}

// LastSystem 返回最后一条由系统发出的记录。
func (t *Transcript) LastSystem() (Entry, bool) {
	for i := len(t.entries) - 1; i >= 0; i-- {
		if t.entries[i].Sender == SenderSystem {
			return t.entries[i], true
		}
	}
	return Entry{}, false
}
