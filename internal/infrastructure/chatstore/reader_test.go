package chatstore

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petersenmatthew/MEI/internal/infrastructure/config"
)

// newFixtureStore 在临时目录创建一个最小的消息库
func newFixtureStore(t *testing.T) (string, *sql.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chat.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	schema := `
	CREATE TABLE message (
		ROWID INTEGER PRIMARY KEY,
		guid TEXT,
		text TEXT,
		is_from_me INTEGER,
		date INTEGER,
		cache_has_attachments INTEGER DEFAULT 0,
		handle_id INTEGER
	);
	CREATE TABLE chat (
		ROWID INTEGER PRIMARY KEY,
		chat_identifier TEXT,
		display_name TEXT,
		style INTEGER
	);
	CREATE TABLE chat_message_join (
		chat_id INTEGER,
		message_id INTEGER
	);
	CREATE TABLE handle (
		ROWID INTEGER PRIMARY KEY,
		id TEXT
	);`
	_, err = db.Exec(schema)
	require.NoError(t, err)
	return path, db
}

type fixtureMessage struct {
	rowID    int64
	text     string
	isFromMe bool
	at       time.Time
	chatID   int64
	handleID int64
}

func insertChat(t *testing.T, db *sql.DB, rowID int64, identifier, displayName string, style int) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO chat (ROWID, chat_identifier, display_name, style) VALUES (?, ?, ?, ?)`,
		rowID, identifier, displayName, style,
	)
	require.NoError(t, err)
}

func insertHandle(t *testing.T, db *sql.DB, rowID int64, id string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO handle (ROWID, id) VALUES (?, ?)`, rowID, id)
	require.NoError(t, err)
}

func insertMessage(t *testing.T, db *sql.DB, m fixtureMessage) {
	t.Helper()
	fromMe := 0
	if m.isFromMe {
		fromMe = 1
	}
	var handle interface{}
	if m.handleID != 0 {
		handle = m.handleID
	}
	_, err := db.Exec(
		`INSERT INTO message (ROWID, guid, text, is_from_me, date, handle_id) VALUES (?, ?, ?, ?, ?, ?)`,
		m.rowID, "guid-"+m.text, m.text, fromMe, timeToCocoa(m.at), handle,
	)
	require.NoError(t, err)
	_, err = db.Exec(
		`INSERT INTO chat_message_join (chat_id, message_id) VALUES (?, ?)`,
		m.chatID, m.rowID,
	)
	require.NoError(t, err)
}

func newFixtureReader(t *testing.T) (*sql.DB, *Reader) {
	t.Helper()
	path, db := newFixtureStore(t)
	reader := NewReader(&config.ChatStoreConfig{Path: path}).(*Reader)
	return db, reader
}

func TestReader_FetchSince(t *testing.T) {
	db, reader := newFixtureReader(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	insertChat(t, db, 1, "+15551234567", "", 45)
	insertHandle(t, db, 1, "+15551234567")
	insertMessage(t, db, fixtureMessage{rowID: 10, text: "hey", isFromMe: false, at: now, chatID: 1, handleID: 1})
	insertMessage(t, db, fixtureMessage{rowID: 11, text: "you there?", isFromMe: false, at: now.Add(time.Minute), chatID: 1, handleID: 1})
	insertMessage(t, db, fixtureMessage{rowID: 12, text: "yeah", isFromMe: true, at: now.Add(2 * time.Minute), chatID: 1})

	messages, err := reader.FetchSince(10, 50)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, int64(11), messages[0].RowID)
	assert.Equal(t, "you there?", messages[0].Text)
	assert.False(t, messages[0].IsFromMe)
	assert.Equal(t, "+15551234567", messages[0].ConversationID)
	assert.Equal(t, "+15551234567", messages[0].SenderID)
	assert.False(t, messages[0].IsGroup)
	assert.True(t, messages[0].Timestamp.Equal(now.Add(time.Minute)))

	// 本人消息 handle 缺失，SenderID 为空
	assert.Equal(t, int64(12), messages[1].RowID)
	assert.True(t, messages[1].IsFromMe)
	assert.Empty(t, messages[1].SenderID)
}

func TestReader_FetchSinceRespectsLimit(t *testing.T) {
	db, reader := newFixtureReader(t)
	now := time.Now().UTC()

	insertChat(t, db, 1, "alice", "", 45)
	for i := int64(1); i <= 5; i++ {
		insertMessage(t, db, fixtureMessage{rowID: i, text: "m", isFromMe: false, at: now.Add(time.Duration(i) * time.Second), chatID: 1})
	}

	messages, err := reader.FetchSince(0, 3)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, int64(1), messages[0].RowID)
	assert.Equal(t, int64(3), messages[2].RowID)
}

func TestReader_GroupChatDetection(t *testing.T) {
	db, reader := newFixtureReader(t)
	now := time.Now().UTC()

	insertChat(t, db, 1, "chat123456", "the boys", 43)
	insertHandle(t, db, 1, "+15550001111")
	insertMessage(t, db, fixtureMessage{rowID: 1, text: "who's in", isFromMe: false, at: now, chatID: 1, handleID: 1})

	messages, err := reader.FetchSince(0, 10)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.True(t, messages[0].IsGroup)
	assert.Equal(t, "the boys", messages[0].DisplayName)
}

func TestReader_FetchRecentAscendingOrder(t *testing.T) {
	db, reader := newFixtureReader(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	insertChat(t, db, 1, "alice", "", 45)
	insertChat(t, db, 2, "bob", "", 45)
	for i := int64(1); i <= 4; i++ {
		insertMessage(t, db, fixtureMessage{rowID: i, text: "alice-m", isFromMe: false, at: now.Add(time.Duration(i) * time.Minute), chatID: 1})
	}
	insertMessage(t, db, fixtureMessage{rowID: 5, text: "bob-m", isFromMe: false, at: now, chatID: 2})

	messages, err := reader.FetchRecent("alice", 3)
	require.NoError(t, err)
	require.Len(t, messages, 3)

	// 取最近 3 条并按时间升序返回
	assert.Equal(t, int64(2), messages[0].RowID)
	assert.Equal(t, int64(3), messages[1].RowID)
	assert.Equal(t, int64(4), messages[2].RowID)
}

func TestReader_HasRecentOutgoing(t *testing.T) {
	db, reader := newFixtureReader(t)
	now := time.Now().UTC()

	insertChat(t, db, 1, "alice", "", 45)
	insertMessage(t, db, fixtureMessage{rowID: 1, text: "old reply", isFromMe: true, at: now.Add(-10 * time.Minute), chatID: 1})

	// 窗口外的本人消息不算
	found, err := reader.HasRecentOutgoing("alice", time.Minute, time.Time{})
	require.NoError(t, err)
	assert.False(t, found)

	insertMessage(t, db, fixtureMessage{rowID: 2, text: "just sent", isFromMe: true, at: now.Add(-10 * time.Second), chatID: 1})

	found, err = reader.HasRecentOutgoing("alice", time.Minute, time.Time{})
	require.NoError(t, err)
	assert.True(t, found)

	// after 晚于消息时间时应忽略该消息
	found, err = reader.HasRecentOutgoing("alice", time.Minute, now)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestReader_MaxRowID(t *testing.T) {
	db, reader := newFixtureReader(t)

	max, err := reader.MaxRowID()
	require.NoError(t, err)
	assert.Equal(t, int64(0), max)

	insertChat(t, db, 1, "alice", "", 45)
	insertMessage(t, db, fixtureMessage{rowID: 42, text: "hi", isFromMe: false, at: time.Now(), chatID: 1})

	max, err = reader.MaxRowID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), max)
}

func TestReader_OpenMissingStore(t *testing.T) {
	reader := NewReader(&config.ChatStoreConfig{Path: filepath.Join(t.TempDir(), "nope.db")})
	assert.Error(t, reader.Open())
}

func TestCocoaTimeRoundTrip(t *testing.T) {
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	assert.True(t, cocoaToTime(timeToCocoa(at)).Equal(at))
	assert.True(t, cocoaToTime(0).Equal(cocoaEpoch))
}
