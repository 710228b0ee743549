package storage

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sarathi/internal/chat"

	_ "modernc.org/sqlite"
)

// SQLiteStore 基于 SQLite (WAL 模式) 的持久化实现：聊天记录和学习日志。
// SQLiteStore persists chat transcripts and the study journal using SQLite
// with WAL mode.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore 创建并初始化 SQLite 数据库
// NewSQLiteStore creates and initializes a SQLite database
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// 启用 WAL 模式和优化 PRAGMA / Enable WAL and performance PRAGMAs
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	store := &SQLiteStore{db: db, path: dbPath}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS chat_sessions (
		id         TEXT PRIMARY KEY,
		mode       TEXT NOT NULL DEFAULT 'general',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chat_turns (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL REFERENCES chat_sessions(id) ON DELETE CASCADE,
		role       TEXT NOT NULL,
		content    TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS study_journal (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		kind         TEXT NOT NULL,
		plan_item_id TEXT NOT NULL,
		minutes      INTEGER NOT NULL DEFAULT 0,
		status       TEXT NOT NULL DEFAULT '',
		prev_status  TEXT NOT NULL DEFAULT '',
		created_at   TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_chat_turns_session ON chat_turns(session_id, id);
	CREATE INDEX IF NOT EXISTS idx_study_journal_item ON study_journal(plan_item_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close 关闭数据库连接 / Close the database connection
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// --- Chat Transcript ---

// SaveTurn 追加一条回合；会话行不存在时顺带创建。
// SaveTurn appends one turn, creating the session row on first use.
func (s *SQLiteStore) SaveTurn(sessionID string, turn chat.Turn) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return fmt.Errorf("session id is empty")
	}

	now := nowUTC()
	createdAt := now
	if !turn.CreatedAt.IsZero() {
		createdAt = turn.CreatedAt.UTC().Format(time.RFC3339)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		INSERT INTO chat_sessions (id, created_at, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at=excluded.updated_at`,
		sessionID, now, now,
	); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO chat_turns (session_id, role, content, created_at)
		VALUES (?, ?, ?, ?)`,
		sessionID, turn.Role, turn.Content, createdAt,
	); err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}
	return tx.Commit()
}

// Turns 按写入顺序返回会话回合；limit > 0 时只取最近 limit 条。
// Turns returns the session's turns in write order; a positive limit keeps
// only the most recent rows.
func (s *SQLiteStore) Turns(sessionID string, limit int) ([]chat.Turn, error) {
	query := `SELECT role, content, created_at FROM chat_turns WHERE session_id=? ORDER BY id`
	args := []any{sessionID}
	if limit > 0 {
		query = `SELECT role, content, created_at FROM (
			SELECT id, role, content, created_at FROM chat_turns
			WHERE session_id=? ORDER BY id DESC LIMIT ?
		) ORDER BY id`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var turns []chat.Turn
	for rows.Next() {
		var turn chat.Turn
		var createdAt string
		if err := rows.Scan(&turn.Role, &turn.Content, &createdAt); err != nil {
			continue
		}
		if ts, perr := time.Parse(time.RFC3339, createdAt); perr == nil {
			turn.CreatedAt = ts
		}
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

// ListChatSessions 按最近更新排序列出本地会话。
// ListChatSessions lists local sessions ordered by latest update.
func (s *SQLiteStore) ListChatSessions() ([]ChatSessionMeta, error) {
	rows, err := s.db.Query(`
		SELECT id, mode, created_at, updated_at
		FROM chat_sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var metas []ChatSessionMeta
	for rows.Next() {
		var meta ChatSessionMeta
		if err := rows.Scan(&meta.ID, &meta.Mode, &meta.CreatedAt, &meta.UpdatedAt); err != nil {
			continue
		}
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

// --- Study Journal ---

// RecordProgress 进度上报落盘，尽力而为，失败只打日志。
// RecordProgress persists a progress report; best-effort, failures are
// only logged.
func (s *SQLiteStore) RecordProgress(itemID string, minutes int, status string) {
	if _, err := s.db.Exec(`
		INSERT INTO study_journal (kind, plan_item_id, minutes, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		JournalProgress, itemID, minutes, status, nowUTC(),
	); err != nil {
		log.Printf("storage: record progress failed: %v", err)
	}
}

// RecordConflict 记录一次终态覆盖。
// RecordConflict records one terminal-status overwrite.
func (s *SQLiteStore) RecordConflict(itemID string, prev, next string, minutes int) {
	if _, err := s.db.Exec(`
		INSERT INTO study_journal (kind, plan_item_id, minutes, status, prev_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		JournalConflict, itemID, minutes, next, prev, nowUTC(),
	); err != nil {
		log.Printf("storage: record conflict failed: %v", err)
	}
}

// JournalEntries 按时间倒序返回学习日志；limit <= 0 时返回全部。
// JournalEntries returns the study journal newest-first; a non-positive
// limit returns everything.
func (s *SQLiteStore) JournalEntries(limit int) ([]JournalEntry, error) {
	query := `SELECT id, kind, plan_item_id, minutes, status, prev_status, created_at
		FROM study_journal ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(&e.ID, &e.Kind, &e.PlanItemID, &e.Minutes,
			&e.Status, &e.PrevStatus, &e.CreatedAt); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// --- Helpers ---

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}
