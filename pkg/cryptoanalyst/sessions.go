package cryptoanalyst

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	maxSessionNameLen      = 50
	chatNameFallbackFormat = "2006-01-02 15:04"
)

const chatNamePromptTemplate = `Based on this cryptocurrency question: "%s"

Generate a short, descriptive chat session name (max 4-5 words) that captures the main topic.
Examples:
- "Bitcoin price analysis" -> "Bitcoin Market Analysis"
- "Ethereum news and price" -> "Ethereum News Update"
- "NEAR protocol developments" -> "NEAR Protocol Review"
- "General crypto market" -> "Market Overview"

Return only the session name, no quotes or explanations:`

// SaveChatSession persists a named session with its messages and returns
// the new session id.
func (c *Core) SaveChatSession(name string, messages []StoredMessage) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, NewError(ErrCodeInvalidInput, "session name is required")
	}

	tx, err := c.db.Begin()
	if err != nil {
		return 0, WrapError(ErrCodeDatabase, "begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.Exec("INSERT INTO chat_sessions (session_name) VALUES (?)", name)
	if err != nil {
		return 0, WrapError(ErrCodeDatabase, "insert chat session", err)
	}
	sessionID, err := res.LastInsertId()
	if err != nil {
		return 0, WrapError(ErrCodeDatabase, "read session id", err)
	}

	if err := insertSessionMessages(tx, sessionID, messages); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, WrapError(ErrCodeDatabase, "commit chat session", err)
	}
	return sessionID, nil
}

// UpdateChatSession replaces all messages of an existing session.
func (c *Core) UpdateChatSession(sessionID int64, messages []StoredMessage) error {
	tx, err := c.db.Begin()
	if err != nil {
		return WrapError(ErrCodeDatabase, "begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var exists int
	err = tx.QueryRow("SELECT 1 FROM chat_sessions WHERE id = ?", sessionID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return NewError(ErrCodeNotFound, fmt.Sprintf("chat session %d not found", sessionID))
	}
	if err != nil {
		return WrapError(ErrCodeDatabase, "check chat session", err)
	}

	if _, err := tx.Exec("DELETE FROM messages WHERE session_id = ?", sessionID); err != nil {
		return WrapError(ErrCodeDatabase, "clear session messages", err)
	}
	if err := insertSessionMessages(tx, sessionID, messages); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return WrapError(ErrCodeDatabase, "commit chat session", err)
	}
	return nil
}

// ListChatSessions returns all saved sessions, newest first.
func (c *Core) ListChatSessions() ([]ChatSessionSummary, error) {
	rows, err := c.db.Query(`
		SELECT id, session_name, created_at
		FROM chat_sessions
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, WrapError(ErrCodeDatabase, "query chat sessions", err)
	}
	defer rows.Close()

	sessions := []ChatSessionSummary{}
	for rows.Next() {
		var session ChatSessionSummary
		if err := rows.Scan(&session.ID, &session.Name, &session.CreatedAt); err != nil {
			return nil, WrapError(ErrCodeDatabase, "scan chat session row", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, WrapError(ErrCodeDatabase, "iterate chat sessions", err)
	}
	return sessions, nil
}

// LoadChatSession returns a session's name and its messages in insertion
// order. Malformed persisted market data degrades to empty lists.
func (c *Core) LoadChatSession(sessionID int64) (string, []StoredMessage, error) {
	var name string
	err := c.db.QueryRow("SELECT session_name FROM chat_sessions WHERE id = ?", sessionID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, NewError(ErrCodeNotFound, fmt.Sprintf("chat session %d not found", sessionID))
	}
	if err != nil {
		return "", nil, WrapError(ErrCodeDatabase, "query chat session", err)
	}

	rows, err := c.db.Query(`
		SELECT role, content, quotes, news
		FROM messages
		WHERE session_id = ?
		ORDER BY created_at ASC, id ASC
	`, sessionID)
	if err != nil {
		return "", nil, WrapError(ErrCodeDatabase, "query session messages", err)
	}
	defer rows.Close()

	messages := []StoredMessage{}
	for rows.Next() {
		var (
			msg       StoredMessage
			quotesRaw sql.NullString
			newsRaw   sql.NullString
		)
		if err := rows.Scan(&msg.Role, &msg.Content, &quotesRaw, &newsRaw); err != nil {
			return "", nil, WrapError(ErrCodeDatabase, "scan message row", err)
		}

		if quotesRaw.Valid && quotesRaw.String != "" {
			var quotes []PriceQuote
			if err := json.Unmarshal([]byte(quotesRaw.String), &quotes); err == nil {
				msg.Quotes = quotes
			} else {
				c.logger.Warn("stored quotes decode failed", "session_id", sessionID, "err", err)
				msg.Quotes = []PriceQuote{}
			}
		}
		if newsRaw.Valid && newsRaw.String != "" {
			var news []NewsItem
			if err := json.Unmarshal([]byte(newsRaw.String), &news); err == nil {
				msg.News = news
			} else {
				c.logger.Warn("stored news decode failed", "session_id", sessionID, "err", err)
				msg.News = []NewsItem{}
			}
		}

		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return "", nil, WrapError(ErrCodeDatabase, "iterate session messages", err)
	}
	return name, messages, nil
}

// DeleteChatSession removes a session and its messages.
func (c *Core) DeleteChatSession(sessionID int64) error {
	tx, err := c.db.Begin()
	if err != nil {
		return WrapError(ErrCodeDatabase, "begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.Exec("DELETE FROM messages WHERE session_id = ?", sessionID); err != nil {
		return WrapError(ErrCodeDatabase, "delete session messages", err)
	}
	res, err := tx.Exec("DELETE FROM chat_sessions WHERE id = ?", sessionID)
	if err != nil {
		return WrapError(ErrCodeDatabase, "delete chat session", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return WrapError(ErrCodeDatabase, "read rows affected", err)
	}
	if affected == 0 {
		return NewError(ErrCodeNotFound, fmt.Sprintf("chat session %d not found", sessionID))
	}
	if err := tx.Commit(); err != nil {
		return WrapError(ErrCodeDatabase, "commit chat session", err)
	}
	return nil
}

// GenerateChatName derives a short session name from the first user message
// via one completion call. Any failure or unavailability falls back to a
// timestamped name.
func (c *Core) GenerateChatName(ctx context.Context, messages []StoredMessage) string {
	fallback := "Chat " + time.Now().Format(chatNameFallbackFormat)
	if len(messages) < 2 || !c.aiConfigured() {
		return fallback
	}

	firstUserMessage := ""
	for _, msg := range messages {
		if msg.Role == RoleUser {
			firstUserMessage = msg.Content
			break
		}
	}
	if firstUserMessage == "" {
		return fallback
	}

	result, err := aiChatCompletion(ctx, c.completionRequest([]ChatMessage{
		{Role: RoleUser, Content: fmt.Sprintf(chatNamePromptTemplate, firstUserMessage)},
	}))
	if err != nil {
		c.logger.Warn("chat name generation failed", "err", err)
		return fallback
	}

	name := strings.TrimSpace(result.Content)
	name = strings.NewReplacer(`"`, "", "'", "").Replace(name)
	if runes := []rune(name); len(runes) > maxSessionNameLen {
		name = string(runes[:maxSessionNameLen-3]) + "..."
	}
	if name == "" {
		return fallback
	}
	return name
}

func insertSessionMessages(tx *sql.Tx, sessionID int64, messages []StoredMessage) error {
	for _, msg := range messages {
		if msg.Role != RoleUser && msg.Role != RoleAssistant {
			return NewError(ErrCodeInvalidInput, fmt.Sprintf("invalid message role: %s", msg.Role))
		}
		quotesJSON, err := marketDataJSON(msg.Quotes)
		if err != nil {
			return WrapError(ErrCodeInternal, "marshal quotes", err)
		}
		newsJSON, err := marketDataJSON(msg.News)
		if err != nil {
			return WrapError(ErrCodeInternal, "marshal news", err)
		}
		if _, err := tx.Exec(`
			INSERT INTO messages (session_id, role, content, quotes, news)
			VALUES (?, ?, ?, ?, ?)
		`, sessionID, msg.Role, msg.Content, quotesJSON, newsJSON); err != nil {
			return WrapError(ErrCodeDatabase, "insert session message", err)
		}
	}
	return nil
}

// marketDataJSON marshals an attached quotes/news slice for storage.
// Empty slices store as NULL.
func marketDataJSON[T any](items []T) (any, error) {
	if len(items) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
