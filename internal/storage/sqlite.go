package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"quotewire/internal/models"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStorage struct {
	db    *sql.DB
	mutex sync.Mutex
}

func NewSQLiteStorage(dataDir string) (*SQLiteStorage, error) {
	// Ensure data directory exists with secure permissions (0750)
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(dataDir, "quotewire.db")
	log.Printf("[storage] init: db=%s", dbPath)

	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=30000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 30000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			log.Printf("[storage] warning: failed to set %s: %v", pragma, err)
		}
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %v", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sources (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		domain TEXT NOT NULL,
		feed_url TEXT UNIQUE NOT NULL,
		enabled INTEGER NOT NULL DEFAULT 1,
		top_story INTEGER NOT NULL DEFAULT 0,
		consecutive_failures INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS providers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		key TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL,
		enabled INTEGER NOT NULL DEFAULT 1,
		status TEXT NOT NULL DEFAULT 'unknown',
		consecutive_failures INTEGER NOT NULL DEFAULT 0,
		total_fetched INTEGER NOT NULL DEFAULT 0,
		last_error TEXT NOT NULL DEFAULT '',
		cursor TEXT NOT NULL DEFAULT '{}', -- provider-private JSON document
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS articles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT UNIQUE NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		source_id INTEGER REFERENCES sources(id) ON DELETE SET NULL,
		provider_key TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		full_text TEXT NOT NULL DEFAULT '',
		fail_reason TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT '',
		quote_count INTEGER NOT NULL DEFAULT 0,
		published_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_articles_status ON articles(status);
	CREATE INDEX IF NOT EXISTS idx_articles_source_status ON articles(source_id, status);
	CREATE INDEX IF NOT EXISTS idx_articles_provider_status ON articles(provider_key, status);

	CREATE TABLE IF NOT EXISTS quotes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		article_id INTEGER NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
		text TEXT NOT NULL,
		speaker TEXT NOT NULL DEFAULT '',
		visible INTEGER NOT NULL DEFAULT 1,
		quoted_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_quotes_article ON quotes(article_id);
	CREATE INDEX IF NOT EXISTS idx_quotes_quoted_at ON quotes(quoted_at);

	CREATE TABLE IF NOT EXISTS keywords (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		normalized TEXT UNIQUE NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS keyword_aliases (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		keyword_id INTEGER NOT NULL REFERENCES keywords(id) ON DELETE CASCADE,
		alias TEXT NOT NULL,
		normalized TEXT NOT NULL,
		UNIQUE(keyword_id, normalized)
	);

	CREATE TABLE IF NOT EXISTS topics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		normalized TEXT NOT NULL DEFAULT '',
		slug TEXT UNIQUE NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		start_date DATETIME,
		end_date DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS topic_aliases (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		topic_id INTEGER NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
		alias TEXT NOT NULL,
		normalized TEXT NOT NULL,
		UNIQUE(topic_id, normalized)
	);

	CREATE TABLE IF NOT EXISTS topic_keywords (
		topic_id INTEGER NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
		keyword_id INTEGER NOT NULL REFERENCES keywords(id) ON DELETE CASCADE,
		UNIQUE(topic_id, keyword_id)
	);

	CREATE TABLE IF NOT EXISTS quote_keywords (
		quote_id INTEGER NOT NULL REFERENCES quotes(id) ON DELETE CASCADE,
		keyword_id INTEGER NOT NULL REFERENCES keywords(id) ON DELETE CASCADE,
		confidence TEXT NOT NULL DEFAULT 'high',
		UNIQUE(quote_id, keyword_id)
	);
	CREATE INDEX IF NOT EXISTS idx_quote_keywords_keyword ON quote_keywords(keyword_id);

	CREATE TABLE IF NOT EXISTS quote_topics (
		quote_id INTEGER NOT NULL REFERENCES quotes(id) ON DELETE CASCADE,
		topic_id INTEGER NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
		UNIQUE(quote_id, topic_id)
	);
	CREATE INDEX IF NOT EXISTS idx_quote_topics_topic ON quote_topics(topic_id);

	CREATE TABLE IF NOT EXISTS suggestions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL,
		normalized TEXT NOT NULL,
		payload TEXT NOT NULL DEFAULT '{}',
		source TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		occurrences INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
		resolved_at DATETIME
	);
	-- At most one pending suggestion per (type, normalized name); extraction
	-- provenance may coexist with a batch promotion for the same name.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_suggestions_pending
		ON suggestions(type, normalized, source) WHERE status = 'pending';
	CREATE INDEX IF NOT EXISTS idx_suggestions_status ON suggestions(status, type);

	CREATE TABLE IF NOT EXISTS backfill_attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		day TEXT UNIQUE NOT NULL, -- YYYY-MM-DD
		status TEXT NOT NULL DEFAULT 'processing',
		found INTEGER NOT NULL DEFAULT 0,
		processed INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %v", err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Sources

func scanSource(row interface{ Scan(...any) error }) (*models.Source, error) {
	var src models.Source
	err := row.Scan(&src.ID, &src.Name, &src.Domain, &src.FeedURL, &src.Enabled,
		&src.TopStory, &src.ConsecutiveFailures, &src.CreatedAt, &src.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &src, nil
}

const sourceColumns = "id, name, domain, feed_url, enabled, top_story, consecutive_failures, created_at, updated_at"

func (s *SQLiteStorage) ListSources(enabledOnly bool) ([]models.Source, error) {
	query := "SELECT " + sourceColumns + " FROM sources"
	if enabledOnly {
		query += " WHERE enabled = 1"
	}
	query += " ORDER BY id"

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %v", err)
	}
	defer rows.Close()

	var sources []models.Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, *src)
	}
	return sources, rows.Err()
}

func (s *SQLiteStorage) GetSource(id int64) (*models.Source, error) {
	row := s.db.QueryRow("SELECT "+sourceColumns+" FROM sources WHERE id = ?", id)
	src, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("source %d not found", id)
	}
	return src, err
}

func (s *SQLiteStorage) CreateSource(src *models.Source) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	result, err := s.db.Exec(
		"INSERT OR IGNORE INTO sources (name, domain, feed_url, enabled, top_story) VALUES (?, ?, ?, ?, ?)",
		src.Name, src.Domain, src.FeedURL, src.Enabled, src.TopStory)
	if err != nil {
		return false, fmt.Errorf("failed to create source: %v", err)
	}
	affected, _ := result.RowsAffected()
	if affected > 0 {
		src.ID, _ = result.LastInsertId()
	}
	return affected > 0, nil
}

func (s *SQLiteStorage) SetSourceEnabled(id int64, enabled bool) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err := s.db.Exec(
		"UPDATE sources SET enabled = ?, consecutive_failures = CASE WHEN ? THEN 0 ELSE consecutive_failures END, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		enabled, enabled, id)
	if err != nil {
		return fmt.Errorf("failed to update source %d: %v", id, err)
	}
	return nil
}

// RecordSourceFailure increments the consecutive-failure counter and returns
// the new count.
func (s *SQLiteStorage) RecordSourceFailure(id int64) (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, err := s.db.Exec(
		"UPDATE sources SET consecutive_failures = consecutive_failures + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?", id); err != nil {
		return 0, fmt.Errorf("failed to record source failure: %v", err)
	}
	var count int
	if err := s.db.QueryRow("SELECT consecutive_failures FROM sources WHERE id = ?", id).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to read source failures: %v", err)
	}
	return count, nil
}

func (s *SQLiteStorage) ResetSourceFailures(id int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err := s.db.Exec(
		"UPDATE sources SET consecutive_failures = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?", id)
	return err
}

// ---------------------------------------------------------------------------
// Historical providers

const providerColumns = "id, key, name, enabled, status, consecutive_failures, total_fetched, last_error, cursor, updated_at"

func scanProvider(row interface{ Scan(...any) error }) (*models.HistoricalProvider, error) {
	var p models.HistoricalProvider
	var cursorJSON string
	err := row.Scan(&p.ID, &p.Key, &p.Name, &p.Enabled, &p.Status,
		&p.ConsecutiveFailures, &p.TotalFetched, &p.LastError, &cursorJSON, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if cursorJSON != "" {
		if err := json.Unmarshal([]byte(cursorJSON), &p.Cursor); err != nil {
			// A corrupt cursor resets pagination rather than wedging the provider.
			p.Cursor = map[string]any{}
		}
	}
	return &p, nil
}

func (s *SQLiteStorage) ListProviders(enabledOnly bool) ([]models.HistoricalProvider, error) {
	query := "SELECT " + providerColumns + " FROM providers"
	if enabledOnly {
		query += " WHERE enabled = 1"
	}
	query += " ORDER BY key"

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %v", err)
	}
	defer rows.Close()

	var providers []models.HistoricalProvider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		providers = append(providers, *p)
	}
	return providers, rows.Err()
}

func (s *SQLiteStorage) GetProvider(key string) (*models.HistoricalProvider, error) {
	row := s.db.QueryRow("SELECT "+providerColumns+" FROM providers WHERE key = ?", key)
	p, err := scanProvider(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("provider %q not found", key)
	}
	return p, err
}

func (s *SQLiteStorage) RegisterProvider(key, name string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO providers (key, name, status) VALUES (?, ?, ?)",
		key, name, models.ProviderUnknown)
	if err != nil {
		return fmt.Errorf("failed to register provider %q: %v", key, err)
	}
	return nil
}

func (s *SQLiteStorage) SetProviderEnabled(key string, enabled bool) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	status := models.ProviderDisabled
	if enabled {
		status = models.ProviderUnknown
	}
	_, err := s.db.Exec(
		"UPDATE providers SET enabled = ?, status = ?, consecutive_failures = CASE WHEN ? THEN 0 ELSE consecutive_failures END, updated_at = CURRENT_TIMESTAMP WHERE key = ?",
		enabled, status, enabled, key)
	return err
}

func (s *SQLiteStorage) RecordProviderFailure(key, lastError string) (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, err := s.db.Exec(
		"UPDATE providers SET consecutive_failures = consecutive_failures + 1, status = ?, last_error = ?, updated_at = CURRENT_TIMESTAMP WHERE key = ?",
		models.ProviderFailed, lastError, key); err != nil {
		return 0, fmt.Errorf("failed to record provider failure: %v", err)
	}
	var count int
	if err := s.db.QueryRow("SELECT consecutive_failures FROM providers WHERE key = ?", key).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to read provider failures: %v", err)
	}
	return count, nil
}

func (s *SQLiteStorage) RecordProviderSuccess(key string, fetched int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err := s.db.Exec(
		"UPDATE providers SET consecutive_failures = 0, status = ?, last_error = '', total_fetched = total_fetched + ?, updated_at = CURRENT_TIMESTAMP WHERE key = ?",
		models.ProviderWorking, fetched, key)
	return err
}

func (s *SQLiteStorage) SaveProviderCursor(key string, cursor map[string]any) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	data, err := json.Marshal(cursor)
	if err != nil {
		return fmt.Errorf("failed to marshal cursor for %q: %v", key, err)
	}
	_, err = s.db.Exec(
		"UPDATE providers SET cursor = ?, updated_at = CURRENT_TIMESTAMP WHERE key = ?",
		string(data), key)
	return err
}

// ---------------------------------------------------------------------------
// Articles

const articleColumns = "id, url, title, source_id, provider_key, status, full_text, fail_reason, language, quote_count, published_at, created_at"

func scanArticle(row interface{ Scan(...any) error }) (*models.Article, error) {
	var a models.Article
	var sourceID sql.NullInt64
	var publishedAt sql.NullTime
	err := row.Scan(&a.ID, &a.URL, &a.Title, &sourceID, &a.ProviderKey, &a.Status,
		&a.FullText, &a.FailReason, &a.Language, &a.QuoteCount, &publishedAt, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	if sourceID.Valid {
		a.SourceID = &sourceID.Int64
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		a.PublishedAt = &t
	}
	return &a, nil
}

// InsertArticle records a newly discovered article. A URL already present is
// an idempotent no-op; the returned bool reports whether a row was inserted.
func (s *SQLiteStorage) InsertArticle(a *models.Article) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var sourceID sql.NullInt64
	if a.SourceID != nil {
		sourceID = sql.NullInt64{Int64: *a.SourceID, Valid: true}
	}
	var publishedAt sql.NullTime
	if a.PublishedAt != nil {
		publishedAt = sql.NullTime{Time: *a.PublishedAt, Valid: true}
	}
	status := a.Status
	if status == "" {
		status = models.ArticlePending
	}

	result, err := s.db.Exec(
		"INSERT OR IGNORE INTO articles (url, title, source_id, provider_key, status, full_text, published_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		a.URL, a.Title, sourceID, a.ProviderKey, status, a.FullText, publishedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert article: %v", err)
	}
	affected, _ := result.RowsAffected()
	if affected > 0 {
		a.ID, _ = result.LastInsertId()
		a.Status = status
	}
	return affected > 0, nil
}

func (s *SQLiteStorage) GetArticle(id int64) (*models.Article, error) {
	row := s.db.QueryRow("SELECT "+articleColumns+" FROM articles WHERE id = ?", id)
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("article %d not found", id)
	}
	return a, err
}

// PendingArticles returns pending articles of one origin type, capped per
// origin so no single source or provider can monopolize a cycle.
func (s *SQLiteStorage) PendingArticles(historical bool, perOriginCap int) ([]models.Article, error) {
	query := "SELECT " + articleColumns + " FROM articles WHERE status = ?"
	if historical {
		query += " AND provider_key != ''"
	} else {
		query += " AND provider_key = ''"
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.Query(query, models.ArticlePending)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending articles: %v", err)
	}
	defer rows.Close()

	perOrigin := make(map[string]int)
	var selected []models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		origin := a.ProviderKey
		if origin == "" && a.SourceID != nil {
			origin = "source:" + strconv.FormatInt(*a.SourceID, 10)
		}
		if perOrigin[origin] >= perOriginCap {
			continue
		}
		perOrigin[origin]++
		selected = append(selected, *a)
	}
	return selected, rows.Err()
}

func (s *SQLiteStorage) SetArticleStatus(id int64, status, reason string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err := s.db.Exec(
		"UPDATE articles SET status = ?, fail_reason = ? WHERE id = ?",
		status, reason, id)
	if err != nil {
		return fmt.Errorf("failed to update article %d status: %v", id, err)
	}
	return nil
}

func (s *SQLiteStorage) FinishArticle(id int64, status, language string, quoteCount int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err := s.db.Exec(
		"UPDATE articles SET status = ?, language = ?, quote_count = ? WHERE id = ?",
		status, language, quoteCount, id)
	if err != nil {
		return fmt.Errorf("failed to finish article %d: %v", id, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Quotes

func (s *SQLiteStorage) InsertQuote(q *models.Quote) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var quotedAt sql.NullTime
	if q.QuotedAt != nil {
		quotedAt = sql.NullTime{Time: *q.QuotedAt, Valid: true}
	}
	result, err := s.db.Exec(
		"INSERT INTO quotes (article_id, text, speaker, visible, quoted_at) VALUES (?, ?, ?, ?, ?)",
		q.ArticleID, q.Text, q.Speaker, q.Visible, quotedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert quote: %v", err)
	}
	id, _ := result.LastInsertId()
	q.ID = id
	return id, nil
}

func (s *SQLiteStorage) RecentQuotes(limit int) ([]models.Quote, error) {
	query := sq.Select("id", "article_id", "text", "speaker", "visible", "quoted_at", "created_at").
		From("quotes").
		Where(sq.Eq{"visible": true}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build quote query: %v", err)
	}

	rows, err := s.db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %v", err)
	}
	defer rows.Close()

	var quotes []models.Quote
	for rows.Next() {
		var q models.Quote
		var quotedAt sql.NullTime
		if err := rows.Scan(&q.ID, &q.ArticleID, &q.Text, &q.Speaker, &q.Visible, &quotedAt, &q.CreatedAt); err != nil {
			return nil, err
		}
		if quotedAt.Valid {
			t := quotedAt.Time
			q.QuotedAt = &t
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

// VisibleQuoteDays returns the set of YYYY-MM-DD days (since the given time)
// that have at least one visible quote. Used by the gap finder.
func (s *SQLiteStorage) VisibleQuoteDays(since time.Time) (map[string]bool, error) {
	rows, err := s.db.Query(
		"SELECT DISTINCT date(quoted_at) FROM quotes WHERE visible = 1 AND quoted_at IS NOT NULL AND quoted_at >= ?",
		since)
	if err != nil {
		return nil, fmt.Errorf("failed to query quote days: %v", err)
	}
	defer rows.Close()

	days := make(map[string]bool)
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		days[day] = true
	}
	return days, rows.Err()
}

// ---------------------------------------------------------------------------
// Vocabulary

func (s *SQLiteStorage) ListKeywords() ([]models.Keyword, error) {
	rows, err := s.db.Query("SELECT id, name, normalized, created_at FROM keywords ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list keywords: %v", err)
	}
	defer rows.Close()

	var keywords []models.Keyword
	for rows.Next() {
		var k models.Keyword
		if err := rows.Scan(&k.ID, &k.Name, &k.Normalized, &k.CreatedAt); err != nil {
			return nil, err
		}
		keywords = append(keywords, k)
	}
	return keywords, rows.Err()
}

func (s *SQLiteStorage) ListAliases() ([]models.KeywordAlias, error) {
	rows, err := s.db.Query("SELECT id, keyword_id, alias, normalized FROM keyword_aliases ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list aliases: %v", err)
	}
	defer rows.Close()

	var aliases []models.KeywordAlias
	for rows.Next() {
		var a models.KeywordAlias
		if err := rows.Scan(&a.ID, &a.KeywordID, &a.Alias, &a.Normalized); err != nil {
			return nil, err
		}
		aliases = append(aliases, a)
	}
	return aliases, rows.Err()
}

func (s *SQLiteStorage) GetKeywordByNormalized(normalized string) (*models.Keyword, error) {
	var k models.Keyword
	err := s.db.QueryRow(
		"SELECT id, name, normalized, created_at FROM keywords WHERE normalized = ?", normalized).
		Scan(&k.ID, &k.Name, &k.Normalized, &k.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get keyword: %v", err)
	}
	return &k, nil
}

// CreateKeyword inserts a keyword, returning the existing row's id when the
// normalized name is already present.
func (s *SQLiteStorage) CreateKeyword(name, normalized string) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	result, err := s.db.Exec(
		"INSERT OR IGNORE INTO keywords (name, normalized) VALUES (?, ?)", name, normalized)
	if err != nil {
		return 0, fmt.Errorf("failed to create keyword: %v", err)
	}
	if affected, _ := result.RowsAffected(); affected > 0 {
		id, _ := result.LastInsertId()
		return id, nil
	}
	var id int64
	if err := s.db.QueryRow("SELECT id FROM keywords WHERE normalized = ?", normalized).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to resolve keyword id: %v", err)
	}
	return id, nil
}

func (s *SQLiteStorage) CreateKeywordAlias(keywordID int64, alias, normalized string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO keyword_aliases (keyword_id, alias, normalized) VALUES (?, ?, ?)",
		keywordID, alias, normalized)
	if err != nil {
		return fmt.Errorf("failed to create alias: %v", err)
	}
	return nil
}

const topicColumns = "id, name, normalized, slug, status, start_date, end_date, created_at"

func scanTopic(row interface{ Scan(...any) error }) (*models.Topic, error) {
	var t models.Topic
	var start, end sql.NullTime
	err := row.Scan(&t.ID, &t.Name, &t.Normalized, &t.Slug, &t.Status, &start, &end, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	if start.Valid {
		v := start.Time
		t.StartDate = &v
	}
	if end.Valid {
		v := end.Time
		t.EndDate = &v
	}
	return &t, nil
}

func (s *SQLiteStorage) ListTopics(status string) ([]models.Topic, error) {
	builder := sq.Select(topicColumns).From("topics").OrderBy("id")
	if status != "" {
		builder = builder.Where(sq.Eq{"status": status})
	}
	sqlStr, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build topic query: %v", err)
	}

	rows, err := s.db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %v", err)
	}
	defer rows.Close()

	var topics []models.Topic
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, err
		}
		topics = append(topics, *t)
	}
	return topics, rows.Err()
}

// GetTopicByName looks a topic up by its normalized name, slug, or alias.
func (s *SQLiteStorage) GetTopicByName(normalized string) (*models.Topic, error) {
	row := s.db.QueryRow(
		"SELECT "+topicColumns+" FROM topics WHERE normalized = ? OR slug = ?",
		normalized, normalized)
	t, err := scanTopic(row)
	if err == nil {
		return t, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get topic: %v", err)
	}

	row = s.db.QueryRow(
		"SELECT t.id, t.name, t.normalized, t.slug, t.status, t.start_date, t.end_date, t.created_at FROM topics t JOIN topic_aliases ta ON ta.topic_id = t.id WHERE ta.normalized = ?",
		normalized)
	t, err = scanTopic(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get topic by alias: %v", err)
	}
	return t, nil
}

func (s *SQLiteStorage) GetTopic(id int64) (*models.Topic, error) {
	row := s.db.QueryRow("SELECT "+topicColumns+" FROM topics WHERE id = ?", id)
	t, err := scanTopic(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("topic %d not found", id)
	}
	return t, err
}

func (s *SQLiteStorage) CreateTopicAlias(topicID int64, alias, normalized string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO topic_aliases (topic_id, alias, normalized) VALUES (?, ?, ?)",
		topicID, alias, normalized)
	return err
}

func (s *SQLiteStorage) CreateTopic(name, normalized, slug, status string, start, end *time.Time) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var startDate, endDate sql.NullTime
	if start != nil {
		startDate = sql.NullTime{Time: *start, Valid: true}
	}
	if end != nil {
		endDate = sql.NullTime{Time: *end, Valid: true}
	}

	result, err := s.db.Exec(
		"INSERT OR IGNORE INTO topics (name, normalized, slug, status, start_date, end_date) VALUES (?, ?, ?, ?, ?, ?)",
		name, normalized, slug, status, startDate, endDate)
	if err != nil {
		return 0, fmt.Errorf("failed to create topic: %v", err)
	}
	if affected, _ := result.RowsAffected(); affected > 0 {
		id, _ := result.LastInsertId()
		return id, nil
	}
	var id int64
	if err := s.db.QueryRow("SELECT id FROM topics WHERE slug = ?", slug).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to resolve topic id: %v", err)
	}
	return id, nil
}

// TopicKeywordIDs returns the keyword ids joined to a topic.
func (s *SQLiteStorage) TopicKeywordIDs(topicID int64) ([]int64, error) {
	rows, err := s.db.Query("SELECT keyword_id FROM topic_keywords WHERE topic_id = ?", topicID)
	if err != nil {
		return nil, fmt.Errorf("failed to query topic keywords: %v", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStorage) AddTopicKeyword(topicID, keywordID int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO topic_keywords (topic_id, keyword_id) VALUES (?, ?)",
		topicID, keywordID)
	return err
}

// TopicsForKeywords returns the active topics linked to any of the given
// keywords. Temporal scoping is applied by the classification engine.
func (s *SQLiteStorage) TopicsForKeywords(keywordIDs []int64) ([]models.Topic, error) {
	if len(keywordIDs) == 0 {
		return nil, nil
	}

	builder := sq.Select("DISTINCT t.id", "t.name", "t.normalized", "t.slug", "t.status", "t.start_date", "t.end_date", "t.created_at").
		From("topics t").
		Join("topic_keywords tk ON tk.topic_id = t.id").
		Where(sq.Eq{"t.status": models.TopicActive}).
		Where(sq.Eq{"tk.keyword_id": keywordIDs})

	sqlStr, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build topic join: %v", err)
	}

	rows, err := s.db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query topics for keywords: %v", err)
	}
	defer rows.Close()

	var topics []models.Topic
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, err
		}
		topics = append(topics, *t)
	}
	return topics, rows.Err()
}

// ---------------------------------------------------------------------------
// Classification links

func (s *SQLiteStorage) LinkQuoteKeyword(quoteID, keywordID int64, confidence string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO quote_keywords (quote_id, keyword_id, confidence) VALUES (?, ?, ?)",
		quoteID, keywordID, confidence)
	return err
}

func (s *SQLiteStorage) LinkQuoteTopic(quoteID, topicID int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO quote_topics (quote_id, topic_id) VALUES (?, ?)",
		quoteID, topicID)
	return err
}

func (s *SQLiteStorage) QuoteKeywordIDs(quoteID int64) ([]int64, error) {
	rows, err := s.db.Query("SELECT keyword_id FROM quote_keywords WHERE quote_id = ?", quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quote keywords: %v", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// KeywordsWithMediumLinks returns keyword ids holding at least min
// medium-confidence links, with their counts. Feeds alias-expansion
// promotion.
func (s *SQLiteStorage) KeywordsWithMediumLinks(min int) (map[int64]int, error) {
	rows, err := s.db.Query(
		"SELECT keyword_id, COUNT(*) FROM quote_keywords WHERE confidence = ? GROUP BY keyword_id HAVING COUNT(*) >= ?",
		models.ConfidenceMedium, min)
	if err != nil {
		return nil, fmt.Errorf("failed to query medium links: %v", err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// ---------------------------------------------------------------------------
// Topic materialization

func (s *SQLiteStorage) ClearQuoteTopics() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err := s.db.Exec("DELETE FROM quote_topics")
	return err
}

func (s *SQLiteStorage) ClearQuoteTopicsForTopic(topicID int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err := s.db.Exec("DELETE FROM quote_topics WHERE topic_id = ?", topicID)
	return err
}

// InsertQuoteTopics bulk-inserts derived topic links inside one transaction.
func (s *SQLiteStorage) InsertQuoteTopics(topicID int64, quoteIDs []int64) error {
	if len(quoteIDs) == 0 {
		return nil
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	stmt, err := tx.Prepare("INSERT OR IGNORE INTO quote_topics (quote_id, topic_id) VALUES (?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %v", err)
	}
	defer stmt.Close()

	for _, quoteID := range quoteIDs {
		if _, err := stmt.Exec(quoteID, topicID); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert quote topic: %v", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStorage) CountQuoteTopics() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM quote_topics").Scan(&count)
	return count, err
}

// VisibleQuoteIDsForKeywords returns visible quotes linked to any of the
// keywords, restricted to the topic's date window. A quote with no effective
// date passes the window by default (see DESIGN.md).
func (s *SQLiteStorage) VisibleQuoteIDsForKeywords(keywordIDs []int64, start, end *time.Time) ([]int64, error) {
	if len(keywordIDs) == 0 {
		return nil, nil
	}

	builder := sq.Select("DISTINCT qk.quote_id").
		From("quote_keywords qk").
		Join("quotes q ON q.id = qk.quote_id").
		Where(sq.Eq{"q.visible": true}).
		Where(sq.Eq{"qk.keyword_id": keywordIDs})
	if start != nil {
		builder = builder.Where(sq.Or{sq.Eq{"q.quoted_at": nil}, sq.GtOrEq{"q.quoted_at": *start}})
	}
	if end != nil {
		builder = builder.Where(sq.Or{sq.Eq{"q.quoted_at": nil}, sq.LtOrEq{"q.quoted_at": *end}})
	}

	sqlStr, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build membership query: %v", err)
	}

	rows, err := s.db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query topic membership: %v", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ---------------------------------------------------------------------------
// Taxonomy suggestions

const suggestionColumns = "id, type, normalized, payload, source, status, occurrences, created_at, last_seen, resolved_at"

func scanSuggestion(row interface{ Scan(...any) error }) (*models.TaxonomySuggestion, error) {
	var sug models.TaxonomySuggestion
	var payloadJSON string
	var resolvedAt sql.NullTime
	err := row.Scan(&sug.ID, &sug.Type, &sug.Normalized, &payloadJSON, &sug.Source,
		&sug.Status, &sug.Occurrences, &sug.CreatedAt, &sug.LastSeen, &resolvedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(payloadJSON), &sug.Payload); err != nil {
		return nil, fmt.Errorf("corrupt suggestion payload %d: %v", sug.ID, err)
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		sug.ResolvedAt = &t
	}
	return &sug, nil
}

// CreateSuggestion inserts a suggestion unless a pending one already exists
// for the same (type, normalized, source); a repeat sighting bumps the
// pending row's occurrence count instead. Returns whether a new row was
// inserted. The caller is responsible for the live-vocabulary check.
func (s *SQLiteStorage) CreateSuggestion(sug *models.TaxonomySuggestion) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	payload, err := json.Marshal(sug.Payload)
	if err != nil {
		return false, fmt.Errorf("failed to marshal payload: %v", err)
	}
	occurrences := sug.Occurrences
	if occurrences == 0 {
		occurrences = 1
	}

	result, err := s.db.Exec(
		"INSERT OR IGNORE INTO suggestions (type, normalized, payload, source, status, occurrences) VALUES (?, ?, ?, ?, ?, ?)",
		sug.Type, sug.Normalized, string(payload), sug.Source, models.SuggestionPending, occurrences)
	if err != nil {
		return false, fmt.Errorf("failed to create suggestion: %v", err)
	}
	affected, _ := result.RowsAffected()
	if affected > 0 {
		sug.ID, _ = result.LastInsertId()
		return true, nil
	}

	if sug.Source == models.SourceExtraction {
		if _, err := s.db.Exec(
			"UPDATE suggestions SET occurrences = occurrences + 1, last_seen = CURRENT_TIMESTAMP WHERE type = ? AND normalized = ? AND source = ? AND status = ?",
			sug.Type, sug.Normalized, sug.Source, models.SuggestionPending); err != nil {
			return false, fmt.Errorf("failed to bump suggestion occurrences: %v", err)
		}
	}
	return false, nil
}

func (s *SQLiteStorage) GetSuggestion(id int64) (*models.TaxonomySuggestion, error) {
	row := s.db.QueryRow("SELECT "+suggestionColumns+" FROM suggestions WHERE id = ?", id)
	sug, err := scanSuggestion(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("suggestion %d not found", id)
	}
	return sug, err
}

func (s *SQLiteStorage) GetPendingSuggestion(suggestionType, normalized string) (*models.TaxonomySuggestion, error) {
	row := s.db.QueryRow(
		"SELECT "+suggestionColumns+" FROM suggestions WHERE type = ? AND normalized = ? AND status = ? ORDER BY id LIMIT 1",
		suggestionType, normalized, models.SuggestionPending)
	sug, err := scanSuggestion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sug, err
}

func (s *SQLiteStorage) ListSuggestions(suggestionType, status string, limit int) ([]models.TaxonomySuggestion, error) {
	builder := sq.Select(suggestionColumns).From("suggestions").OrderBy("created_at DESC", "id DESC")
	if suggestionType != "" {
		builder = builder.Where(sq.Eq{"type": suggestionType})
	}
	if status != "" {
		builder = builder.Where(sq.Eq{"status": status})
	}
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	sqlStr, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build suggestion query: %v", err)
	}

	rows, err := s.db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list suggestions: %v", err)
	}
	defer rows.Close()

	var suggestions []models.TaxonomySuggestion
	for rows.Next() {
		sug, err := scanSuggestion(rows)
		if err != nil {
			return nil, err
		}
		suggestions = append(suggestions, *sug)
	}
	return suggestions, rows.Err()
}

func (s *SQLiteStorage) ResolveSuggestion(id int64, status string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err := s.db.Exec(
		"UPDATE suggestions SET status = ?, resolved_at = CURRENT_TIMESTAMP WHERE id = ?",
		status, id)
	if err != nil {
		return fmt.Errorf("failed to resolve suggestion %d: %v", id, err)
	}
	return nil
}

// PendingExtractionSuggestions returns pending extraction-sourced suggestions
// of one type last sighted within the evolution lookback window. Filtering on
// last_seen rather than created_at keeps a name alive as long as sightings
// keep bumping it, however old the original row is.
func (s *SQLiteStorage) PendingExtractionSuggestions(suggestionType string, since time.Time) ([]models.TaxonomySuggestion, error) {
	rows, err := s.db.Query(
		"SELECT "+suggestionColumns+" FROM suggestions WHERE type = ? AND source = ? AND status = ? AND last_seen >= ? ORDER BY id",
		suggestionType, models.SourceExtraction, models.SuggestionPending, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query extraction suggestions: %v", err)
	}
	defer rows.Close()

	var suggestions []models.TaxonomySuggestion
	for rows.Next() {
		sug, err := scanSuggestion(rows)
		if err != nil {
			return nil, err
		}
		suggestions = append(suggestions, *sug)
	}
	return suggestions, rows.Err()
}

// ---------------------------------------------------------------------------
// Gap backfill bookkeeping

func (s *SQLiteStorage) HasBackfillAttempt(day string) (bool, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM backfill_attempts WHERE day = ?", day).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check backfill attempt: %v", err)
	}
	return count > 0, nil
}

func (s *SQLiteStorage) CreateBackfillAttempt(day string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO backfill_attempts (day, status) VALUES (?, ?)",
		day, models.BackfillProcessing)
	if err != nil {
		return fmt.Errorf("failed to create backfill attempt: %v", err)
	}
	return nil
}

func (s *SQLiteStorage) UpdateBackfillAttempt(day, status string, found, processed int, errMsg string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err := s.db.Exec(
		"UPDATE backfill_attempts SET status = ?, found = ?, processed = ?, error = ?, updated_at = CURRENT_TIMESTAMP WHERE day = ?",
		status, found, processed, errMsg, day)
	return err
}

func (s *SQLiteStorage) ListBackfillAttempts(limit int) ([]models.BackfillAttempt, error) {
	if limit <= 0 {
		limit = 90
	}
	rows, err := s.db.Query(
		"SELECT id, day, status, found, processed, error, created_at, updated_at FROM backfill_attempts ORDER BY day DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list backfill attempts: %v", err)
	}
	defer rows.Close()

	var attempts []models.BackfillAttempt
	for rows.Next() {
		var a models.BackfillAttempt
		if err := rows.Scan(&a.ID, &a.Day, &a.Status, &a.Found, &a.Processed, &a.Error, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// ---------------------------------------------------------------------------
// Settings

// SeedSettings inserts defaults for any knob not already present.
func (s *SQLiteStorage) SeedSettings(defaults map[string]string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for key, value := range defaults {
		if _, err := s.db.Exec(
			"INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)", key, value); err != nil {
			return fmt.Errorf("failed to seed setting %s: %v", key, err)
		}
	}
	return nil
}

func (s *SQLiteStorage) GetSettings() (*models.Settings, error) {
	rows, err := s.db.Query("SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %v", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	settings := &models.Settings{
		FetchIntervalMinutes:  settingInt(values, "fetch_interval_minutes", 5),
		ArticlesPerSource:     settingInt(values, "articles_per_source", 10),
		LookbackHours:         settingInt(values, "lookback_hours", 24),
		HistoricalEnabled:     settingBool(values, "historical_enabled", false),
		HistoricalPerProvider: settingInt(values, "historical_per_provider", 5),
		BackfillEnabled:       settingBool(values, "backfill_enabled", false),
		BackfillPerCycle:      settingInt(values, "backfill_per_cycle", 5),
		EvolutionLookbackDays: settingInt(values, "evolution_lookback_days", 7),
	}
	return settings, nil
}

func (s *SQLiteStorage) UpdateSetting(key, value string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err := s.db.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	return err
}

func settingInt(values map[string]string, key string, defaultVal int) int {
	if v, ok := values[key]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func settingBool(values map[string]string, key string, defaultVal bool) bool {
	if v, ok := values[key]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}
