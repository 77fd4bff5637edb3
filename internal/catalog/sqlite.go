package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	// modernc.org/sqlite registers the pure-Go "sqlite" driver.
	_ "modernc.org/sqlite"
)

// Schema is the relational layout SQLiteSource reads. The CRUD layer owns
// these tables; the search subsystem only ever selects from them.
const Schema = `
CREATE TABLE IF NOT EXISTS authors (
	id          INTEGER PRIMARY KEY,
	first_name  TEXT NOT NULL DEFAULT '',
	middle_name TEXT NOT NULL DEFAULT '',
	last_name   TEXT NOT NULL DEFAULT '',
	period      TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS poems (
	id               INTEGER PRIMARY KEY,
	title            TEXT NOT NULL,
	author_id        INTEGER REFERENCES authors(id),
	category         TEXT NOT NULL DEFAULT 'POEM',
	period           TEXT NOT NULL DEFAULT '',
	public_domain    INTEGER,
	publication_year INTEGER NOT NULL DEFAULT 0,
	form             TEXT NOT NULL DEFAULT '',
	topic_model      TEXT NOT NULL DEFAULT '',
	hidden           INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS poem_lines (
	poem_id INTEGER NOT NULL REFERENCES poems(id),
	line_no INTEGER NOT NULL,
	text    TEXT NOT NULL,
	PRIMARY KEY (poem_id, line_no)
);
CREATE TABLE IF NOT EXISTS sections (
	id               INTEGER PRIMARY KEY,
	title            TEXT NOT NULL,
	author_id        INTEGER REFERENCES authors(id),
	category         TEXT NOT NULL DEFAULT 'SECTION',
	period           TEXT NOT NULL DEFAULT '',
	public_domain    INTEGER,
	publication_year INTEGER NOT NULL DEFAULT 0,
	parent_id        INTEGER NOT NULL DEFAULT 0,
	parent_title     TEXT NOT NULL DEFAULT '',
	text             TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS short_stories (
	id               INTEGER PRIMARY KEY,
	title            TEXT NOT NULL,
	author_id        INTEGER REFERENCES authors(id),
	category         TEXT NOT NULL DEFAULT 'SHORT_STORY',
	period           TEXT NOT NULL DEFAULT '',
	public_domain    INTEGER,
	publication_year INTEGER NOT NULL DEFAULT 0,
	text             TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS plays (
	id               INTEGER PRIMARY KEY,
	title            TEXT NOT NULL,
	author_id        INTEGER REFERENCES authors(id),
	category         TEXT NOT NULL DEFAULT 'PLAY',
	period           TEXT NOT NULL DEFAULT '',
	public_domain    INTEGER,
	publication_year INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS dialogue_lines (
	id           INTEGER PRIMARY KEY,
	play_id      INTEGER NOT NULL REFERENCES plays(id),
	act_number   INTEGER NOT NULL DEFAULT 0,
	scene_number INTEGER NOT NULL DEFAULT 0,
	actor_first  TEXT NOT NULL DEFAULT '',
	actor_middle TEXT NOT NULL DEFAULT '',
	actor_last   TEXT NOT NULL DEFAULT '',
	body         TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS characters (
	id          INTEGER PRIMARY KEY,
	title       TEXT NOT NULL DEFAULT '',
	author_id   INTEGER REFERENCES authors(id),
	category    TEXT NOT NULL DEFAULT 'CHARACTER',
	period      TEXT NOT NULL DEFAULT '',
	first_name  TEXT NOT NULL DEFAULT '',
	last_name   TEXT NOT NULL DEFAULT '',
	gender      TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT ''
);
`

// dialogueBodySeparator splits the stored body column back into lines.
const dialogueBodySeparator = "\n"

// workColumns selects the Common fields for a work table aliased "w".
const workColumns = `w.id, w.title, w.category, w.period, w.public_domain, w.publication_year,
	COALESCE(a.id, 0), COALESCE(a.first_name, ''), COALESCE(a.middle_name, ''),
	COALESCE(a.last_name, ''), COALESCE(a.period, '')`

// SQLiteSource reads entities from the archive's SQLite database.
type SQLiteSource struct {
	db *sql.DB
}

// OpenSQLite opens a read-only source over the database at dsn.
// Use ":memory:" for an in-process database (tests apply Schema themselves).
func OpenSQLite(dsn string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	// A single connection keeps ":memory:" databases coherent and
	// matches the one-reader-at-a-time bulk reindex pattern.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set pragma: %w", err)
	}

	return &SQLiteSource{db: db}, nil
}

// NewSQLiteSource wraps an existing handle.
func NewSQLiteSource(db *sql.DB) *SQLiteSource {
	return &SQLiteSource{db: db}
}

// DB exposes the handle, mainly so tests can seed rows.
func (s *SQLiteSource) DB() *sql.DB {
	return s.db
}

// EnsureSchema creates the catalog tables if they are missing.
func (s *SQLiteSource) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create catalog schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

// Stream calls fn for every row of kind. Hidden poems are skipped. Dialogue
// lines are streamed through their plays and are not a streamable kind.
func (s *SQLiteSource) Stream(ctx context.Context, kind Kind, fn func(Item) error) error {
	return s.load(ctx, kind, 0, fn)
}

// Get returns a single entity, or sql.ErrNoRows when it does not exist.
func (s *SQLiteSource) Get(ctx context.Context, kind Kind, id int64) (Item, error) {
	var found Item
	err := s.load(ctx, kind, id, func(item Item) error {
		found = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, sql.ErrNoRows
	}
	return found, nil
}

func (s *SQLiteSource) load(ctx context.Context, kind Kind, id int64, fn func(Item) error) error {
	switch kind {
	case KindPoem:
		return s.loadPoems(ctx, id, fn)
	case KindSection:
		return s.loadSections(ctx, id, fn)
	case KindShortStory:
		return s.loadShortStories(ctx, id, fn)
	case KindPlay:
		return s.loadPlays(ctx, id, fn)
	case KindAuthor:
		return s.loadAuthors(ctx, id, fn)
	case KindCharacter:
		return s.loadCharacters(ctx, id, fn)
	default:
		return fmt.Errorf("catalog: kind %q is not streamable", kind)
	}
}

// selectWork builds a SELECT over a work table joined to its author.
func selectWork(table, extra string, id int64, where ...string) (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(workColumns)
	if extra != "" {
		sb.WriteString(", ")
		sb.WriteString(extra)
	}
	sb.WriteString(" FROM ")
	sb.WriteString(table)
	sb.WriteString(" w LEFT JOIN authors a ON a.id = w.author_id")

	conds := append([]string{}, where...)
	var args []any
	if id != 0 {
		conds = append(conds, "w.id = ?")
		args = append(args, id)
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY w.id")
	return sb.String(), args
}

// scanCommon returns scan destinations for workColumns and a finaliser that
// copies nullable columns into c.
func scanCommon(c *Common) ([]any, func()) {
	var publicDomain sql.NullBool
	dest := []any{
		&c.ID, &c.Title, &c.Category, &c.Period, &publicDomain, &c.PublicationYear,
		&c.Author.ID, &c.Author.FirstName, &c.Author.MiddleName, &c.Author.LastName, &c.Author.Period,
	}
	return dest, func() {
		if publicDomain.Valid {
			c.PublicDomain = Bool(publicDomain.Bool)
		}
	}
}

func (s *SQLiteSource) loadPoems(ctx context.Context, id int64, fn func(Item) error) error {
	lines, err := s.poemLines(ctx, id)
	if err != nil {
		return err
	}

	q, args := selectWork("poems", "w.form, w.topic_model", id, "w.hidden = 0")
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("failed to query poems: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		p := &Poem{}
		dest, finish := scanCommon(&p.Common)
		dest = append(dest, &p.Form, &p.TopicModel)
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("failed to scan poem: %w", err)
		}
		finish()
		p.Lines = lines[p.ID]
		if err := fn(p); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *SQLiteSource) poemLines(ctx context.Context, id int64) (map[int64][]string, error) {
	q := "SELECT poem_id, text FROM poem_lines"
	var args []any
	if id != 0 {
		q += " WHERE poem_id = ?"
		args = append(args, id)
	}
	q += " ORDER BY poem_id, line_no"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query poem lines: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[int64][]string)
	for rows.Next() {
		var poemID int64
		var text string
		if err := rows.Scan(&poemID, &text); err != nil {
			return nil, fmt.Errorf("failed to scan poem line: %w", err)
		}
		out[poemID] = append(out[poemID], text)
	}
	return out, rows.Err()
}

func (s *SQLiteSource) loadSections(ctx context.Context, id int64, fn func(Item) error) error {
	q, args := selectWork("sections", "w.parent_id, w.parent_title, w.text", id)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("failed to query sections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		sec := &Section{}
		dest, finish := scanCommon(&sec.Common)
		dest = append(dest, &sec.ParentID, &sec.ParentTitle, &sec.Text)
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("failed to scan section: %w", err)
		}
		finish()
		if err := fn(sec); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *SQLiteSource) loadShortStories(ctx context.Context, id int64, fn func(Item) error) error {
	q, args := selectWork("short_stories", "w.text", id)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("failed to query short stories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		story := &ShortStory{}
		dest, finish := scanCommon(&story.Common)
		dest = append(dest, &story.Text)
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("failed to scan short story: %w", err)
		}
		finish()
		if err := fn(story); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *SQLiteSource) loadPlays(ctx context.Context, id int64, fn func(Item) error) error {
	acts, err := s.playActs(ctx, id)
	if err != nil {
		return err
	}

	q, args := selectWork("plays", "", id)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("failed to query plays: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		p := &Play{}
		dest, finish := scanCommon(&p.Common)
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("failed to scan play: %w", err)
		}
		finish()
		p.Acts = acts[p.ID]
		if err := fn(p); err != nil {
			return err
		}
	}
	return rows.Err()
}

// playActs groups dialogue lines into acts and scenes per play.
func (s *SQLiteSource) playActs(ctx context.Context, playID int64) (map[int64][]Act, error) {
	q := `SELECT id, play_id, act_number, scene_number, actor_first, actor_middle, actor_last, body
		FROM dialogue_lines`
	var args []any
	if playID != 0 {
		q += " WHERE play_id = ?"
		args = append(args, playID)
	}
	q += " ORDER BY play_id, act_number, scene_number, id"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dialogue lines: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[int64][]Act)
	for rows.Next() {
		var line DialogueLine
		var body string
		if err := rows.Scan(&line.ID, &line.PlayID, &line.ActNumber, &line.SceneNumber,
			&line.Actor.FirstName, &line.Actor.MiddleName, &line.Actor.LastName, &body); err != nil {
			return nil, fmt.Errorf("failed to scan dialogue line: %w", err)
		}
		if body != "" {
			line.Body = strings.Split(body, dialogueBodySeparator)
		}

		acts := out[line.PlayID]
		if len(acts) == 0 || acts[len(acts)-1].Number != line.ActNumber {
			acts = append(acts, Act{Number: line.ActNumber})
		}
		act := &acts[len(acts)-1]
		if len(act.Scenes) == 0 || act.Scenes[len(act.Scenes)-1].Number != line.SceneNumber {
			act.Scenes = append(act.Scenes, Scene{Number: line.SceneNumber})
		}
		scene := &act.Scenes[len(act.Scenes)-1]
		scene.Lines = append(scene.Lines, line)
		out[line.PlayID] = acts
	}
	return out, rows.Err()
}

func (s *SQLiteSource) loadAuthors(ctx context.Context, id int64, fn func(Item) error) error {
	q := "SELECT id, first_name, middle_name, last_name, period FROM authors"
	var args []any
	if id != 0 {
		q += " WHERE id = ?"
		args = append(args, id)
	}
	q += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("failed to query authors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		a := &Author{}
		if err := rows.Scan(&a.ID, &a.FirstName, &a.MiddleName, &a.LastName, &a.Period); err != nil {
			return fmt.Errorf("failed to scan author: %w", err)
		}
		if err := fn(a); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *SQLiteSource) loadCharacters(ctx context.Context, id int64, fn func(Item) error) error {
	q := `SELECT w.id, w.title, w.category, w.period, NULL, 0,
		COALESCE(a.id, 0), COALESCE(a.first_name, ''), COALESCE(a.middle_name, ''),
		COALESCE(a.last_name, ''), COALESCE(a.period, ''),
		w.first_name, w.last_name, w.gender, w.description
		FROM characters w LEFT JOIN authors a ON a.id = w.author_id`
	var args []any
	if id != 0 {
		q += " WHERE w.id = ?"
		args = append(args, id)
	}
	q += " ORDER BY w.id"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("failed to query characters: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		c := &Character{}
		dest, finish := scanCommon(&c.Common)
		dest = append(dest, &c.FirstName, &c.LastName, &c.Gender, &c.Description)
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("failed to scan character: %w", err)
		}
		finish()
		if err := fn(c); err != nil {
			return err
		}
	}
	return rows.Err()
}

var _ Source = (*SQLiteSource)(nil)
