package catalog

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSource(t *testing.T) *SQLiteSource {
	t.Helper()
	src, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	ctx := context.Background()
	require.NoError(t, src.EnsureSchema(ctx))

	seed := []string{
		`INSERT INTO authors (id, first_name, last_name, period) VALUES (1, 'John', 'Donne', 'Renaissance')`,
		`INSERT INTO authors (id, first_name, last_name, period) VALUES (2, 'William', 'Shakespeare', 'Renaissance')`,
		`INSERT INTO poems (id, title, author_id, period, public_domain, publication_year, form)
			VALUES (10, 'The Flea', 1, 'Renaissance', 1, 1633, 'Sonnet')`,
		`INSERT INTO poems (id, title, author_id, hidden) VALUES (11, 'Draft', 1, 1)`,
		`INSERT INTO poem_lines (poem_id, line_no, text) VALUES (10, 2, 'How little that which thou deniest me is')`,
		`INSERT INTO poem_lines (poem_id, line_no, text) VALUES (10, 1, 'Mark but this flea, and mark in this')`,
		`INSERT INTO plays (id, title, author_id, publication_year) VALUES (20, 'Hamlet', 2, 1603)`,
		`INSERT INTO dialogue_lines (id, play_id, act_number, scene_number, actor_first, body)
			VALUES (201, 20, 1, 1, 'Bernardo', 'Who''s there?')`,
		`INSERT INTO dialogue_lines (id, play_id, act_number, scene_number, actor_first, body)
			VALUES (202, 20, 1, 2, 'Claudius', 'Though yet of Hamlet our dear brother''s death' || char(10) || 'The memory be green')`,
		`INSERT INTO dialogue_lines (id, play_id, act_number, scene_number, actor_first, body)
			VALUES (203, 20, 3, 1, 'Hamlet', 'To be, or not to be')`,
		`INSERT INTO characters (id, title, author_id, first_name, last_name, gender)
			VALUES (30, 'Hamlet', 2, 'Ophelia', '', 'F')`,
	}
	for _, stmt := range seed {
		_, err := src.DB().ExecContext(ctx, stmt)
		require.NoError(t, err, stmt)
	}
	return src
}

func TestSQLiteSource_StreamPoems_SkipsHiddenAndOrdersLines(t *testing.T) {
	// Given: a catalog with one visible and one hidden poem
	src := newTestSource(t)

	// When: streaming poems
	var poems []*Poem
	err := src.Stream(context.Background(), KindPoem, func(item Item) error {
		poems = append(poems, item.(*Poem))
		return nil
	})

	// Then: only the visible poem is returned, lines in line order
	require.NoError(t, err)
	require.Len(t, poems, 1)
	p := poems[0]
	assert.Equal(t, int64(10), p.ID)
	assert.Equal(t, "The Flea", p.Title)
	assert.Equal(t, "Donne", p.Author.LastName)
	assert.Equal(t, 1633, p.PublicationYear)
	require.NotNil(t, p.PublicDomain)
	assert.True(t, *p.PublicDomain)
	assert.Equal(t, []string{
		"Mark but this flea, and mark in this",
		"How little that which thou deniest me is",
	}, p.Lines)
}

func TestSQLiteSource_GetPlay_BuildsActsAndScenes(t *testing.T) {
	// Given: a play with dialogue across two acts
	src := newTestSource(t)

	// When: loading it by id
	item, err := src.Get(context.Background(), KindPlay, 20)

	// Then: acts and scenes are grouped and lines are split on newlines
	require.NoError(t, err)
	play := item.(*Play)
	assert.Nil(t, play.PublicDomain)
	require.Len(t, play.Acts, 2)
	assert.Equal(t, 1, play.Acts[0].Number)
	require.Len(t, play.Acts[0].Scenes, 2)
	assert.Equal(t, 3, play.Acts[1].Number)

	lines := play.DialogueLines()
	require.Len(t, lines, 3)
	assert.Equal(t, "Hamlet", lines[1].PlayTitle)
	assert.Equal(t, "Shakespeare", lines[1].Author.LastName)
	assert.Equal(t, []string{"Though yet of Hamlet our dear brother's death", "The memory be green"}, lines[1].Body)
}

func TestSQLiteSource_Get_Missing(t *testing.T) {
	src := newTestSource(t)

	_, err := src.Get(context.Background(), KindAuthor, 999)

	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSQLiteSource_Stream_StopsOnCallbackError(t *testing.T) {
	// Given: two authors
	src := newTestSource(t)
	stop := assert.AnError

	// When: the callback fails on the first row
	calls := 0
	err := src.Stream(context.Background(), KindAuthor, func(Item) error {
		calls++
		return stop
	})

	// Then: streaming halts with that error
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestSQLiteSource_Stream_DialogueNotStreamable(t *testing.T) {
	src := newTestSource(t)

	err := src.Stream(context.Background(), KindDialogue, func(Item) error { return nil })

	assert.Error(t, err)
}

func TestSQLiteSource_Characters(t *testing.T) {
	src := newTestSource(t)

	item, err := src.Get(context.Background(), KindCharacter, 30)

	require.NoError(t, err)
	c := item.(*Character)
	assert.Equal(t, "Ophelia", c.FirstName)
	assert.Equal(t, "F", c.Gender)
	assert.Equal(t, "Shakespeare", c.Author.LastName)
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind(" poem ")
	assert.True(t, ok)
	assert.Equal(t, KindPoem, k)

	_, ok = ParseKind("NOVEL")
	assert.False(t, ok)
}
