package document

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Aman-CERP/litsearch/internal/analysis"
	"github.com/Aman-CERP/litsearch/internal/catalog"
	lserrors "github.com/Aman-CERP/litsearch/internal/errors"
)

const (
	// PoemLineDelimiter joins poem lines into the text field.
	PoemLineDelimiter = " / "

	// DialogueLineDelimiter joins the lines of one speech.
	DialogueLineDelimiter = " "
)

// Map converts an entity to its index document. A missing id is a programmer
// error and fails with ErrMissingID; an unsupported entity fails with
// ErrUnknownKind. Plays map to their own document only; use MapPlay to get
// the dialogue-line documents as well.
func Map(item catalog.Item) (Document, error) {
	if item == nil {
		return Document{}, lserrors.New(lserrors.ErrCodeUnknownKind, "nil entity", nil)
	}
	if item.ItemID() <= 0 {
		return Document{}, lserrors.New(lserrors.ErrCodeMissingID,
			fmt.Sprintf("%s entity has no id", item.Kind()), nil)
	}

	switch e := item.(type) {
	case *catalog.Poem:
		return mapPoem(e), nil
	case *catalog.Section:
		return mapSection(e), nil
	case *catalog.ShortStory:
		return mapShortStory(e), nil
	case *catalog.Play:
		return mapWork(catalog.KindPlay, &e.Common), nil
	case *catalog.DialogueLine:
		return mapDialogueLine(e), nil
	case *catalog.Author:
		return mapAuthor(e), nil
	case *catalog.Character:
		return mapCharacter(e), nil
	default:
		return Document{}, lserrors.New(lserrors.ErrCodeUnknownKind,
			fmt.Sprintf("cannot map %T", item), nil)
	}
}

// MapPlay maps a play and each of its dialogue lines. Any line without an id
// fails the whole mapping.
func MapPlay(p *catalog.Play) (Document, []Document, error) {
	doc, err := Map(p)
	if err != nil {
		return Document{}, nil, err
	}

	lines := p.DialogueLines()
	docs := make([]Document, 0, len(lines))
	for i := range lines {
		d, err := Map(&lines[i])
		if err != nil {
			return Document{}, nil, err
		}
		docs = append(docs, d)
	}
	return doc, docs, nil
}

// mapWork writes the fields every titled work shares.
func mapWork(kind catalog.Kind, c *catalog.Common) Document {
	d := newDocument(kind, c.ID)
	d.setString(analysis.FieldTitle, c.Title)
	d.setString(analysis.FieldFirstName, c.Author.FirstName)
	d.setString(analysis.FieldLastName, c.Author.LastName)

	period := c.Period
	if period == "" {
		period = c.Author.Period
	}
	d.setString(analysis.FieldPeriod, period)

	if c.PublicDomain != nil {
		d.setString(analysis.FieldPublicDomain, strconv.FormatBool(*c.PublicDomain))
	}
	d.setNumber(analysis.FieldPublicationYear, c.PublicationYear)
	return d
}

func mapPoem(p *catalog.Poem) Document {
	d := mapWork(catalog.KindPoem, &p.Common)
	d.setString(analysis.FieldPoemForm, p.Form)
	d.setString(analysis.FieldTopicModel, p.TopicModel)
	d.setString(analysis.FieldText, strings.Join(p.Lines, PoemLineDelimiter))
	return d
}

func mapSection(s *catalog.Section) Document {
	d := mapWork(catalog.KindSection, &s.Common)
	d.setInt(analysis.FieldParentID, s.ParentID)
	d.setString(analysis.FieldParentTitle, s.ParentTitle)
	d.setString(analysis.FieldText, s.Text)
	return d
}

func mapShortStory(s *catalog.ShortStory) Document {
	d := mapWork(catalog.KindShortStory, &s.Common)
	d.setString(analysis.FieldText, s.Text)
	return d
}

func mapDialogueLine(l *catalog.DialogueLine) Document {
	d := newDocument(catalog.KindDialogue, l.ID)
	d.setString(analysis.FieldTitle, l.PlayTitle)
	d.setString(analysis.FieldFirstName, l.Author.FirstName)
	d.setString(analysis.FieldLastName, l.Author.LastName)
	d.setString(analysis.FieldPeriod, l.Author.Period)
	d.setInt(analysis.FieldParentID, l.PlayID)
	d.setString(analysis.FieldParentTitle, l.PlayTitle)
	d.setString(analysis.FieldActorFirstName, l.Actor.FirstName)
	d.setString(analysis.FieldActorMiddleName, l.Actor.MiddleName)
	d.setString(analysis.FieldActorLastName, l.Actor.LastName)
	d.setInt(analysis.FieldActNumber, int64(l.ActNumber))
	d.setInt(analysis.FieldSceneNumber, int64(l.SceneNumber))
	d.setString(analysis.FieldText, strings.Join(l.Body, DialogueLineDelimiter))
	return d
}

func mapAuthor(a *catalog.Author) Document {
	d := newDocument(catalog.KindAuthor, a.ID)
	d.setString(analysis.FieldFirstName, a.FirstName)
	d.setString(analysis.FieldMiddleName, a.MiddleName)
	d.setString(analysis.FieldLastName, a.LastName)
	d.setString(analysis.FieldPeriod, a.Period)
	return d
}

func mapCharacter(c *catalog.Character) Document {
	d := mapWork(catalog.KindCharacter, &c.Common)
	d.setString(analysis.FieldCharFirstName, c.FirstName)
	d.setString(analysis.FieldCharLastName, c.LastName)
	d.setString(analysis.FieldCharGender, c.Gender)
	d.setString(analysis.FieldText, c.Description)
	return d
}
