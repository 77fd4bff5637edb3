package catalog

// Author is a person credited with items in the archive.
type Author struct {
	ID         int64
	FirstName  string
	MiddleName string
	LastName   string
	Period     string
}

func (a *Author) Kind() Kind    { return KindAuthor }
func (a *Author) ItemID() int64 { return a.ID }

// Common holds the fields shared by every titled work.
type Common struct {
	ID              int64
	Title           string
	Category        string
	Author          Author
	Period          string
	PublicDomain    *bool
	PublicationYear int
}

func (c *Common) ItemID() int64 { return c.ID }

// Poem is a poem with its lines in order.
type Poem struct {
	Common
	Form       string
	TopicModel string
	Lines      []string
	Hidden     bool
}

func (p *Poem) Kind() Kind { return KindPoem }

// Section is a chapter or section of a book.
type Section struct {
	Common
	ParentID    int64
	ParentTitle string
	Text        string
}

func (s *Section) Kind() Kind { return KindSection }

// ShortStory is a standalone prose work.
type ShortStory struct {
	Common
	Text string
}

func (s *ShortStory) Kind() Kind { return KindShortStory }

// Actor is a speaking role in a play.
type Actor struct {
	FirstName  string
	MiddleName string
	LastName   string
}

// DialogueLine is one speech in a play scene. PlayID, PlayTitle and Author
// are denormalised from the owning play.
type DialogueLine struct {
	ID          int64
	PlayID      int64
	PlayTitle   string
	Author      Author
	ActNumber   int
	SceneNumber int
	Actor       Actor
	Body        []string
}

func (d *DialogueLine) Kind() Kind    { return KindDialogue }
func (d *DialogueLine) ItemID() int64 { return d.ID }

// Scene groups dialogue lines.
type Scene struct {
	Number int
	Lines  []DialogueLine
}

// Act groups scenes.
type Act struct {
	Number int
	Scenes []Scene
}

// Play is a dramatic work. Its dialogue lines are indexed into their own
// namespace.
type Play struct {
	Common
	Acts []Act
}

func (p *Play) Kind() Kind { return KindPlay }

// DialogueLines flattens the play's acts and scenes, filling in the play
// fields each line carries.
func (p *Play) DialogueLines() []DialogueLine {
	var out []DialogueLine
	for _, act := range p.Acts {
		for _, scene := range act.Scenes {
			for _, line := range scene.Lines {
				line.PlayID = p.ID
				line.PlayTitle = p.Title
				line.Author = p.Author
				line.ActNumber = act.Number
				line.SceneNumber = scene.Number
				out = append(out, line)
			}
		}
	}
	return out
}

// Character is a character appearing in a book.
type Character struct {
	Common
	FirstName   string
	LastName    string
	Gender      string
	Description string
}

func (c *Character) Kind() Kind { return KindCharacter }

// Bool returns a pointer to v, for the optional public-domain flag.
func Bool(v bool) *bool { return &v }
