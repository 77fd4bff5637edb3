package analysis

// Index field names. These are shared by the mapper, the query builders and
// the result encoder, and are part of the on-disk format: renaming one needs
// a full reindex.
const (
	FieldID              = "id"
	FieldCategory        = "category"
	FieldTitle           = "title"
	FieldFirstName       = "firstName"
	FieldMiddleName      = "middleName"
	FieldLastName        = "lastName"
	FieldPeriod          = "period"
	FieldPublicDomain    = "isPublicDomain"
	FieldPublicationYear = "publicationYear"
	FieldTopicModel      = "topic_model"
	FieldPoemForm        = "poem_form"
	FieldText            = "text"
	FieldParentID        = "parentId"
	FieldParentTitle     = "parentTitle"
	FieldActorFirstName  = "actFirstName"
	FieldActorMiddleName = "actMiddleName"
	FieldActorLastName   = "actLastName"
	FieldActNumber       = "actNumber"
	FieldSceneNumber     = "sceneNumber"
	FieldCharFirstName   = "character_first_name"
	FieldCharLastName    = "character_last_name"
	FieldCharGender      = "character_gender"
)

// Pipeline identifies one of the fixed analysis chains.
type Pipeline int

const (
	// PipelineText tokenizes on Unicode word boundaries, strips possessives,
	// lowercases, drops English stop words and applies the Porter stemmer.
	PipelineText Pipeline = iota
	// PipelineName tokenizes and lowercases, without stemming.
	PipelineName
	// PipelineLiteral keeps the whole value as one lowercased token.
	PipelineLiteral
	// PipelineNumeric indexes the value as a number.
	PipelineNumeric
)

func (p Pipeline) String() string {
	switch p {
	case PipelineText:
		return "text"
	case PipelineName:
		return "name"
	case PipelineLiteral:
		return "literal"
	case PipelineNumeric:
		return "numeric"
	default:
		return "unknown"
	}
}

// fieldRules is the frozen field → pipeline table.
var fieldRules = map[string]Pipeline{
	FieldID:              PipelineLiteral,
	FieldCategory:        PipelineLiteral,
	FieldTitle:           PipelineName,
	FieldFirstName:       PipelineName,
	FieldMiddleName:      PipelineName,
	FieldLastName:        PipelineName,
	FieldPeriod:          PipelineLiteral,
	FieldPublicDomain:    PipelineLiteral,
	FieldPublicationYear: PipelineNumeric,
	FieldTopicModel:      PipelineText,
	FieldPoemForm:        PipelineLiteral,
	FieldText:            PipelineText,
	FieldParentID:        PipelineLiteral,
	FieldParentTitle:     PipelineName,
	FieldActorFirstName:  PipelineName,
	FieldActorMiddleName: PipelineName,
	FieldActorLastName:   PipelineName,
	FieldActNumber:       PipelineLiteral,
	FieldSceneNumber:     PipelineLiteral,
	FieldCharFirstName:   PipelineName,
	FieldCharLastName:    PipelineName,
	FieldCharGender:      PipelineLiteral,
}
