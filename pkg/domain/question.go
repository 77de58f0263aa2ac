package domain

// QuestionKind discriminates the content of a question.
type QuestionKind string

const (
	KindShortAnswer    QuestionKind = "short_answer"
	KindLongAnswer     QuestionKind = "long_answer"
	KindMultipleChoice QuestionKind = "multiple_choice"
	KindContactInfo    QuestionKind = "contact_info"
	KindInformational  QuestionKind = "informational"
)

// ContentSource tells whether informational text is authored or generated.
type ContentSource string

const (
	SourceStatic    ContentSource = "static"
	SourceGenerated ContentSource = "generated"
)

// Question is one step in the form graph.
type Question struct {
	ID         string
	Title      string
	Content    Content
	Position   *Position
	Transition TransitionStrategy
}

// Content is the closed set of question content variants.
type Content interface {
	Kind() QuestionKind
	isContent()
}

// ShortAnswer is a single-line free text answer.
type ShortAnswer struct {
	Placeholder string `json:"placeholder,omitempty"`
}

// LongAnswer is a multi-line free text answer.
type LongAnswer struct {
	Placeholder string `json:"placeholder,omitempty"`
}

// MultipleChoice offers a fixed list of options.
type MultipleChoice struct {
	Options       []string `json:"options"`
	AllowMultiple bool     `json:"allowMultiple,omitempty"`
}

// ContactInfo collects contact fields (e.g. "email", "phone").
type ContactInfo struct {
	Fields []string `json:"fields,omitempty"`
}

// Informational shows text and expects no answer.
// When Source is SourceGenerated the text is produced by the oracle from Generation.
type Informational struct {
	Source     ContentSource `json:"contentSource"`
	Text       string        `json:"text,omitempty"`
	Generation *Generation   `json:"generation,omitempty"`
}

// Generation is the authored recipe for generated informational content.
type Generation struct {
	Prompt      string  `json:"prompt"`
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature"`
}

func (ShortAnswer) Kind() QuestionKind    { return KindShortAnswer }
func (LongAnswer) Kind() QuestionKind     { return KindLongAnswer }
func (MultipleChoice) Kind() QuestionKind { return KindMultipleChoice }
func (ContactInfo) Kind() QuestionKind    { return KindContactInfo }
func (Informational) Kind() QuestionKind  { return KindInformational }

func (ShortAnswer) isContent()    {}
func (LongAnswer) isContent()     {}
func (MultipleChoice) isContent() {}
func (ContactInfo) isContent()    {}
func (Informational) isContent()  {}

// GenerationPrompt returns the generation prompt of a generated informational
// question, if any.
func (q *Question) GenerationPrompt() (*Generation, bool) {
	info, ok := q.Content.(Informational)
	if !ok || info.Source != SourceGenerated || info.Generation == nil {
		return nil, false
	}
	return info.Generation, true
}
