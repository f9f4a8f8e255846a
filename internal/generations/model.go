package generations

import (
	"time"

	"github.com/google/uuid"
)

// Type tags a generation with the tool that produced it.
type Type string

const (
	TypeBlog         Type = "BLOG"
	TypeYouTube      Type = "YOUTUBE"
	TypeSEO          Type = "SEO"
	TypeRewriter     Type = "REWRITER"
	TypeInstagram    Type = "INSTAGRAM"
	TypeTranslation  Type = "TRANSLATION"
	TypeBrief        Type = "BRIEF"
	TypeGrammarCheck Type = "GRAMMAR_CHECK"
	TypeHashtags     Type = "HASHTAGS"
	TypeAutoPost     Type = "AUTO_POST"
	TypeComparison   Type = "COMPARISON"
)

var validTypes = map[Type]bool{
	TypeBlog: true, TypeYouTube: true, TypeSEO: true, TypeRewriter: true, TypeInstagram: true,
	TypeTranslation: true, TypeBrief: true, TypeGrammarCheck: true, TypeHashtags: true, TypeAutoPost: true,
	TypeComparison: true,
}

// Valid reports whether t is one of the known generation types.
func (t Type) Valid() bool {
	return validTypes[t]
}

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

type Generation struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"userId"`
	Type       Type      `json:"type"`
	Input      string    `json:"input"`
	Output     string    `json:"output"`
	Model      string    `json:"model"`
	Status     string    `json:"status"`
	TokensUsed int       `json:"tokensUsed"`
	Tags       []string  `json:"tags"`
	Category   string    `json:"category"`
	IsFavorite bool      `json:"isFavorite"`
	Score      *int      `json:"score"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ListFilter narrows a listing. Zero values mean "no filter".
type ListFilter struct {
	Limit  int
	Offset int
	Type   Type
	Search string
}

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

func (f ListFilter) normalize() ListFilter {
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Patch holds the user-editable fields. Nil fields are left unchanged.
type Patch struct {
	IsFavorite *bool    `json:"isFavorite"`
	Tags       []string `json:"tags" validate:"omitempty,max=20,dive,max=50"`
	Category   *string  `json:"category" validate:"omitempty,max=100"`
}
