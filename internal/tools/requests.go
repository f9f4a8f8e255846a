package tools

// requiredMessager is implemented by every tool request. The message is
// returned when a required field is missing.
type requiredMessager interface {
	requiredMessage() string
}

type BlogRequest struct {
	Title  string `json:"title" validate:"required,max=500"`
	Topic  string `json:"topic" validate:"required,max=5000"`
	Tone   string `json:"tone,omitempty" validate:"max=100"`
	Length string `json:"length,omitempty" validate:"max=100"`
	Model  string `json:"model,omitempty" validate:"max=100"`
}

func (BlogRequest) requiredMessage() string { return "Title and topic are required" }

type YouTubeRequest struct {
	Topic        string `json:"topic" validate:"required,max=5000"`
	Duration     string `json:"duration,omitempty" validate:"max=100"`
	Style        string `json:"style,omitempty" validate:"max=200"`
	IncludeIntro *bool  `json:"includeIntro,omitempty"`
	IncludeOutro *bool  `json:"includeOutro,omitempty"`
}

func (YouTubeRequest) requiredMessage() string { return "Topic is required" }

type SEORequest struct {
	Keyword        string `json:"keyword" validate:"required,max=500"`
	TargetAudience string `json:"targetAudience,omitempty" validate:"max=500"`
	ContentType    string `json:"contentType,omitempty" validate:"max=100"`
	Competitors    string `json:"competitors,omitempty" validate:"max=2000"`
}

func (SEORequest) requiredMessage() string { return "Keyword is required" }

type RewriterRequest struct {
	Content string `json:"content" validate:"required,max=50000"`
	Tone    string `json:"tone,omitempty" validate:"max=100"`
	Style   string `json:"style,omitempty" validate:"max=100"`
	Purpose string `json:"purpose,omitempty" validate:"max=500"`
}

func (RewriterRequest) requiredMessage() string { return "Content is required" }

type InstagramRequest struct {
	Campaign string `json:"campaign" validate:"required,max=2000"`
	Offer    string `json:"offer" validate:"required,max=2000"`
	Tone     string `json:"tone,omitempty" validate:"max=100"`
	Hashtags string `json:"hashtags,omitempty" validate:"max=500"`
	PostType string `json:"postType,omitempty" validate:"max=100"`
}

func (InstagramRequest) requiredMessage() string { return "Campaign and offer details are required" }

type BriefRequest struct {
	Topic          string `json:"topic" validate:"required,max=5000"`
	TargetAudience string `json:"targetAudience,omitempty" validate:"max=500"`
	Goals          string `json:"goals,omitempty" validate:"max=1000"`
	Format         string `json:"format,omitempty" validate:"max=100"`
	Tone           string `json:"tone,omitempty" validate:"max=100"`
}

func (BriefRequest) requiredMessage() string { return "Topic is required" }

type TranslationOptions struct {
	PreserveTone       bool   `json:"preserveTone,omitempty"`
	PreserveFormatting bool   `json:"preserveFormatting,omitempty"`
	TargetAudience     string `json:"targetAudience,omitempty" validate:"max=500"`
	Domain             string `json:"domain,omitempty" validate:"max=100"`
}

type TranslateRequest struct {
	Content           string             `json:"content" validate:"required,max=50000"`
	TargetLanguage    string             `json:"targetLanguage,omitempty" validate:"max=10"`
	SourceLanguage    string             `json:"sourceLanguage,omitempty" validate:"max=10"`
	Options           TranslationOptions `json:"options"`
	MultipleLanguages []string           `json:"multipleLanguages" validate:"max=29,dive,max=10"`
}

func (TranslateRequest) requiredMessage() string { return "Content is required" }

type GrammarRequest struct {
	Content string `json:"content" validate:"required,max=50000"`
}

func (GrammarRequest) requiredMessage() string { return "Content is required" }

type HashtagsRequest struct {
	Topic    string `json:"topic" validate:"required,max=2000"`
	Platform string `json:"platform,omitempty" validate:"max=100"`
}

func (HashtagsRequest) requiredMessage() string { return "Topic is required" }

// ContentRequest is the body of the sentiment and plagiarism analyses.
type ContentRequest struct {
	Content string `json:"content" validate:"required,max=50000"`
}

func (ContentRequest) requiredMessage() string { return "Content is required" }

type ScoreRequest struct {
	Content      string `json:"content" validate:"required,max=50000"`
	GenerationID string `json:"generationId,omitempty" validate:"omitempty,uuid"`
	BrandVoice   string `json:"brandVoice,omitempty" validate:"max=10000"`
	BrandVoiceID string `json:"brandVoiceId,omitempty" validate:"omitempty,uuid"`
}

func (ScoreRequest) requiredMessage() string { return "Content is required" }

type CompareRequest struct {
	Prompt string   `json:"prompt" validate:"required,max=20000"`
	Models []string `json:"models,omitempty" validate:"max=4,dive,required,max=100"`
}

func (CompareRequest) requiredMessage() string { return "Prompt is required" }

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
