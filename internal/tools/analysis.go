package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/kukiwrite/kukiwrite/internal/ai"
)

// ErrVoiceNotFound is returned when a score request names a brand voice the user does not own.
var ErrVoiceNotFound = errors.New("brand voice not found")

func analysisOptions(temperature float32, maxTokens int) ai.Options {
	opts := ai.DefaultOptions()
	opts.Temperature = temperature
	opts.MaxTokens = maxTokens
	return opts
}

type ToneScore struct {
	Tone       string  `json:"tone"`
	Confidence float64 `json:"confidence"`
}

type ToneAnalysis struct {
	Tone             string      `json:"tone"`
	Confidence       float64     `json:"confidence"`
	AlternativeTones []ToneScore `json:"alternativeTones"`
}

type SentimentAnalysis struct {
	Sentiment  string  `json:"sentiment"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// ContentAnalysis is the result of the tone and sentiment analysis.
type ContentAnalysis struct {
	Tone             ToneAnalysis      `json:"tone"`
	Sentiment        SentimentAnalysis `json:"sentiment"`
	EmotionalMarkers []string          `json:"emotionalMarkers"`
	Suggestions      []string          `json:"suggestions"`
}

func neutralAnalysis() *ContentAnalysis {
	return &ContentAnalysis{
		Tone:             ToneAnalysis{Tone: "neutral", AlternativeTones: []ToneScore{}},
		Sentiment:        SentimentAnalysis{Sentiment: "neutral"},
		EmotionalMarkers: []string{},
		Suggestions:      []string{},
	}
}

func parseSentiment(output string) *ContentAnalysis {
	a := neutralAnalysis()
	if !extractJSON(output, a) {
		return neutralAnalysis()
	}
	if a.Tone.Tone == "" {
		a.Tone.Tone = "neutral"
	}
	if a.Sentiment.Sentiment == "" {
		a.Sentiment.Sentiment = "neutral"
	}
	if a.Tone.AlternativeTones == nil {
		a.Tone.AlternativeTones = []ToneScore{}
	}
	if a.EmotionalMarkers == nil {
		a.EmotionalMarkers = []string{}
	}
	if a.Suggestions == nil {
		a.Suggestions = []string{}
	}
	return a
}

// Sentiment analyzes tone and sentiment. Provider failures degrade to a neutral result.
func (s *Service) Sentiment(ctx context.Context, req ContentRequest) *ContentAnalysis {
	resp, err := s.gen.Generate(ctx, sentimentPrompt(req.Content), analysisOptions(0.3, 1000))
	if err != nil {
		slog.Warn("sentiment analysis failed", "error", err)
		return neutralAnalysis()
	}
	return parseSentiment(resp.Content)
}

// ContentScore is the result of content scoring. BrandAlignment is set only
// when brand voice guidelines were supplied.
type ContentScore struct {
	Overall        int      `json:"overall"`
	Readability    int      `json:"readability"`
	SEO            int      `json:"seo"`
	Engagement     int      `json:"engagement"`
	Originality    int      `json:"originality"`
	BrandAlignment *int     `json:"brandAlignment,omitempty"`
	Suggestions    []string `json:"suggestions"`
}

func fallbackScore() *ContentScore {
	return &ContentScore{
		Overall:     75,
		Readability: 80,
		SEO:         70,
		Engagement:  75,
		Originality: 80,
		Suggestions: []string{"Unable to analyze content. Please try again."},
	}
}

type rawScore struct {
	Readability    float64  `json:"readability"`
	SEO            float64  `json:"seo"`
	Engagement     float64  `json:"engagement"`
	Originality    float64  `json:"originality"`
	BrandAlignment *float64 `json:"brandAlignment"`
	Suggestions    []string `json:"suggestions"`
}

func parseScore(output string, withBrand bool) *ContentScore {
	var raw rawScore
	if !extractJSON(output, &raw) {
		return fallbackScore()
	}

	sum := raw.Readability + raw.SEO + raw.Engagement + raw.Originality
	divisor := 4.0
	if withBrand {
		divisor = 5
	}

	score := &ContentScore{
		Readability: int(math.Round(raw.Readability)),
		SEO:         int(math.Round(raw.SEO)),
		Engagement:  int(math.Round(raw.Engagement)),
		Originality: int(math.Round(raw.Originality)),
		Suggestions: raw.Suggestions,
	}
	if raw.BrandAlignment != nil {
		sum += *raw.BrandAlignment
		v := int(math.Round(*raw.BrandAlignment))
		score.BrandAlignment = &v
	}
	score.Overall = int(math.Round(sum / divisor))
	if score.Suggestions == nil {
		score.Suggestions = []string{}
	}
	return score
}

// Score rates content. A brand voice may be given inline or by id; the id wins.
// When GenerationID is set, the overall score is stored on that generation.
func (s *Service) Score(ctx context.Context, userID uuid.UUID, req ScoreRequest) (*ContentScore, error) {
	brandVoice := req.BrandVoice
	if req.BrandVoiceID != "" && s.voices != nil {
		voiceID, err := uuid.Parse(req.BrandVoiceID)
		if err != nil {
			return nil, ErrVoiceNotFound
		}
		guidelines, found, err := s.voices.Guidelines(ctx, userID, voiceID)
		if err != nil {
			return nil, fmt.Errorf("loading brand voice: %w", err)
		}
		if !found {
			return nil, ErrVoiceNotFound
		}
		brandVoice = guidelines
	}

	var score *ContentScore
	resp, err := s.gen.Generate(ctx, scorePrompt(req.Content, brandVoice), analysisOptions(0.3, 1000))
	if err != nil {
		slog.Warn("content scoring failed", "error", err)
		score = fallbackScore()
	} else {
		score = parseScore(resp.Content, brandVoice != "")
	}

	if req.GenerationID != "" {
		genID, err := uuid.Parse(req.GenerationID)
		if err != nil {
			return nil, fmt.Errorf("parsing generation id: %w", err)
		}
		if err := s.rec.SetScore(ctx, userID, genID, score.Overall); err != nil {
			return nil, err
		}
	}
	return score, nil
}

type FlaggedSection struct {
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity"`
	Reason     string  `json:"reason,omitempty"`
}

// PlagiarismResult is the outcome of an originality check.
type PlagiarismResult struct {
	Similarity      float64          `json:"similarity"`
	IsOriginal      bool             `json:"isOriginal"`
	FlaggedSections []FlaggedSection `json:"flaggedSections"`
	Sources         []string         `json:"sources,omitempty"`
}

const originalityThreshold = 30

func parsePlagiarism(output string) *PlagiarismResult {
	var res PlagiarismResult
	if !extractJSON(output, &res) {
		return &PlagiarismResult{IsOriginal: true, FlaggedSections: []FlaggedSection{}}
	}
	res.IsOriginal = res.Similarity < originalityThreshold
	if res.FlaggedSections == nil {
		res.FlaggedSections = []FlaggedSection{}
	}
	return &res
}

// Plagiarism checks the first part of the content for unoriginal passages.
func (s *Service) Plagiarism(ctx context.Context, req ContentRequest) *PlagiarismResult {
	resp, err := s.gen.Generate(ctx, plagiarismPrompt(req.Content), analysisOptions(0.2, 1500))
	if err != nil {
		slog.Warn("plagiarism check failed", "error", err)
		return &PlagiarismResult{IsOriginal: true, FlaggedSections: []FlaggedSection{}}
	}
	return parsePlagiarism(resp.Content)
}
