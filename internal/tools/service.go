package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/kukiwrite/kukiwrite/internal/ai"
	"github.com/kukiwrite/kukiwrite/internal/generations"
	"github.com/kukiwrite/kukiwrite/internal/governance/audit"
	"github.com/kukiwrite/kukiwrite/internal/governance/quota"
	"github.com/kukiwrite/kukiwrite/internal/metrics"
	inats "github.com/kukiwrite/kukiwrite/internal/nats"
)

// Generator produces model output for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts ai.Options) (*ai.Response, error)
}

// MultiGenerator answers one prompt with several models. ai.Dispatcher
// satisfies it.
type MultiGenerator interface {
	GenerateMulti(ctx context.Context, prompt string, models []string) []ai.MultiResult
}

// Gate reserves quota for a call and tracks the plan's rate window.
type Gate interface {
	Reserve(ctx context.Context, userID uuid.UUID, insert quota.InsertFunc) (quota.Decision, error)
	RecordCall(ctx context.Context, userID uuid.UUID, plan quota.Plan)
}

// Recorder persists generation rows.
type Recorder interface {
	InsertPending(ctx context.Context, tx pgx.Tx, g *generations.Generation) error
	Complete(ctx context.Context, id uuid.UUID, output, model string, tokensUsed int) error
	Release(ctx context.Context, id uuid.UUID) error
	SetScore(ctx context.Context, userID, id uuid.UUID, score int) error
}

// VoiceLookup resolves a brand voice's guidelines for its owner.
// found is false when the voice does not exist or belongs to someone else.
type VoiceLookup interface {
	Guidelines(ctx context.Context, userID, voiceID uuid.UUID) (guidelines string, found bool, err error)
}

// DeniedError reports a call refused by the monthly quota.
type DeniedError struct {
	Decision quota.Decision
}

func (e *DeniedError) Error() string { return "Usage limit exceeded" }

func (e *DeniedError) Unwrap() error { return quota.ErrQuotaExceeded }

// GenerationError wraps a failed provider call. Its message is safe to show users.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return e.Err.Error() }

func (e *GenerationError) Unwrap() error { return e.Err }

// Outcome is the result of a gated tool call.
type Outcome struct {
	GenerationID uuid.UUID
	Output       string
	Model        string
	Remaining    int
	Limit        int
	Extra        map[string]any
}

// produced is what a tool's body hands back to the pipeline.
type produced struct {
	stored string
	model  string
	tokens int
	extra  map[string]any
}

type Service struct {
	gen    Generator
	gate   Gate
	rec    Recorder
	voices VoiceLookup
	audit  *audit.Recorder
}

func NewService(gen Generator, gate Gate, rec Recorder, voices VoiceLookup, auditor *audit.Recorder) *Service {
	return &Service{
		gen:    gen,
		gate:   gate,
		rec:    rec,
		voices: voices,
		audit:  auditor,
	}
}

// run is the gated pipeline: reserve a generation slot, produce output, then
// complete the reserved row or release it on failure.
func (s *Service) run(ctx context.Context, userID uuid.UUID, typ generations.Type, input any, model string, produce func(context.Context) (*produced, error)) (*Outcome, error) {
	inputJSON, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s input: %w", typ, err)
	}

	g := &generations.Generation{
		UserID: userID,
		Type:   typ,
		Input:  string(inputJSON),
		Model:  model,
	}

	decision, err := s.gate.Reserve(ctx, userID, func(ctx context.Context, tx pgx.Tx) error {
		return s.rec.InsertPending(ctx, tx, g)
	})
	if err != nil {
		if errors.Is(err, quota.ErrQuotaExceeded) {
			metrics.QuotaDenialsTotal.WithLabelValues(string(decision.Plan)).Inc()
			s.audit.Record(ctx, inats.AuditEvent{
				OwnerUserID:  userID,
				EventType:    audit.EventQuotaExceeded,
				Severity:     audit.SeverityWarn,
				ResourceType: "generation",
				Details:      fmt.Sprintf("%s denied: %d/%d on %s plan", typ, decision.Limit-decision.Remaining, decision.Limit, decision.Plan),
			})
			return nil, &DeniedError{Decision: decision}
		}
		return nil, err
	}

	p, err := produce(ctx)
	if err != nil {
		metrics.GenerationsTotal.WithLabelValues(string(typ), "failed").Inc()
		if relErr := s.rec.Release(context.WithoutCancel(ctx), g.ID); relErr != nil {
			slog.Error("releasing generation reservation", "error", relErr, "generation_id", g.ID)
		}
		s.audit.Record(ctx, inats.AuditEvent{
			OwnerUserID:  userID,
			EventType:    audit.EventGenerationFailed,
			Severity:     audit.SeverityError,
			ResourceType: "generation",
			Details:      fmt.Sprintf("%s: %v", typ, err),
		})
		return nil, &GenerationError{Err: err}
	}

	if err := s.rec.Complete(context.WithoutCancel(ctx), g.ID, p.stored, p.model, p.tokens); err != nil {
		// The provider call was billed; keep the reservation counted and still answer.
		slog.Error("completing generation", "error", err, "generation_id", g.ID, "type", typ)
		s.audit.Record(ctx, inats.AuditEvent{
			OwnerUserID:  userID,
			EventType:    audit.EventGenerationRecordFailed,
			Severity:     audit.SeverityError,
			ResourceType: "generation",
			ResourceID:   g.ID.String(),
			Details:      err.Error(),
		})
	} else {
		s.audit.Record(ctx, inats.AuditEvent{
			OwnerUserID:  userID,
			EventType:    audit.EventGenerationCompleted,
			ResourceType: "generation",
			ResourceID:   g.ID.String(),
			Details:      fmt.Sprintf("%s via %s, %d tokens", typ, p.model, p.tokens),
		})
	}

	metrics.GenerationsTotal.WithLabelValues(string(typ), "completed").Inc()
	s.gate.RecordCall(ctx, userID, decision.Plan)

	return &Outcome{
		GenerationID: g.ID,
		Output:       p.stored,
		Model:        p.model,
		Remaining:    decision.Remaining - 1,
		Limit:        decision.Limit,
		Extra:        p.extra,
	}, nil
}

// text runs a plain prompt-in, text-out tool.
func (s *Service) text(ctx context.Context, userID uuid.UUID, typ generations.Type, input any, prompt string, opts ai.Options) (*Outcome, error) {
	return s.run(ctx, userID, typ, input, opts.Model.Name, func(ctx context.Context) (*produced, error) {
		resp, err := s.gen.Generate(ctx, prompt, opts)
		if err != nil {
			return nil, err
		}
		return &produced{stored: resp.Content, model: resp.Model, tokens: resp.TokensUsed}, nil
	})
}

func (s *Service) Blog(ctx context.Context, userID uuid.UUID, req BlogRequest) (*Outcome, error) {
	opts := ai.DefaultOptions()
	opts.Model = ai.ParseModel(req.Model)
	return s.text(ctx, userID, generations.TypeBlog, req, blogPrompt(req), opts)
}

func (s *Service) YouTube(ctx context.Context, userID uuid.UUID, req YouTubeRequest) (*Outcome, error) {
	return s.text(ctx, userID, generations.TypeYouTube, req, youtubePrompt(req), ai.DefaultOptions())
}

func (s *Service) SEO(ctx context.Context, userID uuid.UUID, req SEORequest) (*Outcome, error) {
	return s.text(ctx, userID, generations.TypeSEO, req, seoPrompt(req), ai.DefaultOptions())
}

func (s *Service) Rewrite(ctx context.Context, userID uuid.UUID, req RewriterRequest) (*Outcome, error) {
	return s.text(ctx, userID, generations.TypeRewriter, req, rewriterPrompt(req), ai.DefaultOptions())
}

func (s *Service) Instagram(ctx context.Context, userID uuid.UUID, req InstagramRequest) (*Outcome, error) {
	return s.text(ctx, userID, generations.TypeInstagram, req, instagramPrompt(req), ai.DefaultOptions())
}

func (s *Service) Brief(ctx context.Context, userID uuid.UUID, req BriefRequest) (*Outcome, error) {
	opts := ai.DefaultOptions()
	opts.MaxTokens = 3000
	return s.text(ctx, userID, generations.TypeBrief, req, briefPrompt(req), opts)
}

// Hashtags keeps only the lines of the model output that start with '#'.
func (s *Service) Hashtags(ctx context.Context, userID uuid.UUID, req HashtagsRequest) (*Outcome, error) {
	opts := ai.DefaultOptions()
	return s.run(ctx, userID, generations.TypeHashtags, req, opts.Model.Name, func(ctx context.Context) (*produced, error) {
		resp, err := s.gen.Generate(ctx, hashtagsPrompt(req), opts)
		if err != nil {
			return nil, err
		}
		tags := filterHashtags(resp.Content)
		return &produced{
			stored: tags,
			model:  resp.Model,
			tokens: resp.TokensUsed,
			extra:  map[string]any{"hashtags": tags},
		}, nil
	})
}

func filterHashtags(output string) string {
	var kept []string
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// GrammarIssue is one problem reported by the grammar check.
type GrammarIssue struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
	Position   struct {
		Start int `json:"start"`
		End   int `json:"end"`
	} `json:"position"`
	Severity string `json:"severity"`
}

type grammarResult struct {
	CorrectedContent string         `json:"correctedContent"`
	Issues           []GrammarIssue `json:"issues"`
}

var jsonObjectPattern = regexp.MustCompile(`\{[\s\S]*\}`)

// extractJSON decodes the outermost {...} span of a model reply into v.
func extractJSON(output string, v any) bool {
	match := jsonObjectPattern.FindString(output)
	if match == "" {
		return false
	}
	return json.Unmarshal([]byte(match), v) == nil
}

func parseGrammar(output, original string) grammarResult {
	var res grammarResult
	if !extractJSON(output, &res) {
		res = grammarResult{CorrectedContent: output}
	}
	if res.CorrectedContent == "" {
		res.CorrectedContent = original
	}
	if res.Issues == nil {
		res.Issues = []GrammarIssue{}
	}
	return res
}

func (s *Service) GrammarCheck(ctx context.Context, userID uuid.UUID, req GrammarRequest) (*Outcome, error) {
	opts := ai.DefaultOptions()
	return s.run(ctx, userID, generations.TypeGrammarCheck, req, opts.Model.Name, func(ctx context.Context) (*produced, error) {
		resp, err := s.gen.Generate(ctx, grammarPrompt(req.Content), opts)
		if err != nil {
			return nil, err
		}
		res := parseGrammar(resp.Content, req.Content)
		return &produced{
			stored: res.CorrectedContent,
			model:  resp.Model,
			tokens: resp.TokensUsed,
			extra: map[string]any{
				"correctedContent": res.CorrectedContent,
				"issues":           res.Issues,
			},
		}, nil
	})
}

func translateOptions() ai.Options {
	opts := ai.DefaultOptions()
	opts.Temperature = 0.3
	opts.MaxTokens = 4000
	return opts
}

// maxTranslations caps concurrent provider calls for one multi-language request.
const maxTranslations = 5

// Translate translates into one language, or into several in parallel when
// MultipleLanguages is present, even as an empty list. Languages that fail are
// left out of the result.
func (s *Service) Translate(ctx context.Context, userID uuid.UUID, req TranslateRequest) (*Outcome, error) {
	source := orDefault(req.SourceLanguage, "en")
	opts := translateOptions()

	if req.MultipleLanguages == nil {
		target := orDefault(req.TargetLanguage, "es")
		return s.run(ctx, userID, generations.TypeTranslation, req, opts.Model.Name, func(ctx context.Context) (*produced, error) {
			resp, err := s.gen.Generate(ctx, translatePrompt(req.Content, source, target, req.Options), opts)
			if err != nil {
				return nil, err
			}
			out := strings.TrimSpace(resp.Content)
			return &produced{
				stored: out,
				model:  resp.Model,
				tokens: resp.TokensUsed,
				extra:  map[string]any{"translation": out},
			}, nil
		})
	}

	return s.run(ctx, userID, generations.TypeTranslation, req, opts.Model.Name, func(ctx context.Context) (*produced, error) {
		var (
			mu           sync.Mutex
			g            errgroup.Group
			translations = make(map[string]string, len(req.MultipleLanguages))
			tokens       int
			model        = opts.Model.Name
		)
		g.SetLimit(maxTranslations)
		for _, lang := range req.MultipleLanguages {
			g.Go(func() error {
				resp, err := s.gen.Generate(ctx, translatePrompt(req.Content, source, lang, req.Options), opts)
				if err != nil {
					slog.Warn("translation failed", "language", lang, "error", err)
					return nil
				}
				out := strings.TrimSpace(resp.Content)
				mu.Lock()
				defer mu.Unlock()
				tokens += resp.TokensUsed
				model = resp.Model
				if out != "" {
					translations[lang] = out
				}
				return nil
			})
		}
		_ = g.Wait()

		stored, err := json.Marshal(translations)
		if err != nil {
			return nil, fmt.Errorf("marshaling translations: %w", err)
		}
		return &produced{
			stored: string(stored),
			model:  model,
			tokens: tokens,
			extra:  map[string]any{"translation": translations},
		}, nil
	})
}

// ErrCompareUnavailable is returned by Compare when the generator cannot fan out.
var ErrCompareUnavailable = errors.New("model comparison is not available")

// Compare answers one prompt with several models as a single gated call. The
// call fails, and its reservation is released, only when every model fails.
func (s *Service) Compare(ctx context.Context, userID uuid.UUID, req CompareRequest) (*Outcome, error) {
	multi, ok := s.gen.(MultiGenerator)
	if !ok {
		return nil, ErrCompareUnavailable
	}
	models := req.Models
	if len(models) == 0 {
		models = ai.DefaultMultiModels
	}
	// generations.model holds at most 100 characters.
	label := strings.Join(models, ",")
	if len(label) > 100 {
		label = label[:100]
	}

	return s.run(ctx, userID, generations.TypeComparison, req, label, func(ctx context.Context) (*produced, error) {
		results := multi.GenerateMulti(ctx, req.Prompt, models)
		tokens, failed := 0, 0
		for _, r := range results {
			tokens += r.TokensUsed
			if r.Error {
				failed++
			}
		}
		if failed == len(results) {
			return nil, fmt.Errorf("AI generation failed: all %d models failed", failed)
		}

		stored, err := json.Marshal(results)
		if err != nil {
			return nil, fmt.Errorf("marshaling comparison: %w", err)
		}
		return &produced{
			stored: string(stored),
			model:  label,
			tokens: tokens,
			extra:  map[string]any{"results": results},
		}, nil
	})
}
