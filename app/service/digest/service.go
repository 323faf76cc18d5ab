package digest

import (
	"context"
	"ecodigest/app/client/llm"
	"ecodigest/app/client/newsapi"
	"ecodigest/app/config"
	"ecodigest/app/util/mylog"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/do"
)

var ErrEmptyInput = errors.New("empty input")

// NewsSearcher returns the headlines published for a keyword.
type NewsSearcher interface {
	Headlines(ctx context.Context, keyword string) ([]newsapi.Article, error)
}

type TurnResult struct {
	Intent Intent `json:"intent"`
	Reply  string `json:"reply"`
}

type Service struct {
	model     string
	assistant Assistant
	news      NewsSearcher
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)
	completer := do.MustInvoke[llm.Completer](di)
	newsClient := do.MustInvoke[*newsapi.Client](di)

	return NewService(cfg.LLM.Model, NewAssistant(completer), newsClient), nil
}

func NewService(model string, assistant Assistant, news NewsSearcher) *Service {
	return &Service{
		model:     model,
		assistant: assistant,
		news:      news,
	}
}

func (s *Service) Model() string {
	return s.model
}

func (s *Service) NewState() *State {
	return NewState(s.model)
}

// Turn runs exactly one action for input and records the user/assistant pair.
// Turns of the same state never overlap.
func (s *Service) Turn(ctx context.Context, state *State, input string) (*TurnResult, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	start := time.Now()

	var result TurnResult

	switch Classify(input) {
	case IntentQuizRequest:
		result = TurnResult{Intent: IntentQuizRequest, Reply: s.quiz(ctx, state)}
	case IntentAnswerEvaluation:
		result = TurnResult{Intent: IntentAnswerEvaluation, Reply: s.evaluate(ctx, state, input)}
	default:
		result = s.topic(ctx, state, input)
	}

	state.appendTurn(input, result.Reply)

	slog.Debug("Turn processed",
		slog.String("intent", result.Intent.String()),
		slog.Int("messages", len(state.messages)),
		slog.Duration("duration", time.Since(start)),
	)

	return &result, nil
}

func (s *Service) quiz(ctx context.Context, state *State) string {
	if state.summaries == "" {
		return ReplyNoSummaries
	}

	questions, err := s.assistant.Converse(ctx, state.model, []llm.Message{
		llm.System(SystemPrompt),
		llm.User(quizPrompt(state.summaries)),
	})
	if err != nil {
		logAssistantFailure("quiz", err)
		return ReplyAssistantUnavailable
	}

	state.questions = questions

	return questions
}

func (s *Service) evaluate(ctx context.Context, state *State, input string) string {
	answers, err := ParseAnswers(input)
	if errors.Is(err, ErrMissingAnswersMarker) {
		return ReplyAnswersFormat
	}
	if len(answers) == 0 {
		return ReplyNoAnswers
	}

	feedback, err := s.assistant.Converse(ctx, state.model, []llm.Message{
		llm.System(evaluationPrompt(state.summaries, state.questions, answers)),
	})
	if err != nil {
		logAssistantFailure("evaluation", err)
		return ReplyAssistantUnavailable
	}

	return feedback
}

func (s *Service) topic(ctx context.Context, state *State, input string) TurnResult {
	relevant, err := s.assistant.Classify(ctx, state.model, input)
	if err != nil {
		logAssistantFailure("relevance", err)
		return TurnResult{Intent: IntentTopicQuery, Reply: ReplyAssistantUnavailable}
	}

	if !relevant {
		return TurnResult{Intent: IntentOffTopic, Reply: offTopicReply(input)}
	}

	state.previousKeyword = input

	articles, err := s.news.Headlines(ctx, input)
	if err != nil {
		slog.Warn("Failed to fetch headlines",
			slog.String("keyword", input),
			slog.Any("error", err),
		)
		articles = nil
	}

	summaries := FormatHeadlines(articles)
	state.summaries = summaries

	return TurnResult{Intent: IntentTopicQuery, Reply: summaries}
}

// FormatHeadlines renders the numbered digest of up to three articles.
func FormatHeadlines(articles []newsapi.Article) string {
	if len(articles) == 0 {
		return ReplyNoNews
	}

	var sb strings.Builder
	for i, article := range articles {
		if i == newsapi.MaxHeadlines {
			break
		}
		fmt.Fprintf(&sb, "%d. %s\n\nSummary: %s\n\nLink: %s\n\n", i+1, article.Title, article.Description, article.URL)
	}

	return sb.String()
}

func logAssistantFailure(action string, err error) {
	slog.Error("Assistant call failed",
		slog.String("action", action),
		slog.Any("error", err),
		slog.Bool(mylog.TelegramKey, true),
	)
}
