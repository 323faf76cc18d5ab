package digest

import (
	"context"
	"ecodigest/app/client/llm"
	"ecodigest/app/client/newsapi"
	"ecodigest/app/config"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

const testModel = "gpt-35-turbo"

type stubAssistant struct {
	relevant    bool
	reply       string
	err         error
	classified  []string
	conversions [][]llm.Message
}

func (s *stubAssistant) Classify(_ context.Context, _ string, text string) (bool, error) {
	s.classified = append(s.classified, text)
	if s.err != nil {
		return false, s.err
	}
	return s.relevant, nil
}

func (s *stubAssistant) Converse(_ context.Context, _ string, messages []llm.Message) (string, error) {
	s.conversions = append(s.conversions, messages)
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

type stubNews struct {
	articles []newsapi.Article
	err      error
	keywords []string
}

func (s *stubNews) Headlines(_ context.Context, keyword string) ([]newsapi.Article, error) {
	s.keywords = append(s.keywords, keyword)
	return s.articles, s.err
}

func sampleArticles() []newsapi.Article {
	return []newsapi.Article{
		{Title: "Glaciers retreat", Description: "Ice loss doubled.", URL: "https://a.example/1"},
		{Title: "Solar boom", Description: "Record installs.", URL: "https://a.example/2"},
	}
}

func TestTurnRejectsEmptyInput(t *testing.T) {
	svc := NewService(testModel, &stubAssistant{}, &stubNews{})
	state := svc.NewState()

	if _, err := svc.Turn(context.Background(), state, "   "); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if got := len(state.Transcript()); got != 0 {
		t.Errorf("expected empty transcript, got %d messages", got)
	}
}

func TestNewStateStartsWithSystemPrompt(t *testing.T) {
	state := NewState(testModel)
	snap := state.Snapshot()

	if len(snap.Messages) != 1 || snap.Messages[0].Role != llm.RoleSystem || snap.Messages[0].Content != InitialPrompt {
		t.Fatalf("unexpected initial messages: %+v", snap.Messages)
	}
	if snap.ModelIdentifier != testModel {
		t.Errorf("unexpected model %q", snap.ModelIdentifier)
	}
	if snap.Summaries != "" || snap.Questions != "" || snap.PreviousKeyword != "" {
		t.Errorf("expected absent fields, got %+v", snap)
	}
}

func TestTopicQueryAccepted(t *testing.T) {
	assistant := &stubAssistant{relevant: true}
	news := &stubNews{articles: sampleArticles()}
	svc := NewService(testModel, assistant, news)
	state := svc.NewState()

	result, err := svc.Turn(context.Background(), state, "Climate Change")
	if err != nil {
		t.Fatalf("Turn failed: %v", err)
	}

	want := "1. Glaciers retreat\n\nSummary: Ice loss doubled.\n\nLink: https://a.example/1\n\n" +
		"2. Solar boom\n\nSummary: Record installs.\n\nLink: https://a.example/2\n\n"

	if result.Intent != IntentTopicQuery {
		t.Errorf("unexpected intent %v", result.Intent)
	}
	if result.Reply != want {
		t.Errorf("unexpected reply:\n%s", result.Reply)
	}

	snap := state.Snapshot()
	if snap.Summaries != want {
		t.Errorf("summaries not stored: %q", snap.Summaries)
	}
	if snap.PreviousKeyword != "Climate Change" {
		t.Errorf("keyword not stored verbatim: %q", snap.PreviousKeyword)
	}
	if len(news.keywords) != 1 || news.keywords[0] != "Climate Change" {
		t.Errorf("unexpected news keywords %q", news.keywords)
	}
	if len(assistant.classified) != 1 {
		t.Errorf("expected one relevance check, got %d", len(assistant.classified))
	}
}

func TestTopicQueryOffTopic(t *testing.T) {
	assistant := &stubAssistant{relevant: false}
	news := &stubNews{articles: sampleArticles()}
	svc := NewService(testModel, assistant, news)
	state := svc.NewState()

	result, err := svc.Turn(context.Background(), state, "football")
	if err != nil {
		t.Fatalf("Turn failed: %v", err)
	}

	if result.Intent != IntentOffTopic {
		t.Errorf("unexpected intent %v", result.Intent)
	}
	want := "Sorry, football is not an environmental topic. Please try again with a relevant environmental keyword."
	if result.Reply != want {
		t.Errorf("unexpected reply %q", result.Reply)
	}
	if len(news.keywords) != 0 {
		t.Error("news must not be searched for off-topic input")
	}

	snap := state.Snapshot()
	if snap.Summaries != "" || snap.PreviousKeyword != "" {
		t.Errorf("state must stay untouched, got %+v", snap)
	}
	if len(snap.Messages) != 3 {
		t.Errorf("expected turn to be recorded, got %d messages", len(snap.Messages))
	}
}

func TestTopicQueryNoNews(t *testing.T) {
	tests := []struct {
		name string
		news *stubNews
	}{
		{"empty result", &stubNews{}},
		{"search failure", &stubNews{err: errors.New("status 500")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(testModel, &stubAssistant{relevant: true}, tt.news)
			state := svc.NewState()

			result, err := svc.Turn(context.Background(), state, "coral reefs")
			if err != nil {
				t.Fatalf("Turn failed: %v", err)
			}
			if result.Reply != ReplyNoNews {
				t.Errorf("unexpected reply %q", result.Reply)
			}
			if got := state.Snapshot().Summaries; got != ReplyNoNews {
				t.Errorf("summaries must hold the no-news reply, got %q", got)
			}
		})
	}
}

func TestQuizWithoutSummaries(t *testing.T) {
	assistant := &stubAssistant{reply: "should not be used"}
	svc := NewService(testModel, assistant, &stubNews{})
	state := svc.NewState()

	result, err := svc.Turn(context.Background(), state, "give me questions")
	if err != nil {
		t.Fatalf("Turn failed: %v", err)
	}

	if result.Intent != IntentQuizRequest || result.Reply != ReplyNoSummaries {
		t.Errorf("unexpected result %+v", result)
	}
	if len(assistant.conversions) != 0 || len(assistant.classified) != 0 {
		t.Error("no assistant call expected")
	}
}

func TestQuizStoresQuestions(t *testing.T) {
	assistant := &stubAssistant{relevant: true, reply: "Question 1: ...\nA: x\nB: y\nC: z"}
	svc := NewService(testModel, assistant, &stubNews{articles: sampleArticles()})
	state := svc.NewState()
	ctx := context.Background()

	if _, err := svc.Turn(ctx, state, "glaciers"); err != nil {
		t.Fatalf("topic turn failed: %v", err)
	}
	summaries := state.Snapshot().Summaries

	result, err := svc.Turn(ctx, state, "Questions please")
	if err != nil {
		t.Fatalf("quiz turn failed: %v", err)
	}
	if result.Reply != assistant.reply {
		t.Errorf("unexpected reply %q", result.Reply)
	}
	if got := state.Snapshot().Questions; got != assistant.reply {
		t.Errorf("questions not stored: %q", got)
	}

	if len(assistant.conversions) != 1 {
		t.Fatalf("expected one completion, got %d", len(assistant.conversions))
	}
	sent := assistant.conversions[0]
	if len(sent) != 2 || sent[0].Role != llm.RoleSystem || sent[0].Content != SystemPrompt {
		t.Fatalf("unexpected quiz messages %+v", sent)
	}
	if sent[1].Role != llm.RoleUser || sent[1].Content != "Generate 3 quiz questions based on the following summaries:\n\n"+summaries {
		t.Errorf("unexpected quiz prompt %q", sent[1].Content)
	}
}

func TestEvaluateAnswers(t *testing.T) {
	assistant := &stubAssistant{reply: "1 correct, 2 wrong"}
	svc := NewService(testModel, assistant, &stubNews{})
	state := svc.NewState()
	state.summaries = "summary block"
	state.questions = "Question 1: ..."

	result, err := svc.Turn(context.Background(), state, "answers: A, Carbon, C")
	if err != nil {
		t.Fatalf("Turn failed: %v", err)
	}

	if result.Intent != IntentAnswerEvaluation || result.Reply != assistant.reply {
		t.Errorf("unexpected result %+v", result)
	}
	if len(assistant.conversions) != 1 {
		t.Fatalf("expected one completion, got %d", len(assistant.conversions))
	}

	sent := assistant.conversions[0]
	if len(sent) != 1 || sent[0].Role != llm.RoleSystem {
		t.Fatalf("expected a single system message, got %+v", sent)
	}
	for _, part := range []string{"summary block", "Question 1: ...", "2. Carbon"} {
		if !strings.Contains(sent[0].Content, part) {
			t.Errorf("evaluation prompt misses %q", part)
		}
	}

	snap := state.Snapshot()
	if snap.Summaries != "summary block" || snap.Questions != "Question 1: ..." {
		t.Errorf("evaluation must not change state, got %+v", snap)
	}
}

func TestEvaluateAnswersAfterMultiByteText(t *testing.T) {
	assistant := &stubAssistant{reply: "all correct"}
	svc := NewService(testModel, assistant, &stubNews{})
	state := svc.NewState()

	result, err := svc.Turn(context.Background(), state, "İİİİ answers: A, B, C")
	if err != nil {
		t.Fatalf("Turn failed: %v", err)
	}
	if result.Reply != assistant.reply {
		t.Fatalf("unexpected reply %q", result.Reply)
	}

	prompt := assistant.conversions[0][0].Content
	if !strings.Contains(prompt, "1. A\n2. B\n3. C\n") {
		t.Errorf("answers misparsed in prompt:\n%s", prompt)
	}
}

func TestEvaluateWithoutAnswers(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"answers: ", ReplyNoAnswers},
		{"please evaluate", ReplyAnswersFormat},
		{"ȺȺȺanswers:", ReplyNoAnswers},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assistant := &stubAssistant{reply: "unused"}
			svc := NewService(testModel, assistant, &stubNews{})
			state := svc.NewState()

			result, err := svc.Turn(context.Background(), state, tt.input)
			if err != nil {
				t.Fatalf("Turn failed: %v", err)
			}
			if result.Reply != tt.want {
				t.Errorf("unexpected reply %q", result.Reply)
			}
			if len(assistant.conversions) != 0 {
				t.Error("no completion expected")
			}
		})
	}
}

func TestAssistantFailureKeepsState(t *testing.T) {
	assistant := &stubAssistant{err: errors.New("timeout")}
	svc := NewService(testModel, assistant, &stubNews{articles: sampleArticles()})
	state := svc.NewState()
	state.summaries = "old summaries"
	state.questions = "old questions"
	state.previousKeyword = "old"

	for _, input := range []string{"wildfires", "questions", "answers: A"} {
		result, err := svc.Turn(context.Background(), state, input)
		if err != nil {
			t.Fatalf("Turn(%q) failed: %v", input, err)
		}
		if result.Reply != ReplyAssistantUnavailable {
			t.Errorf("Turn(%q) reply = %q", input, result.Reply)
		}
	}

	snap := state.Snapshot()
	if snap.Summaries != "old summaries" || snap.Questions != "old questions" || snap.PreviousKeyword != "old" {
		t.Errorf("state changed after failures: %+v", snap)
	}
	if len(snap.Messages) != 7 {
		t.Errorf("expected 3 recorded turns, got %d messages", len(snap.Messages))
	}
}

func TestTranscriptAndReset(t *testing.T) {
	svc := NewService(testModel, &stubAssistant{relevant: true}, &stubNews{articles: sampleArticles()})
	state := svc.NewState()

	if _, err := svc.Turn(context.Background(), state, "recycling"); err != nil {
		t.Fatalf("Turn failed: %v", err)
	}

	transcript := state.Transcript()
	if len(transcript) != 2 || transcript[0].Role != llm.RoleUser || transcript[1].Role != llm.RoleAssistant {
		t.Fatalf("unexpected transcript %+v", transcript)
	}
	if transcript[0].Content != "recycling" {
		t.Errorf("unexpected user message %q", transcript[0].Content)
	}

	state.Reset()

	snap := state.Snapshot()
	if len(snap.Messages) != 1 || snap.Summaries != "" || snap.PreviousKeyword != "" || snap.Questions != "" {
		t.Errorf("reset left state behind: %+v", snap)
	}
	if snap.ModelIdentifier != testModel {
		t.Errorf("reset must keep the model, got %q", snap.ModelIdentifier)
	}
}

func TestFormatHeadlinesTruncates(t *testing.T) {
	articles := make([]newsapi.Article, 5)
	for i := range articles {
		articles[i] = newsapi.Article{Title: "t", Description: "d", URL: "u"}
	}

	out := FormatHeadlines(articles)
	if strings.Count(out, "Summary:") != newsapi.MaxHeadlines {
		t.Errorf("expected %d entries, got:\n%s", newsapi.MaxHeadlines, out)
	}
	if !strings.HasPrefix(out, "1. t\n\nSummary: d\n\nLink: u\n\n") {
		t.Errorf("unexpected format:\n%s", out)
	}
}

type slowAssistant struct {
	mu      sync.Mutex
	active  int
	maxSeen int
}

func (s *slowAssistant) Classify(context.Context, string, string) (bool, error) {
	s.mu.Lock()
	s.active++
	if s.active > s.maxSeen {
		s.maxSeen = s.active
	}
	s.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	s.mu.Lock()
	s.active--
	s.mu.Unlock()

	return true, nil
}

func (s *slowAssistant) Converse(context.Context, string, []llm.Message) (string, error) {
	return "", nil
}

func TestConcurrentTurnsAreSerialized(t *testing.T) {
	assistant := &slowAssistant{}
	svc := NewService(testModel, assistant, &stubNews{articles: sampleArticles()})
	state := svc.NewState()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Turn(context.Background(), state, "ocean")
		}()
	}
	wg.Wait()

	if assistant.maxSeen != 1 {
		t.Errorf("turns overlapped: %d concurrent calls", assistant.maxSeen)
	}
	if got := len(state.Transcript()); got != 20 {
		t.Errorf("expected 20 transcript messages, got %d", got)
	}
}

func TestTopicQuerySkipsRemovedArticles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "carbon capture" {
			t.Errorf("unexpected keyword %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","totalResults":3,"articles":[
			{"source":{"id":null,"name":"Reuters"},"title":"Carbon capture plant opens","description":"First of its kind.","url":"https://news.example/1"},
			{"source":{"id":null,"name":"[Removed]"},"title":"[Removed]","description":"[Removed]","url":"https://removed.com"},
			{"source":{"id":null,"name":"BBC"},"title":"Direct air capture costs fall","description":"Prices halve.","url":"https://news.example/2"}
		]}`))
	}))
	defer srv.Close()

	news := newsapi.New(config.News{
		APIKey:   "test-key",
		BaseURL:  srv.URL,
		PageSize: 10,
		Timeout:  5 * time.Second,
	})
	svc := NewService(testModel, &stubAssistant{relevant: true}, news)
	state := svc.NewState()

	result, err := svc.Turn(context.Background(), state, "carbon capture")
	if err != nil {
		t.Fatalf("Turn failed: %v", err)
	}

	want := "1. Carbon capture plant opens\n\nSummary: First of its kind.\n\nLink: https://news.example/1\n\n" +
		"2. Direct air capture costs fall\n\nSummary: Prices halve.\n\nLink: https://news.example/2\n\n"
	if result.Reply != want {
		t.Errorf("unexpected reply:\n%s", result.Reply)
	}
	if strings.Contains(result.Reply, newsapi.RemovedMarker) || strings.Contains(result.Reply, "3. ") {
		t.Errorf("removed article leaked into reply:\n%s", result.Reply)
	}
}
