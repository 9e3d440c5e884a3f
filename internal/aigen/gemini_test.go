package aigen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"misicuan-admin/internal/logging"
	"misicuan-admin/internal/mission"
)

type fakeModels struct {
	replies []string
	err     error
	prompts []string
}

func (f *fakeModels) GenerateContent(_ context.Context, _ string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.prompts = append(f.prompts, contents[0].Parts[0].Text)
	reply := "[]"
	if len(f.prompts) <= len(f.replies) {
		reply = f.replies[len(f.prompts)-1]
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(reply, genai.RoleModel)}},
	}, nil
}

type memTasks struct {
	missionID string
	texts     []string
}

func (m *memTasks) InsertMissionTasks(_ context.Context, missionID string, contents []string) (int, error) {
	m.missionID = missionID
	m.texts = append(m.texts, contents...)
	return len(contents), nil
}

func TestGeminiStoresDistinctTexts(t *testing.T) {
	models := &fakeModels{replies: []string{
		"```json\n[\"Mantap kak\", \"mantap kak\", \"Keren banget\"]\n```",
		`["Keren banget", "Auto follow"]`,
	}}
	store := &memTasks{}
	g := newGeminiGenerator(models, "", store, logging.Discard())

	res, err := g.GenerateComments(context.Background(), Request{
		MissionID: "m1", Context: "konten masak", Tone: "Gaul", Quantity: 3, Platform: mission.PlatformTikTok,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Count)
	assert.Equal(t, "m1", store.missionID)
	assert.Equal(t, []string{"Mantap kak", "Keren banget", "Auto follow"}, store.texts)
	require.Len(t, models.prompts, 2)
	assert.Contains(t, models.prompts[1], "Jangan ulangi")
}

func TestGeminiBatchesLargeRequests(t *testing.T) {
	var replies []string
	for r := 0; r < 3; r++ {
		items := make([]string, 0, geminiBatchSize)
		for i := 0; i < geminiBatchSize; i++ {
			items = append(items, fmt.Sprintf(`"teks %d-%d"`, r, i))
		}
		replies = append(replies, "["+strings.Join(items, ",")+"]")
	}
	models := &fakeModels{replies: replies}
	store := &memTasks{}
	g := newGeminiGenerator(models, "gemini-test", store, logging.Discard())

	res, err := g.GenerateComments(context.Background(), Request{MissionID: "m1", Context: "x", Tone: "Sopan", Quantity: 120})
	require.NoError(t, err)
	assert.Equal(t, 120, res.Count)
	assert.Len(t, models.prompts, 3)
	assert.Contains(t, models.prompts[2], "Tulis 20 komentar")
}

func TestGeminiShopPromptAsksForTestimonials(t *testing.T) {
	p := buildPrompt(Request{Context: "sepatu", Tone: "Sopan", Platform: mission.PlatformShopee}, 5, nil)
	assert.Contains(t, p, "testimoni")
	p = buildPrompt(Request{Context: "vlog", Tone: "Santai", Platform: mission.PlatformYouTube}, 5, nil)
	assert.NotContains(t, p, "testimoni")
}

func TestGeminiFailureStoresNothing(t *testing.T) {
	store := &memTasks{}
	g := newGeminiGenerator(&fakeModels{err: errors.New("quota exceeded")}, "", store, logging.Discard())
	_, err := g.GenerateComments(context.Background(), Request{MissionID: "m1", Context: "x", Quantity: 2})
	require.Error(t, err)
	assert.Empty(t, store.texts)
}

func TestParseTexts(t *testing.T) {
	got, err := parseTexts("Berikut hasilnya: [\"a\", \" \", \"b\"]")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	_, err = parseTexts("no array here")
	assert.Error(t, err)
}
