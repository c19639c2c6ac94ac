package factory

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mikey/reply-assistant/internal/adapters/cli"
	"github.com/mikey/reply-assistant/internal/adapters/paramstore"
	"github.com/mikey/reply-assistant/internal/adapters/web"
	"github.com/mikey/reply-assistant/internal/config"
	"github.com/mikey/reply-assistant/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const datasetCSV = `id,sender,subject,body,timestamp
1,jane@example.com,Refund,The blender arrived broken and I want a refund,2024-05-01 10:00:00
2,ceo@bigcorp.com,Hello,Just checking in,2024-05-01 11:00:00
`

func testConfig(t *testing.T, values map[string]interface{}) *config.Config {
	t.Helper()
	v := config.NewEmptyViper()
	for key, value := range values {
		v.Set(key, value)
	}
	return config.NewFromViper(v)
}

func writeDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "emails.csv")
	require.NoError(t, os.WriteFile(path, []byte(datasetCSV), 0644))
	return path
}

type fakeGetter struct {
	value string
	err   error
	names []string
}

func (g *fakeGetter) GetParameter(ctx context.Context, name string) (string, error) {
	g.names = append(g.names, name)
	return g.value, g.err
}

func TestCreateSource(t *testing.T) {
	cfg := testConfig(t, map[string]interface{}{"dataset.path": writeDataset(t)})

	src, err := NewSourceFactory(cfg, zap.NewNop()).CreateSource()
	require.NoError(t, err)

	records, err := src.ListEmails(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestCreateSourceErrors(t *testing.T) {
	cfg := testConfig(t, map[string]interface{}{"dataset.path": filepath.Join(t.TempDir(), "missing.csv")})
	_, err := NewSourceFactory(cfg, zap.NewNop()).CreateSource()
	assert.ErrorIs(t, err, core.ErrDataUnavailable)

	cfg = testConfig(t, map[string]interface{}{"dataset.type": "imap"})
	_, err = NewSourceFactory(cfg, zap.NewNop()).CreateSource()
	assert.EqualError(t, err, "unsupported dataset type: imap")
}

func TestCreateGeneratorDisabled(t *testing.T) {
	gen, err := NewGeneratorFactory(testConfig(t, nil), zap.NewNop()).CreateGenerator()
	require.NoError(t, err)
	assert.Nil(t, gen)
}

func TestCreateGeneratorOpenAI(t *testing.T) {
	cfg := testConfig(t, map[string]interface{}{
		"generator.enabled": true,
		"openai.api_key":    "sk-test",
	})

	gen, err := NewGeneratorFactory(cfg, zap.NewNop()).CreateGenerator()
	require.NoError(t, err)
	require.NotNil(t, gen)
	assert.Equal(t, "gpt-4o-mini", gen.ModelName())
}

func TestCreateGeneratorResolvesParameter(t *testing.T) {
	cfg := testConfig(t, map[string]interface{}{
		"generator.enabled":        true,
		"openai.api_key_parameter": "/reply-assistant/openai-key",
	})
	getter := &fakeGetter{value: "sk-from-ssm"}

	f := NewGeneratorFactory(cfg, zap.NewNop())
	f.newParameterGetter = func(ctx context.Context) (paramstore.Getter, error) { return getter, nil }

	gen, err := f.CreateGenerator()
	require.NoError(t, err)
	assert.NotNil(t, gen)
	assert.Equal(t, []string{"/reply-assistant/openai-key"}, getter.names)
}

func TestCreateGeneratorParameterFailure(t *testing.T) {
	cfg := testConfig(t, map[string]interface{}{
		"generator.enabled":        true,
		"generator.provider":       "gemini",
		"gemini.api_key_parameter": "/reply-assistant/gemini-key",
	})
	getter := &fakeGetter{err: errors.New("access denied")}

	f := NewGeneratorFactory(cfg, zap.NewNop())
	f.newParameterGetter = func(ctx context.Context) (paramstore.Getter, error) { return getter, nil }

	gen, err := f.CreateGenerator()
	require.NoError(t, err)
	assert.Nil(t, gen, "falls back to templates")
	assert.Equal(t, []string{"/reply-assistant/gemini-key"}, getter.names)
}

func TestCreateGeneratorMissingKeyFallsBack(t *testing.T) {
	for _, provider := range []string{"openai", "gemini"} {
		cfg := testConfig(t, map[string]interface{}{
			"generator.enabled":  true,
			"generator.provider": provider,
		})

		gen, err := NewGeneratorFactory(cfg, zap.NewNop()).CreateGenerator()
		require.NoError(t, err, provider)
		assert.Nil(t, gen, provider)
	}
}

func TestCreateGeneratorUnsupported(t *testing.T) {
	cfg := testConfig(t, map[string]interface{}{
		"generator.enabled":  true,
		"generator.provider": "llama",
	})

	_, err := NewGeneratorFactory(cfg, zap.NewNop()).CreateGenerator()
	assert.EqualError(t, err, "unsupported generator provider: llama")
}

func TestCreateStore(t *testing.T) {
	f := NewStoreFactory(testConfig(t, nil), zap.NewNop())
	s, err := f.CreateStore()
	require.NoError(t, err)
	assert.Nil(t, s, "store is disabled by default")

	cfg := testConfig(t, map[string]interface{}{
		"store.enabled":     true,
		"store.type":        "sqlite",
		"store.sqlite_path": filepath.Join(t.TempDir(), "nested", "replies.db"),
	})
	s, err = NewStoreFactory(cfg, zap.NewNop()).CreateStore()
	require.NoError(t, err)
	require.NotNil(t, s)
	defer s.(interface{ Stop() }).Stop()

	_, err = s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)

	cfg = testConfig(t, map[string]interface{}{"store.enabled": true, "store.type": "redis"})
	_, err = NewStoreFactory(cfg, zap.NewNop()).CreateStore()
	assert.EqualError(t, err, "unsupported store type: redis")
}

func TestPipelineEndToEnd(t *testing.T) {
	var out bytes.Buffer
	logger := zap.NewNop()
	cfg := testConfig(t, map[string]interface{}{
		"dataset.path":         writeDataset(t),
		"priority.vip_domains": []string{"bigcorp.com"},
		"store.enabled":        true,
		"server.frontend":      "cli",
		"server.json_output":   true,
	})

	src, err := NewSourceFactory(cfg, logger).CreateSource()
	require.NoError(t, err)
	replyStore, err := NewStoreFactory(cfg, logger).CreateStore()
	require.NoError(t, err)
	defer replyStore.(interface{ Stop() }).Stop()

	pf := NewPipelineFactory(cfg, logger)
	tp := pf.CreateTextProcessor()
	classifier, err := pf.CreateClassifier()
	require.NoError(t, err)
	prompts, err := pf.CreatePromptBuilder(tp, pf.CreateKnowledgeBase(tp))
	require.NoError(t, err)
	suggester, err := pf.CreateSuggester(nil, prompts)
	require.NoError(t, err)
	service, err := pf.CreateService(src, classifier, suggester, replyStore, pf.CreatePriorityChecker())
	require.NoError(t, err)

	frontend, err := NewFrontendFactory(cfg, logger, service, &out).CreateFrontend()
	require.NoError(t, err)
	assert.IsType(t, &cli.Printer{}, frontend)
	require.NoError(t, frontend.Start())
	assert.Contains(t, out.String(), `"intent_label": "complaint"`)

	vipEmail, err := service.Process(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, core.PriorityUrgent, vipEmail.Classification.Priority)

	stored, err := replyStore.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "complaint", stored.IntentLabel)
	assert.Contains(t, stored.ReplyText, "Hi jane")
}

func TestCreateKnowledgeBaseMissingDirIsDisabled(t *testing.T) {
	cfg := testConfig(t, map[string]interface{}{"knowledge.path": filepath.Join(t.TempDir(), "nope")})
	pf := NewPipelineFactory(cfg, zap.NewNop())

	assert.Nil(t, pf.CreateKnowledgeBase(pf.CreateTextProcessor()))
}

func TestCreateFrontend(t *testing.T) {
	cfg := testConfig(t, nil)
	frontend, err := NewFrontendFactory(cfg, zap.NewNop(), nil, nil).CreateFrontend()
	require.NoError(t, err)
	assert.IsType(t, &web.Server{}, frontend)

	cfg = testConfig(t, map[string]interface{}{"server.frontend": "cli", "cli.timeout": "soon"})
	_, err = NewFrontendFactory(cfg, zap.NewNop(), nil, nil).CreateFrontend()
	assert.Error(t, err)

	cfg = testConfig(t, map[string]interface{}{"server.frontend": "milter"})
	_, err = NewFrontendFactory(cfg, zap.NewNop(), nil, nil).CreateFrontend()
	assert.EqualError(t, err, "unsupported frontend: milter")
}
