package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/vivaneiona/extractkit"
	"github.com/vivaneiona/extractkit/internal/config"
)

const vacationSchemaYAML = `fields:
  - name: leave_time
    description: When they are leaving
    type: string
  - name: num_people
    description: The number of people on the vacation
    type: integer
    rules: [positive]
  - name: cities_to_visit
    description: Cities they will visit
    type: list-of-string
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// openAIServer answers every chat completion with reply and counts calls.
func openAIServer(t *testing.T, reply string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	calls := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.Copy(io.Discard, r.Body)
		body, _ := json.Marshal(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server, calls
}

func testConfig(baseURL string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Providers["openai"] = config.ProviderCfg{
		Type:    "openai",
		Model:   "gpt-4o-mini",
		APIKey:  "test-key",
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	}
	return cfg
}

func TestBuildExtractor_OpenAI(t *testing.T) {
	server, calls := openAIServer(t, `{"leave_time":"June 6th","num_people":4,"cities_to_visit":["Amsterdam"]}`)
	cfg := testConfig(server.URL)

	x, err := buildExtractor(context.Background(), cfg, defaultOverrides(), nil)
	require.NoError(t, err)

	s, err := extractkit.ParseSchemaYAML([]byte(vacationSchemaYAML))
	require.NoError(t, err)

	res, err := x.Extract(context.Background(), "Four of us leave on June 6th for Amsterdam.", s)
	require.NoError(t, err)
	assert.Equal(t, "June 6th", res.String("leave_time"))
	assert.Equal(t, 4, res.Int("num_people"))
	assert.Equal(t, []string{"Amsterdam"}, res.Strings("cities_to_visit"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestBuildExtractor_MemoryCache(t *testing.T) {
	server, calls := openAIServer(t, `{"leave_time":"today","num_people":2,"cities_to_visit":[]}`)
	cfg := testConfig(server.URL)

	ov := defaultOverrides()
	ov.Cache = "memory"
	x, err := buildExtractor(context.Background(), cfg, ov, nil)
	require.NoError(t, err)

	s, err := extractkit.ParseSchemaYAML([]byte(vacationSchemaYAML))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := x.Extract(context.Background(), "Two of us leave today.", s)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), calls.Load(), "identical requests are served from the cache")
}

func TestBuildExtractor_Errors(t *testing.T) {
	cfg := config.DefaultConfig()

	ov := defaultOverrides()
	ov.Provider = "missing"
	_, err := buildExtractor(context.Background(), cfg, ov, nil)
	assert.ErrorIs(t, err, config.ErrUnknownProvider)

	ov = defaultOverrides()
	ov.Cache = "memcached"
	_, err = buildExtractor(context.Background(), cfg, ov, nil)
	assert.ErrorContains(t, err, "unsupported cache type")

	cfg.Providers["weird"] = config.ProviderCfg{Type: "anthropic"}
	ov = defaultOverrides()
	ov.Provider = "weird"
	_, err = buildExtractor(context.Background(), cfg, ov, nil)
	assert.ErrorContains(t, err, "unsupported provider type")

	t.Setenv("GEMINI_API_KEY", "")
	ov = defaultOverrides()
	ov.Provider = "gemini"
	_, err = buildExtractor(context.Background(), config.DefaultConfig(), ov, nil)
	assert.ErrorContains(t, err, "requires an API key")
}

func TestGenAIClientConfig(t *testing.T) {
	cc := genaiClientConfig(config.ProviderCfg{
		Type:    "gemini",
		APIKey:  "k",
		BaseURL: "http://localhost:9999/",
		Timeout: 30 * time.Second,
	})
	assert.Equal(t, "k", cc.APIKey)
	assert.Equal(t, genai.BackendGeminiAPI, cc.Backend)
	assert.Equal(t, "http://localhost:9999/", cc.HTTPOptions.BaseURL)
	require.NotNil(t, cc.HTTPOptions.Timeout)
	assert.Equal(t, 30*time.Second, *cc.HTTPOptions.Timeout)

	cc = genaiClientConfig(config.ProviderCfg{Type: "gemini", APIKey: "k"})
	assert.Nil(t, cc.HTTPOptions.Timeout)
	assert.Empty(t, cc.HTTPOptions.BaseURL)
}

func TestNewCache(t *testing.T) {
	c, err := newCache(config.CacheCfg{Type: "none"})
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = newCache(config.CacheCfg{Type: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &extractkit.MemoryCache{}, c)

	c, err = newCache(config.CacheCfg{Type: "redis", RedisAddr: "localhost:6379", Prefix: "p:", TTL: time.Minute})
	require.NoError(t, err)
	assert.IsType(t, &extractkit.RedisCache{}, c)

	_, err = newCache(config.CacheCfg{Type: "redis"})
	assert.Error(t, err)
}

func TestNewPromptProvider_Dir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "short.twig", "Short template")

	p, err := newPromptProvider(dir)
	require.NoError(t, err)

	tpl, err := p.GetPrompt("short", 1)
	require.NoError(t, err)
	assert.Equal(t, "Short template", tpl)

}

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"temperature=0.2", " topP = 0.9 "})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"temperature": "0.2", "topP": "0.9"}, params)

	params, err = parseParams(nil)
	require.NoError(t, err)
	assert.Nil(t, params)

	_, err = parseParams([]string{"temperature"})
	assert.Error(t, err)
}

func TestParseOutputFormat(t *testing.T) {
	f, err := parseOutputFormat("json")
	require.NoError(t, err)
	assert.Equal(t, OutputFormatJSON, f)

	f, err = parseOutputFormat("")
	require.NoError(t, err)
	assert.Equal(t, OutputFormatYAML, f)

	_, err = parseOutputFormat("toml")
	assert.Error(t, err)
}

func TestOutputResult_SchemaOrder(t *testing.T) {
	s, err := extractkit.ParseSchemaYAML([]byte(vacationSchemaYAML))
	require.NoError(t, err)
	res, err := extractkit.Complete(s, map[string]any{"num_people": 3, "cities_to_visit": []any{"Rome", "Paris"}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, outputResult(&buf, OutputFormatYAML, res))
	assert.Equal(t, "leave_time: unknown\nnum_people: 3\ncities_to_visit:\n  - Rome\n  - Paris\n", buf.String())

	buf.Reset()
	require.NoError(t, outputResult(&buf, OutputFormatJSON, res))
	assert.Equal(t, "{\n  \"leave_time\": \"unknown\",\n  \"num_people\": 3,\n  \"cities_to_visit\": [\n    \"Rome\",\n    \"Paris\"\n  ]\n}\n", buf.String())
}

func TestReadDocument_Stdin(t *testing.T) {
	doc, err := readDocument(strings.NewReader("We leave tomorrow."), []string{"-"})
	require.NoError(t, err)
	assert.Equal(t, "-", doc.Path)
	assert.Equal(t, "We leave tomorrow.", doc.Text)
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger("debug", true)
	assert.NoError(t, err)
	_, err = newLogger("WARN", true)
	assert.NoError(t, err)
	_, err = newLogger("chatty", true)
	assert.Error(t, err)
}

func TestRedacted(t *testing.T) {
	cfg := testConfig("")
	cfg.Providers["gemini"] = config.ProviderCfg{APIKey: "${GEMINI_API_KEY}"}

	out := redacted(cfg)
	assert.Equal(t, "****", out.Providers["openai"].APIKey)
	assert.Equal(t, "${GEMINI_API_KEY}", out.Providers["gemini"].APIKey)
	assert.Equal(t, "test-key", cfg.Providers["openai"].APIKey, "original is untouched")
}

// execute runs the root command in an isolated working directory.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
		runFlags = defaultOverrides()
		cfgManager = nil
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// resetFlags restores every flag of cmd and its children to its default so
// values set by one execute call do not reach the next.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func TestExecute_FlagsDoNotLeak(t *testing.T) {
	dir := t.TempDir()
	schemaFile := writeFile(t, dir, "vacation.yaml", vacationSchemaYAML)

	t.Run("set", func(t *testing.T) {
		_, _ = execute(t, "explain", "--log-level", "error", "--no-color", "-o", "json",
			"--schema", schemaFile, "--model", "gpt-4o", "--retries", "7", "-p", "temperature=0.1",
			"--show-prompt", filepath.Join(dir, "missing.txt"))
	})

	assert.Empty(t, schemaPath)
	assert.Equal(t, defaultOverrides(), runFlags)
	assert.Empty(t, paramFlags)
	assert.False(t, showPrompt)
	assert.False(t, noColor)
	assert.Equal(t, "yaml", outputFormat)
	assert.Empty(t, logLevel)

	_, err := execute(t, "run", "--log-level", "error", filepath.Join(dir, "notes.txt"))
	assert.ErrorContains(t, err, `required flag(s) "schema" not set`)
}

func TestCommand_Schema(t *testing.T) {
	path := writeFile(t, t.TempDir(), "vacation.yaml", vacationSchemaYAML)

	out, err := execute(t, "schema", "--log-level", "error", "--no-color", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"num_people": integer`)

	bad := writeFile(t, t.TempDir(), "bad.yaml", "fields:\n  - name: x\n    type: date\n")
	_, err = execute(t, "schema", "--log-level", "error", bad)
	assert.ErrorIs(t, err, extractkit.ErrInvalidField)
}

func TestCommand_Run(t *testing.T) {
	server, _ := openAIServer(t, `{"leave_time":"June 6th","num_people":"4","cities_to_visit":"n/a"}`)
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", "log_level: error\nproviders:\n  openai:\n    api_key: test-key\n    base_url: "+server.URL+"\n")
	schemaFile := writeFile(t, dir, "vacation.yaml", vacationSchemaYAML)
	docFile := writeFile(t, dir, "notes.txt", "Four of us leave on June 6th.")

	out, err := execute(t, "run", "--config", cfgPath, "--no-color", "-o", "json", "--schema", schemaFile, docFile)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "June 6th", got["leave_time"])
	assert.Equal(t, float64(4), got["num_people"])
	assert.Equal(t, []any{}, got["cities_to_visit"])
}

func TestCommand_RunValidationFailure(t *testing.T) {
	server, _ := openAIServer(t, `{"leave_time":"June 6th","num_people":0,"cities_to_visit":[]}`)
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", "log_level: error\nproviders:\n  openai:\n    api_key: test-key\n    base_url: "+server.URL+"\n")
	schemaFile := writeFile(t, dir, "vacation.yaml", vacationSchemaYAML)
	docFile := writeFile(t, dir, "notes.txt", "Nobody is going.")

	_, err := execute(t, "run", "--config", cfgPath, "--no-color", "-o", "yaml", "--schema", schemaFile, docFile)
	var ve *extractkit.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "num_people", ve.Field)
	assert.Equal(t, "positive", ve.Rule)
}

func TestCommand_ConfigInit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	out, err := execute(t, "config", "init", "--log-level", "error", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	mgr, err := config.NewManager(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Extraction, mgr.Get().Extraction)

	_, err = execute(t, "config", "init", "--log-level", "error", path)
	assert.ErrorContains(t, err, "already exists")
}
