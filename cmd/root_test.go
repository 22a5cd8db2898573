package cmd

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/AlhasanIQ/oriki/config"
	"github.com/AlhasanIQ/oriki/contract"
)

// setTestHome points config, state and cache lookups at a fresh temp dir.
func setTestHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	t.Setenv(config.EnvConfigPath, "")
	t.Setenv(config.EnvBaseURL, "")
	t.Setenv(config.EnvCachePath, "")
	t.Setenv("NO_COLOR", "1")
	return dir
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := Execute(args, IO{
		In:     strings.NewReader(stdin),
		Out:    &out,
		ErrOut: &errOut,
	})
	return out.String(), errOut.String(), err
}

type fakeService struct {
	mu       sync.Mutex
	requests []contract.GenerateRequest
	audio    []contract.AudioRequest
	status   int
}

func (f *fakeService) generateRequests() []contract.GenerateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]contract.GenerateRequest(nil), f.requests...)
}

func (f *fakeService) audioRequests() []contract.AudioRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]contract.AudioRequest(nil), f.audio...)
}

func (f *fakeService) failWith(status int) {
	f.mu.Lock()
	f.status = status
	f.mu.Unlock()
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	status := f.status
	f.mu.Unlock()
	if status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"detail":"The oracle is resting"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/v1/generate":
		var req contract.GenerateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(contract.GenerateResponse{
			Poem: &contract.Poem{
				PoemLines:    []string{"Child of the " + req.CulturalMode + " dawn", " ", "who walks softly"},
				CulturalMode: req.CulturalMode,
			},
			Affirmations: &contract.Affirmations{Affirmations: []string{"I am enough.", "I am steady."}},
		})
	case "/api/v1/audio":
		var req contract.AudioRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.audio = append(f.audio, req)
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(contract.AudioResponse{
			AudioBase64:     base64.StdEncoding.EncodeToString([]byte("ID3 narration")),
			DurationSeconds: 21,
		})
	case "/api/v1/quiz/questions":
		_, _ = w.Write([]byte(`{"version":"remote-1","total_questions":2,"questions":[
			{"id":"top_values","text":"Pick values","is_multi_select":true,"max_selections":2,"options":[{"value":"integrity","label":"Integrity"},{"value":"family","label":"Family"}]},
			{"id":"letter","text":"Write to yourself","is_multi_select":false,"options":[]}
		]}`))
	case "/health":
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	default:
		http.NotFound(w, r)
	}
}

func newFakeService(t *testing.T) (*fakeService, string) {
	t.Helper()
	f := &fakeService{}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv.URL
}

func fullAnswerArgs() []string {
	return []string{
		"--answer", "top_values=integrity,Family,4",
		"--answer", "cultural_mode=2",
		"--answer", "pronouns=they_them",
		"--answer", "greatest_strength=Empathy",
		"--answer", "aspirational_trait=peace",
		"--answer", "metaphor_archetype=The River",
		"--answer", "energy_style=grounded",
		"--answer", "life_focus=health",
		"--answer", "free_write_letter=  Speak patience and courage over me.  ",
	}
}

func TestExecuteRejectsMissingIO(t *testing.T) {
	if err := Execute(nil, IO{}); err == nil {
		t.Fatalf("expected error for missing IO")
	}
}

func TestVerboseLogsStayOffTheQuizTerminal(t *testing.T) {
	root := newRootCmd(&app{})
	cases := map[string]bool{
		"":       true,
		"quiz":   true,
		"submit": false,
		"ping":   false,
	}
	for name, want := range cases {
		cmd := root
		if name != "" {
			found, _, err := root.Find([]string{name})
			if err != nil {
				t.Fatalf("find %s: %v", name, err)
			}
			cmd = found
		}
		if got := isQuizCommand(cmd); got != want {
			t.Fatalf("isQuizCommand(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestPingReportsStatus(t *testing.T) {
	setTestHome(t)
	_, url := newFakeService(t)

	_, errOut, err := runCLI(t, "", "ping", "--api-url", url)
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	if !strings.Contains(errOut, "oriki-api is healthy") {
		t.Fatalf("expected health line, got %q", errOut)
	}
}

func TestPingUnreachable(t *testing.T) {
	setTestHome(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, errOut, err := runCLI(t, "", "ping", "--api-url", url)
	if err == nil {
		t.Fatalf("expected error for closed server")
	}
	if !strings.Contains(errOut, "Service unreachable") {
		t.Fatalf("expected unreachable message, got %q", errOut)
	}
}

func TestCatalogBuiltin(t *testing.T) {
	setTestHome(t)

	out, _, err := runCLI(t, "", "catalog")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	for _, want := range []string{"1. top_values", "choose up to 3", "(yoruba_inspired)", "free text, 10-2000 characters"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in catalog output:\n%s", want, out)
		}
	}
}

func TestCatalogRemoteJSON(t *testing.T) {
	setTestHome(t)
	_, url := newFakeService(t)
	if _, _, err := runCLI(t, "", "config", "set", "catalog.source", "remote"); err != nil {
		t.Fatalf("config set: %v", err)
	}

	out, _, err := runCLI(t, "", "catalog", "--json", "--api-url", url)
	if err != nil {
		t.Fatalf("catalog --json: %v", err)
	}
	var doc struct {
		Version   string         `json:"version"`
		Questions []questionJSON `json:"questions"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode catalog json: %v\n%s", err, out)
	}
	if doc.Version != "remote-1" || len(doc.Questions) != 2 {
		t.Fatalf("unexpected remote catalog: %+v", doc)
	}
	if doc.Questions[0].MaxSelections != 2 {
		t.Fatalf("expected max_selections 2, got %d", doc.Questions[0].MaxSelections)
	}
	if doc.Questions[1].Field != "free_write_letter" || doc.Questions[1].Kind != "free_text" {
		t.Fatalf("expected letter mapped to free_write_letter free text, got %+v", doc.Questions[1])
	}
}
