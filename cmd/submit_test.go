package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AlhasanIQ/oriki/catalog"
	"github.com/AlhasanIQ/oriki/config"
	"github.com/AlhasanIQ/oriki/provider"
)

func TestSubmitPrintsResultAndSendsPayload(t *testing.T) {
	setTestHome(t)
	svc, url := newFakeService(t)

	args := append([]string{"submit", "--api-url", url}, fullAnswerArgs()...)
	out, _, err := runCLI(t, "", args...)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	want := "Child of the secular dawn\nwho walks softly\n\n- I am enough.\n- I am steady.\n"
	if out != want {
		t.Fatalf("unexpected output:\n%q\nwant:\n%q", out, want)
	}
	if strings.Contains(out, provider.CulturalDisclaimer) {
		t.Fatalf("disclaimer should not show for secular mode")
	}

	reqs := svc.generateRequests()
	if len(reqs) != 1 {
		t.Fatalf("expected one generate request, got %d", len(reqs))
	}
	req := reqs[0]
	if strings.Join(req.TopValues, ",") != "integrity,family,growth" {
		t.Fatalf("unexpected top_values: %v", req.TopValues)
	}
	if req.CulturalMode != "secular" || req.Pronouns != "they_them" {
		t.Fatalf("unexpected mode/pronouns: %q %q", req.CulturalMode, req.Pronouns)
	}
	if req.GreatestStrength != "empathy" || req.MetaphorArchetype != "river" || req.EnergyStyle != "grounded" {
		t.Fatalf("unexpected single selections: %+v", req)
	}
	if req.FreeWriteLetter != "Speak patience and courage over me." {
		t.Fatalf("expected trimmed letter, got %q", req.FreeWriteLetter)
	}
	if req.DisplayName != nil {
		t.Fatalf("expected no display name, got %q", *req.DisplayName)
	}
}

func TestSubmitJSONWithNameAndAudio(t *testing.T) {
	dir := setTestHome(t)
	svc, url := newFakeService(t)

	answers := filepath.Join(dir, "answers.yaml")
	doc := `top_values: [courage, wisdom]
cultural_mode: yoruba_inspired
pronouns: name_only
greatest_strength: resilience
aspirational_trait: joy
metaphor_archetype: 3
energy_style: Sage
life_focus: career
free_write_letter: |
  Let my steps be steady and my voice be kind.
`
	if err := os.WriteFile(answers, []byte(doc), 0o600); err != nil {
		t.Fatalf("write answers: %v", err)
	}
	audioPath := filepath.Join(dir, "out", "oriki.mp3")

	out, _, err := runCLI(t, "", "submit", "--api-url", url, "--answers", answers, "--name", "  Adebayo  ", "--json", "--audio", audioPath)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	var got resultJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if got.CulturalMode != "yoruba_inspired" || len(got.PoemLines) != 2 || len(got.Affirmations) != 2 {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got.AudioPath != audioPath {
		t.Fatalf("expected audio path %s, got %s", audioPath, got.AudioPath)
	}
	b, err := os.ReadFile(audioPath)
	if err != nil {
		t.Fatalf("read audio: %v", err)
	}
	if string(b) != "ID3 narration" {
		t.Fatalf("unexpected audio bytes %q", b)
	}

	req := svc.generateRequests()[0]
	if req.DisplayName == nil || *req.DisplayName != "Adebayo" {
		t.Fatalf("expected trimmed display name, got %v", req.DisplayName)
	}
	if req.MetaphorArchetype != "flame" || req.EnergyStyle != "sage" {
		t.Fatalf("expected index and label resolution, got %q %q", req.MetaphorArchetype, req.EnergyStyle)
	}
	narration := svc.audioRequests()
	if len(narration) != 1 || !strings.Contains(narration[0].Text, "\n\nI am enough.\nI am steady.") {
		t.Fatalf("unexpected narration request: %+v", narration)
	}
	if narration[0].Voice != "alloy" {
		t.Fatalf("expected default voice, got %q", narration[0].Voice)
	}
}

func TestSubmitNameOnlyRequiresName(t *testing.T) {
	setTestHome(t)
	svc, url := newFakeService(t)

	args := append([]string{"submit", "--api-url", url}, fullAnswerArgs()...)
	args = append(args, "--answer", "pronouns=name_only")
	_, _, err := runCLI(t, "", args...)
	if err == nil || !strings.Contains(err.Error(), "pronouns: Please enter the name to celebrate.") {
		t.Fatalf("expected name validation error, got %v", err)
	}
	if n := len(svc.generateRequests()); n != 0 {
		t.Fatalf("expected no request, got %d", n)
	}
}

func TestSubmitServerErrorNotCached(t *testing.T) {
	setTestHome(t)
	svc, url := newFakeService(t)
	svc.failWith(503)

	args := append([]string{"submit", "--api-url", url}, fullAnswerArgs()...)
	_, _, err := runCLI(t, "", args...)
	if err == nil || err.Error() != "The oracle is resting" {
		t.Fatalf("expected server detail, got %v", err)
	}

	_, _, err = runCLI(t, "", "show")
	if err != errNoSavedResult {
		t.Fatalf("expected no saved result, got %v", err)
	}
}

func TestSubmitRejectsBadAnswers(t *testing.T) {
	setTestHome(t)
	_, url := newFakeService(t)

	_, _, err := runCLI(t, "", "submit", "--api-url", url, "--answer", "top_values=integrity")
	if err == nil || !strings.Contains(err.Error(), "missing answers for cultural_mode") {
		t.Fatalf("expected missing answers, got %v", err)
	}

	args := append([]string{"submit", "--api-url", url}, fullAnswerArgs()...)
	_, _, err = runCLI(t, "", append(args, "--answer", "favorite_color=blue")...)
	if err == nil || !strings.Contains(err.Error(), `unknown question "favorite_color"`) {
		t.Fatalf("expected unknown question, got %v", err)
	}

	_, _, err = runCLI(t, "", append(args, "--answer", "cultural_mode=klingon")...)
	if err == nil || !strings.Contains(err.Error(), `no option matches "klingon"`) {
		t.Fatalf("expected unmatched option, got %v", err)
	}

	_, _, err = runCLI(t, "", append(args, "--answer", "free_write_letter=short")...)
	if err == nil || !strings.HasPrefix(err.Error(), "free_write_letter:") {
		t.Fatalf("expected letter validation error, got %v", err)
	}

	_, _, err = runCLI(t, "", append(args, "--timeout", "soon")...)
	if err == nil || !strings.Contains(err.Error(), "invalid --timeout") {
		t.Fatalf("expected timeout parse error, got %v", err)
	}
}

func TestResolveOption(t *testing.T) {
	q, _ := catalog.Default().Get("metaphor_archetype")
	cases := map[string]string{
		"river":       "river",
		"The Storm":   "storm",
		"the bridge":  "bridge",
		"1":           "mountain",
		"(8)":         "garden",
		"  TREE.  ":   "tree",
		"The Garden ": "garden",
	}
	for in, want := range cases {
		got, err := resolveOption(q, in)
		if err != nil {
			t.Fatalf("resolveOption(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("resolveOption(%q) = %q, want %q", in, got, want)
		}
	}
	for _, bad := range []string{"0", "9", "volcano", ""} {
		if _, err := resolveOption(q, bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestSplitAnswerTokens(t *testing.T) {
	got := splitAnswerTokens(" integrity, family;;\ngrowth ,")
	if strings.Join(got, "|") != "integrity|family|growth" {
		t.Fatalf("unexpected tokens: %q", got)
	}
}

func TestSubmitContinuesWhenCacheCannotOpen(t *testing.T) {
	dir := setTestHome(t)
	svc, url := newFakeService(t)
	if _, _, err := runCLI(t, "", "config", "set", "cache.backend", "sqlite"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	blocker := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	t.Setenv(config.EnvCachePath, filepath.Join(blocker, "oriki", "result.db"))

	args := append([]string{"submit", "--api-url", url}, fullAnswerArgs()...)
	out, _, err := runCLI(t, "", args...)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !strings.HasPrefix(out, "Child of the secular dawn\n") {
		t.Fatalf("expected poem, got %q", out)
	}
	if n := len(svc.generateRequests()); n != 1 {
		t.Fatalf("expected one generate request, got %d", n)
	}

	logData, err := os.ReadFile(filepath.Join(dir, "state", "oriki", "oriki.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(logData), "result cache unavailable") {
		t.Fatalf("expected cache warning in log, got:\n%s", logData)
	}
}
