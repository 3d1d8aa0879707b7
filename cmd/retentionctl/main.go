package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

// client wraps the shared bits every subcommand needs to call the
// operator API: base URL, session cookie, and dev-password header,
// grounded on cmd/embedctl/main.go's single-http.Client, build-request,
// check-status, decode-JSON shape.
type client struct {
	baseURL           string
	sessionCookieName string
	sessionCookie     string
	devPasswordHeader string
	devPassword       string
	http              *http.Client
}

func newClientFromFlags() *client {
	baseURL := flag.String("base-url", firstNonEmpty(os.Getenv("RETENTIONCTL_BASE_URL"), "http://localhost:8090/api"), "retentionloop API base URL")
	cookieName := flag.String("session-cookie-name", firstNonEmpty(os.Getenv("RETENTIONCTL_SESSION_COOKIE_NAME"), "retentionloop_session"), "operator session cookie name")
	cookie := flag.String("session-cookie", os.Getenv("RETENTIONCTL_SESSION_COOKIE"), "operator session cookie value (obtained via /auth/login)")
	devHeader := flag.String("dev-password-header", firstNonEmpty(os.Getenv("RETENTIONCTL_DEV_PASSWORD_HEADER"), "X-Retentionloop-Dev-Password"), "dev-password header name")
	devPassword := flag.String("dev-password", os.Getenv("RETENTIONCTL_DEV_PASSWORD"), "operator dev password")
	return &client{
		baseURL:           strings.TrimRight(*baseURL, "/"),
		sessionCookieName: *cookieName,
		sessionCookie:     *cookie,
		devPasswordHeader: *devHeader,
		devPassword:       *devPassword,
		http:              &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *client) do(method, path string, body any) (map[string]any, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.sessionCookie != "" {
		req.AddCookie(&http.Cookie{Name: c.sessionCookieName, Value: c.sessionCookie})
	}
	if c.devPassword != "" {
		req.Header.Set(c.devPasswordHeader, c.devPassword)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, string(raw))
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		// allow array responses (e.g. list endpoints) to print raw
		fmt.Println(string(raw))
		return nil, nil
	}
	return out, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func usage() {
	fmt.Fprintln(os.Stderr, `retentionctl <command> [flags]

Commands:
  status                          active config version + running experiment
  list-versions  [-limit=20]      recent config versions
  activate       -id=ID           activate a config version
  rollback                        activate the previous version
  apply-preset   -name=NAME [-activate]
  suggestions    [-range=24h]     top suggestions from the latest analysis
  analyze        [-range=24h]     run a full analyze-renders pass
  prompt         -text="..." [-activate]
  auto-optimize  [-range=24h]     apply the top suggestion immediately
  start-experiment -name=NAME -arms=id1:w1,id2:w2 [-reward=score_total]
  stop-experiment
  experiment-status`)
}

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd := os.Args[1]
	os.Args = append([]string{os.Args[0]}, os.Args[2:]...)

	c := dispatch(cmd)
	if c == nil {
		usage()
		os.Exit(2)
	}
}

func dispatch(cmd string) *client {
	switch cmd {
	case "status":
		c := newClientFromFlags()
		flag.Parse()
		runStatus(c)
		return c
	case "list-versions":
		limit := flag.Int("limit", 20, "max versions to list")
		c := newClientFromFlags()
		flag.Parse()
		must(c.do(http.MethodGet, fmt.Sprintf("/config/versions?limit=%d", *limit), nil))
		return c
	case "activate":
		id := flag.String("id", "", "config version id")
		c := newClientFromFlags()
		flag.Parse()
		if *id == "" {
			log.Fatal("activate requires -id")
		}
		must(c.do(http.MethodPost, "/config/activate", map[string]string{"id": *id}))
		return c
	case "rollback":
		c := newClientFromFlags()
		flag.Parse()
		must(c.do(http.MethodPost, "/config/rollback", nil))
		return c
	case "apply-preset":
		name := flag.String("name", "", "preset name")
		activate := flag.Bool("activate", false, "activate after creating")
		c := newClientFromFlags()
		flag.Parse()
		if *name == "" {
			log.Fatal("apply-preset requires -name")
		}
		must(c.do(http.MethodPost, "/preset/apply", map[string]any{"name": *name, "activate": *activate}))
		return c
	case "suggestions":
		rng := flag.String("range", "24h", "lookback window")
		c := newClientFromFlags()
		flag.Parse()
		must(c.do(http.MethodGet, "/suggestions?range="+*rng, nil))
		return c
	case "analyze":
		rng := flag.String("range", "24h", "lookback window")
		c := newClientFromFlags()
		flag.Parse()
		must(c.do(http.MethodPost, "/analyze-renders?range="+*rng, nil))
		return c
	case "prompt":
		text := flag.String("text", "", "operator prompt text")
		activate := flag.Bool("activate", false, "activate after applying")
		c := newClientFromFlags()
		flag.Parse()
		if *text == "" {
			log.Fatal("prompt requires -text")
		}
		must(c.do(http.MethodPost, "/prompt/apply", map[string]any{"prompt": *text, "activate": *activate}))
		return c
	case "auto-optimize":
		rng := flag.String("range", "24h", "lookback window")
		c := newClientFromFlags()
		flag.Parse()
		must(c.do(http.MethodPost, "/auto-optimize?range="+*rng, nil))
		return c
	case "start-experiment":
		name := flag.String("name", "", "experiment name")
		arms := flag.String("arms", "", "comma-separated config_version_id:weight pairs")
		reward := flag.String("reward", "score_total", "reward metric name")
		c := newClientFromFlags()
		flag.Parse()
		if *name == "" || *arms == "" {
			log.Fatal("start-experiment requires -name and -arms")
		}
		must(c.do(http.MethodPost, "/experiment/start", map[string]any{
			"name":          *name,
			"arms":          parseArms(*arms),
			"reward_metric": *reward,
		}))
		return c
	case "stop-experiment":
		c := newClientFromFlags()
		flag.Parse()
		must(c.do(http.MethodPost, "/experiment/stop", nil))
		return c
	case "experiment-status":
		c := newClientFromFlags()
		flag.Parse()
		must(c.do(http.MethodGet, "/experiment/status", nil))
		return c
	default:
		return nil
	}
}

func runStatus(c *client) {
	must(c.do(http.MethodGet, "/config", nil))
	must(c.do(http.MethodGet, "/experiment/status", nil))
}

type arm struct {
	ConfigVersionID string  `json:"config_version_id"`
	Weight          float64 `json:"weight"`
}

func parseArms(raw string) []arm {
	var out []arm
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			log.Fatalf("invalid arm %q, expected id:weight", pair)
		}
		var weight float64
		if _, err := fmt.Sscanf(parts[1], "%f", &weight); err != nil {
			log.Fatalf("invalid weight in arm %q: %v", pair, err)
		}
		out = append(out, arm{ConfigVersionID: strings.TrimSpace(parts[0]), Weight: weight})
	}
	return out
}

func must(v map[string]any, err error) {
	if err != nil {
		log.Fatal(err)
	}
	if v != nil {
		printJSON(v)
	}
}
