// Command benchmark times owner lookups against a running ownerlookup-api.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/use-agent/ownerlookup/models"
)

// CLI flags
var (
	apiURL = flag.String("api-url", "http://localhost:8080", "ownerlookup API base URL")
	apiKey = flag.String("api-key", "", "API key for authenticated requests")
	names  = flag.String("names", "Acme Inc,Zenith Co", "comma-separated business names to look up")
	runs   = flag.Int("runs", 2, "lookups per name; later runs may be cache hits")
	maxAge = flag.Int("max-age", 0, "max_age in ms sent with each lookup; 0 bypasses the cache")
	output = flag.String("output", "benchmark-results.json", "JSON output file path")
)

type runResult struct {
	Run      int    `json:"run"`
	TotalMs  int64  `json:"total_ms"`
	LookupMs int64  `json:"lookup_ms"`
	HTTP     int    `json:"http_status"`
	Status   string `json:"status,omitempty"`
	Cache    string `json:"cache_status,omitempty"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

type nameResult struct {
	BusinessName string      `json:"business_name"`
	Runs         []runResult `json:"runs"`
	AvgTotalMs   float64     `json:"avg_total_ms"`
}

type benchmarkReport struct {
	Timestamp   string       `json:"timestamp"`
	APIURL      string       `json:"api_url"`
	RunsPerName int          `json:"runs_per_name"`
	Results     []nameResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== ownerlookup benchmark ===")
	fmt.Printf("API URL:    %s\n", *apiURL)
	fmt.Printf("Runs/name:  %d\n", *runs)
	fmt.Printf("Output:     %s\n", *output)
	fmt.Println()

	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		APIURL:      *apiURL,
		RunsPerName: *runs,
	}

	for _, name := range strings.Split(*names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		fmt.Printf("Looking up %q ...\n", name)
		nr := nameResult{BusinessName: name}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr := lookup(name, i)
			if rr.Success {
				fmt.Printf("OK  %dms  %s %s\n", rr.TotalMs, rr.Status, rr.Cache)
			} else {
				fmt.Printf("FAILED: %s\n", rr.Error)
			}
			nr.Runs = append(nr.Runs, rr)
		}

		nr.AvgTotalMs = averageMs(nr.Runs)
		report.Results = append(report.Results, nr)
		fmt.Println()
	}

	printTable(report.Results)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func lookup(name string, run int) runResult {
	rr := runResult{Run: run}

	body, err := json.Marshal(models.LookupRequest{BusinessName: name, MaxAge: *maxAge})
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest(http.MethodPost, *apiURL+"/api/v1/lookup", bytes.NewReader(body))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+*apiKey)
	}

	// The first lookup also starts the browser and signs in.
	client := &http.Client{Timeout: 3 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()
	rr.HTTP = resp.StatusCode

	var lr models.LookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}

	rr.Success = lr.Success
	rr.TotalMs = lr.Timing.TotalMs
	rr.LookupMs = lr.Timing.LookupMs
	rr.Cache = lr.CacheStatus
	if lr.Owners != nil {
		rr.Status = string(lr.Owners.Status)
	}
	if lr.Error != nil {
		rr.Error = lr.Error.Message
	}
	return rr
}

func averageMs(runs []runResult) float64 {
	var n, sum float64
	for _, r := range runs {
		if r.Success {
			n++
			sum += float64(r.TotalMs)
		}
	}
	if n == 0 {
		return 0
	}
	return sum / n
}

func printTable(results []nameResult) {
	fmt.Println(strings.Repeat("─", 70))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Business Name\tAvg Latency\tOutcome\n")
	fmt.Fprintf(w, "─────────────\t───────────\t───────\n")

	for _, r := range results {
		outcome := "FAILED"
		if len(r.Runs) > 0 && r.Runs[len(r.Runs)-1].Success {
			outcome = r.Runs[len(r.Runs)-1].Status
		}
		fmt.Fprintf(w, "%s\t%dms\t%s\n", truncate(r.BusinessName, 40), int64(r.AvgTotalMs), outcome)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 70))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
