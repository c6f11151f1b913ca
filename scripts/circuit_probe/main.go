package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

type probe struct {
	Resource string
	Path     string
}

type result struct {
	Probe    probe
	Status   int
	Total    int
	Items    int
	Degraded bool
	Stale    bool
	Duration time.Duration
	Error    error
}

type listBody struct {
	Items []json.RawMessage `json:"items"`
	Total int               `json:"total"`
	Stale bool              `json:"stale"`
}

type circuitBody struct {
	Observed bool `json:"observed"`
	State    struct {
		Open      bool      `json:"open"`
		ChangedAt time.Time `json:"changed_at"`
		LastError *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"last_error"`
	} `json:"state"`
}

func main() {
	var (
		base    string
		token   string
		timeout time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "gateway base URL")
	flag.StringVar(&token, "token", os.Getenv("CAREVIA_TOKEN"), "bearer token for the API")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	client := &http.Client{Timeout: timeout}
	probes := []probe{
		{Resource: "hospitals", Path: "/api/v1/catalog/hospitals"},
		{Resource: "doctors", Path: "/api/v1/catalog/doctors"},
		{Resource: "specialties", Path: "/api/v1/catalog/specialties"},
		{Resource: "staff", Path: "/api/v1/catalog/staff"},
		{Resource: "kpis", Path: "/api/v1/catalog/kpis"},
	}

	var degraded int
	results := make([]result, 0, len(probes))
	for _, p := range probes {
		res := probeResource(client, base, token, p)
		if res.Error != nil || res.Degraded || res.Stale {
			degraded++
		}
		results = append(results, res)
	}

	printReport(results)
	printCircuit(client, base, token)

	if degraded > 0 {
		fmt.Printf("Resources not fully healthy: %d\n", degraded)
		os.Exit(1)
	}
}

func probeResource(client *http.Client, base, token string, p probe) result {
	res := result{Probe: p}

	resp, dur, err := get(client, base, token, p.Path)
	res.Duration = dur
	if err != nil {
		res.Error = err
		return res
	}
	defer resp.Body.Close()

	res.Status = resp.StatusCode
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		res.Error = fmt.Errorf("read body: %w", err)
		return res
	}

	var list listBody
	if err := json.Unmarshal(body, &list); err != nil {
		res.Error = fmt.Errorf("decode body: %w", err)
		return res
	}

	res.Items = len(list.Items)
	res.Total = list.Total
	res.Stale = list.Stale || resp.Header.Get("X-Served-From-Cache") == "true"
	res.Degraded = degradedBody(body)

	return res
}

// degradedBody looks at the raw payload so the probe still reports the flag
// even if the envelope shape changes around it.
func degradedBody(body []byte) bool {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return false
	}
	marker, ok := raw["degraded"]
	if !ok {
		return false
	}
	var v bool
	if err := json.Unmarshal(marker, &v); err != nil {
		return false
	}
	return v
}

func get(client *http.Client, base, token, path string) (*http.Response, time.Duration, error) {
	url := strings.TrimRight(base, "/") + path
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	return resp, time.Since(start), nil
}

func printReport(results []result) {
	fmt.Println("Catalog Probe Report")
	fmt.Println("====================")
	for _, res := range results {
		status := "OK"
		switch {
		case res.Error != nil:
			status = "ERROR"
		case res.Degraded:
			status = "DEGRADED"
		case res.Stale:
			status = "STALE"
		}
		fmt.Printf("[%s] %s\n", status, res.Probe.Path)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		fmt.Printf("  Status: %d (%s)\n", res.Status, res.Duration)
		fmt.Printf("  Items: %d | Total: %d | Degraded: %t | Stale: %t\n", res.Items, res.Total, res.Degraded, res.Stale)
	}
}

func printCircuit(client *http.Client, base, token string) {
	resp, _, err := get(client, base, token, "/api/v1/upstream/circuit")
	if err != nil {
		fmt.Printf("Circuit state unavailable: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var envelope struct {
		Data circuitBody `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		fmt.Printf("Circuit state unreadable: %v\n", err)
		return
	}

	state := envelope.Data
	if !state.Observed {
		fmt.Println("Circuit: no upstream call observed yet")
		return
	}
	fmt.Printf("Circuit open: %t (since %s)\n", state.State.Open, state.State.ChangedAt.Format(time.RFC3339))
	if state.State.LastError != nil {
		fmt.Printf("  Last error: %s %s\n", state.State.LastError.Code, state.State.LastError.Message)
	}
}
