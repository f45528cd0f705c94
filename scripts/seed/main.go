// Command seed populates a running VigilGo instance with example servers,
// alert rules, and a maintenance window via the HTTP API.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"time"
)

func fetchServers() []map[string]interface{} {
	return []map[string]interface{}{
		{
			"organization_id": "org-demo",
			"name":            "web-01",
			"groups":          []string{"web-tier", "us-east"},
		},
		{
			"organization_id": "org-demo",
			"name":            "web-02",
			"groups":          []string{"web-tier", "us-east"},
		},
		{
			"organization_id": "org-demo",
			"name":            "db-01",
			"groups":          []string{"db-tier", "us-east"},
		},
	}
}

func fetchRules() []map[string]interface{} {
	return []map[string]interface{}{
		{
			"organization_id":            "org-demo",
			"name":                       "High CPU",
			"metric_name":                "cpu_usage",
			"operator":                   ">",
			"threshold":                  90,
			"threshold_duration_seconds": 300,
			"severity":                   "high",
			"suppression_rules": map[string]interface{}{
				"rate_limit_minutes":  10,
				"max_alerts_per_hour": 6,
			},
		},
		{
			"organization_id":            "org-demo",
			"name":                       "High Memory",
			"metric_name":                "memory_usage",
			"operator":                   ">",
			"threshold":                  85,
			"threshold_duration_seconds": 300,
			"severity":                   "high",
		},
		{
			"organization_id":            "org-demo",
			"name":                       "Elevated Error Rate",
			"metric_name":                "error_rate",
			"operator":                   ">=",
			"threshold":                  5,
			"threshold_duration_seconds": 60,
			"severity":                   "critical",
		},
		{
			"organization_id":            "org-demo",
			"name":                       "Service Down",
			"metric_name":                "service_status",
			"operator":                   "in",
			"threshold":                  []string{"down", "degraded"},
			"threshold_duration_seconds": 60,
			"severity":                   "critical",
		},
	}
}

func fetchMaintenanceWindows(serverID string) []map[string]interface{} {
	start := time.Now().UTC().Add(24 * time.Hour)
	return []map[string]interface{}{
		{
			"server_id":  serverID,
			"start_time": start.Format(time.RFC3339),
			"end_time":   start.Add(2 * time.Hour).Format(time.RFC3339),
		},
	}
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the VigilGo API")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	var serverIDs []string
	for _, server := range fetchServers() {
		id := post(client, *baseURL+"/v1/servers", server, "server")
		if id != "" {
			serverIDs = append(serverIDs, id)
		}
	}

	for _, rule := range fetchRules() {
		post(client, *baseURL+"/v1/rules", rule, "rule")
	}

	if len(serverIDs) > 0 {
		for _, window := range fetchMaintenanceWindows(serverIDs[0]) {
			post(client, *baseURL+"/v1/maintenance-windows", window, "maintenance window")
		}
	}

	log.Println("Seed data created successfully")
}

// post sends the payload and returns the created entity's ID, or "" on failure.
func post(client *http.Client, url string, payload map[string]interface{}, kind string) string {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Fatalf("Error encoding %s: %s", kind, err)
	}

	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		log.Fatalf("Error creating %s: %s", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		log.Printf("[%s] Error creating %s %q", resp.Status, kind, payload["name"])
		return ""
	}

	var envelope struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		log.Printf("Error decoding response for %s: %s", kind, err)
		return ""
	}

	log.Printf("[%s] %s %q created successfully", resp.Status, kind, payload["name"])
	return envelope.Data.ID
}
