package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// getBaseURL returns the base URL for API calls.
// Uses VIGIL_BASE_URL env var if set (for container tests),
// otherwise defaults to localhost:8080.
func getBaseURL() string {
	if url := os.Getenv("VIGIL_BASE_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

// httpClient creates an HTTP client with sensible defaults.
func httpClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
	}
}

// doRequest performs an HTTP request and returns the response.
func doRequest(method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(data)
	}

	url := getBaseURL() + path
	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return httpClient().Do(req)
}

// parseResponse parses JSON response into target.
func parseResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

// cleanupTestData removes test data by making DELETE requests.
func cleanupTestData(ruleIDs, serverIDs, windowIDs []string) {
	for _, id := range windowIDs {
		_, _ = doRequest("DELETE", "/v1/maintenance-windows/"+id, nil)
	}
	for _, id := range ruleIDs {
		_, _ = doRequest("DELETE", "/v1/rules/"+id, nil)
	}
	for _, id := range serverIDs {
		_, _ = doRequest("DELETE", "/v1/servers/"+id, nil)
	}
}

var _ = Describe("HTTP API", Ordered, func() {
	var (
		ruleID           string
		serverID         string
		windowID         string
		createdRuleIDs   []string
		createdServerIDs []string
		createdWindowIDs []string
	)

	BeforeAll(func() {
		// Check if the server is reachable
		resp, err := doRequest("GET", "/healthz", nil)
		if err != nil {
			Skip(fmt.Sprintf("Server not reachable at %s: %v", getBaseURL(), err))
		}
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	AfterAll(func() {
		cleanupTestData(createdRuleIDs, createdServerIDs, createdWindowIDs)
	})

	Describe("Health Check", func() {
		It("should return healthy status", func() {
			resp, err := doRequest("GET", "/healthz", nil)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})

	Describe("Servers API", func() {
		It("should register a server", func() {
			payload := map[string]interface{}{
				"organization_id": "org-http-test",
				"name":            "http-test-host",
				"groups":          []string{"http-test-group"},
			}

			resp, err := doRequest("POST", "/v1/servers", payload)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var result map[string]interface{}
			Expect(parseResponse(resp, &result)).To(Succeed())

			data, ok := result["data"].(map[string]interface{})
			Expect(ok).To(BeTrue())
			serverID = data["id"].(string)
			createdServerIDs = append(createdServerIDs, serverID)

			Expect(data["name"]).To(Equal("http-test-host"))
		})

		It("should reject a server without a name", func() {
			payload := map[string]interface{}{
				"organization_id": "org-http-test",
			}

			resp, err := doRequest("POST", "/v1/servers", payload)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Rules API", func() {
		It("should create a rule", func() {
			payload := map[string]interface{}{
				"organization_id":            "org-http-test",
				"name":                       "HTTP Test High CPU",
				"metric_name":                "cpu_usage",
				"operator":                   ">",
				"threshold":                  90,
				"threshold_duration_seconds": 300,
				"severity":                   "high",
			}

			resp, err := doRequest("POST", "/v1/rules", payload)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var result map[string]interface{}
			Expect(parseResponse(resp, &result)).To(Succeed())

			data := result["data"].(map[string]interface{})
			ruleID = data["id"].(string)
			createdRuleIDs = append(createdRuleIDs, ruleID)

			Expect(data["name"]).To(Equal("HTTP Test High CPU"))
			Expect(data["enabled"]).To(BeTrue())
		})

		It("should reject a rule whose threshold does not match the operator", func() {
			payload := map[string]interface{}{
				"organization_id":            "org-http-test",
				"name":                       "Broken Rule",
				"metric_name":                "cpu_usage",
				"operator":                   ">",
				"threshold":                  "very high",
				"threshold_duration_seconds": 300,
				"severity":                   "high",
			}

			resp, err := doRequest("POST", "/v1/rules", payload)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("should get the created rule", func() {
			resp, err := doRequest("GET", "/v1/rules/"+ruleID, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result map[string]interface{}
			Expect(parseResponse(resp, &result)).To(Succeed())

			data := result["data"].(map[string]interface{})
			Expect(data["metric_name"]).To(Equal("cpu_usage"))
		})

		It("should update the rule", func() {
			payload := map[string]interface{}{
				"name":                       "HTTP Test High CPU v2",
				"metric_name":                "cpu_usage",
				"operator":                   ">=",
				"threshold":                  95,
				"threshold_duration_seconds": 120,
				"severity":                   "critical",
			}

			resp, err := doRequest("PUT", "/v1/rules/"+ruleID, payload)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result map[string]interface{}
			Expect(parseResponse(resp, &result)).To(Succeed())

			data := result["data"].(map[string]interface{})
			Expect(data["severity"]).To(Equal("critical"))
		})

		It("should list rules scoped by organization", func() {
			resp, err := doRequest("GET", "/v1/rules?organization_id=org-http-test", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result map[string]interface{}
			Expect(parseResponse(resp, &result)).To(Succeed())

			data := result["data"].([]interface{})
			Expect(len(data)).To(BeNumerically(">=", 1))
		})

		It("should return 404 for a missing rule", func() {
			resp, err := doRequest("GET", "/v1/rules/does-not-exist", nil)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("Maintenance Windows API", func() {
		It("should create a maintenance window", func() {
			start := time.Now().UTC().Add(time.Hour)
			payload := map[string]interface{}{
				"server_id":  serverID,
				"start_time": start.Format(time.RFC3339),
				"end_time":   start.Add(2 * time.Hour).Format(time.RFC3339),
			}

			resp, err := doRequest("POST", "/v1/maintenance-windows", payload)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var result map[string]interface{}
			Expect(parseResponse(resp, &result)).To(Succeed())

			data := result["data"].(map[string]interface{})
			windowID = data["id"].(string)
			createdWindowIDs = append(createdWindowIDs, windowID)
		})

		It("should reject a window that ends before it starts", func() {
			start := time.Now().UTC()
			payload := map[string]interface{}{
				"server_id":  serverID,
				"start_time": start.Format(time.RFC3339),
				"end_time":   start.Add(-time.Hour).Format(time.RFC3339),
			}

			resp, err := doRequest("POST", "/v1/maintenance-windows", payload)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Samples API", func() {
		It("should accept a batch of samples", func() {
			payload := map[string]interface{}{
				"samples": []map[string]interface{}{
					{
						"server_id":       serverID,
						"organization_id": "org-http-test",
						"metric_name":     "cpu_usage",
						"value":           42.0,
						"timestamp":       time.Now().UTC().Format(time.RFC3339),
					},
				},
			}

			resp, err := doRequest("POST", "/v1/samples", payload)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusAccepted))
		})

		It("should reject an empty batch", func() {
			payload := map[string]interface{}{
				"samples": []map[string]interface{}{},
			}

			resp, err := doRequest("POST", "/v1/samples", payload)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Alerts API", func() {
		It("should list alerts", func() {
			resp, err := doRequest("GET", "/v1/alerts?organization_id=org-http-test", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result map[string]interface{}
			Expect(parseResponse(resp, &result)).To(Succeed())
			Expect(result["success"]).To(BeTrue())
		})

		It("should return 404 for a missing alert", func() {
			resp, err := doRequest("GET", "/v1/alerts/does-not-exist", nil)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})
})
