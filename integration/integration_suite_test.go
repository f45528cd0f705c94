// Package integration contains end-to-end integration tests for VigilGo.
// These tests verify the complete flow from sample ingestion to alert
// creation, and the HTTP API surface against a running server.
package integration

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "VigilGo Integration Suite")
}
