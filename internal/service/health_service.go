package service

import (
	"context"
	"fmt"

	"localagent/internal/vectorstore"
)

type HealthReport struct {
	Status        string   `json:"status"`
	DocumentCount int64    `json:"document_count"`
	Issues        []string `json:"issues,omitempty"`
}

// HealthService reports whether the service's collaborators are
// usable: vector store reachability plus configured credentials.
type HealthService struct {
	store           vectorstore.Store
	providerKeySet  bool
	webEngineKeySet bool
}

func NewHealthService(store vectorstore.Store, providerKeySet, webEngineKeySet bool) *HealthService {
	return &HealthService{store: store, providerKeySet: providerKeySet, webEngineKeySet: webEngineKeySet}
}

func (s *HealthService) Check(ctx context.Context) *HealthReport {
	report := &HealthReport{Status: "healthy"}
	count, err := s.store.Count(ctx)
	if err != nil {
		report.Issues = append(report.Issues, fmt.Sprintf("vector store unreachable: %v", err))
	} else {
		report.DocumentCount = count
	}
	if !s.providerKeySet {
		report.Issues = append(report.Issues, "embedding provider key not configured")
	}
	if !s.webEngineKeySet {
		report.Issues = append(report.Issues, "no web search engine key configured")
	}
	if len(report.Issues) > 0 {
		report.Status = "degraded"
	}
	return report
}
