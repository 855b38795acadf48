package domain

import (
	"strings"
	"time"
)

// StatusFiring is the Alertmanager status of an active alert.
const StatusFiring = "firing"

// Webhook represents an Alertmanager webhook payload (v0.25+ format).
type Webhook struct {
	Receiver          string            `json:"receiver"`
	Status            string            `json:"status"` // "firing" or "resolved"
	Alerts            []Alert           `json:"alerts"`
	GroupLabels       map[string]string `json:"groupLabels"`
	CommonLabels      map[string]string `json:"commonLabels"`
	CommonAnnotations map[string]string `json:"commonAnnotations"`
	ExternalURL       string            `json:"externalURL"`
	Version           string            `json:"version"`
	GroupKey          string            `json:"groupKey"`
	TruncatedAlerts   int64             `json:"truncatedAlerts"`
}

// Alert is a single alert within a webhook payload. Alerts are produced by
// Alertmanager and are read-only to recovery handlers.
type Alert struct {
	Status       string            `json:"status"`
	Labels       map[string]string `json:"labels"`
	Annotations  map[string]string `json:"annotations"`
	StartsAt     time.Time         `json:"startsAt"`
	EndsAt       time.Time         `json:"endsAt"`
	GeneratorURL string            `json:"generatorURL"`
	Fingerprint  string            `json:"fingerprint"`
}

// Firing reports whether the alert is currently firing.
func (a *Alert) Firing() bool {
	return strings.EqualFold(a.Status, StatusFiring)
}

// Name returns the alert name from labels.
func (a *Alert) Name() string {
	return a.Labels["alertname"]
}

// Severity returns the alert severity, defaulting to "unknown".
func (a *Alert) Severity() string {
	if s, ok := a.Labels["severity"]; ok {
		return s
	}
	return "unknown"
}

// WorkflowName returns the failing workflow's name, if labeled.
func (a *Alert) WorkflowName() string {
	return a.Labels["workflow"]
}

// ErrorMessage returns the failure description from annotations.
func (a *Alert) ErrorMessage() string {
	return a.Annotations["description"]
}
