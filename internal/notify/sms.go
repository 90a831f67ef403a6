// Package notify sends guardian SMS notifications through an HTTP gateway.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/kozaktomas/rollcall/internal/attendance"
	"github.com/kozaktomas/rollcall/internal/database"
)

// Notifier delivers attendance messages to guardians.
type Notifier interface {
	Send(ctx context.Context, phone, message string) error
}

// SMSClient sends messages through an HTTP SMS gateway.
type SMSClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewSMSClient creates a new SMS gateway client.
func NewSMSClient(baseURL, apiKey string) *SMSClient {
	return &SMSClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// smsRequest represents the gateway request body.
type smsRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// Send posts one message to the gateway.
func (c *SMSClient) Send(ctx context.Context, phone, message string) error {
	if phone == "" {
		return errors.New("empty phone number")
	}

	reqBody, err := json.Marshal(smsRequest{To: phone, Message: message})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sms/send", bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway error (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}

// NopNotifier discards all messages. Used when no gateway is configured.
type NopNotifier struct{}

func (NopNotifier) Send(context.Context, string, string) error { return nil }

// RenderTemplate fills the {{placeholder}} slots of a message template.
func RenderTemplate(template string, fields map[string]string) string {
	pairs := make([]string, 0, len(fields)*2)
	for k, v := range fields {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// MessageFields builds the template substitutions for one student and session time.
func MessageFields(s *database.Student, at time.Time, school string) map[string]string {
	return map[string]string{
		"student": s.FullName(),
		"date":    at.Format("January 2, 2006"),
		"time":    at.Format("3:04 PM"),
		"grade":   s.Grade,
		"section": s.Section,
		"school":  school,
	}
}

// Guardian notifies guardians about ABSENT and LATE students after an
// attendance session has been saved.
type Guardian struct {
	notifier  Notifier
	templates map[string]string
	school    string
}

// NewGuardian creates a guardian notifier. templates maps status names
// ("absent", "late") to message bodies.
func NewGuardian(notifier Notifier, templates map[string]string, school string) *Guardian {
	return &Guardian{notifier: notifier, templates: templates, school: school}
}

// NotifySession sends one message per ABSENT or LATE student with a guardian
// phone on file. Delivery failures are logged and do not fail the session;
// attendance is already saved at this point.
func (g *Guardian) NotifySession(ctx context.Context, students []database.Student, statuses map[string]attendance.Status, at time.Time) int {
	sent := 0
	for i := range students {
		s := &students[i]

		var template string
		switch statuses[s.ID] {
		case attendance.Absent:
			template = g.templates["absent"]
		case attendance.Late:
			template = g.templates["late"]
		default:
			continue
		}

		if s.GuardianPhone == "" || template == "" {
			continue
		}

		message := RenderTemplate(template, MessageFields(s, at, g.school))
		if err := g.notifier.Send(ctx, s.GuardianPhone, message); err != nil {
			log.Printf("sms to guardian of %s failed: %v", s.FullName(), err)
			continue
		}
		sent++
	}
	return sent
}
