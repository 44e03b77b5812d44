package logic

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/quangtn/voicelink/internal/call"
	"github.com/quangtn/voicelink/internal/model"
	"github.com/quangtn/voicelink/internal/repository"
	"github.com/quangtn/voicelink/pkg/logger"
)

// NotifyService pushes call outcomes to configured webhooks. Missed calls
// notify the "missed" hooks; every finished call notifies the "ended" hooks.
type NotifyService struct {
	repo *repository.WebhookRepository
}

func NewNotifyService(repo *repository.WebhookRepository) *NotifyService {
	return &NotifyService{repo: repo}
}

func (s *NotifyService) Dispatch(evt call.EndedEvent) {
	event := "ended"
	if evt.Outcome == call.OutcomeMissed {
		event = "missed"
	}

	webhooks, err := s.repo.FindByEvent(event)
	if err != nil {
		logger.Log.Errorf("Failed to fetch webhooks for event %s: %v", event, err)
		return
	}

	for _, wh := range webhooks {
		go s.sendWebhook(wh, evt)
	}
}

func (s *NotifyService) sendWebhook(wh model.Webhook, evt call.EndedEvent) {
	content := defaultMessage(evt)
	if wh.Template != "" {
		tmpl, err := template.New("msg").Parse(wh.Template)
		if err == nil {
			var buf bytes.Buffer
			if err := tmpl.Execute(&buf, evt); err == nil {
				content = buf.String()
			}
		}
	}

	var payload []byte
	var err error

	switch wh.Platform {
	case "telegram":
		body := map[string]interface{}{
			"text":       content,
			"parse_mode": "Markdown",
		}
		if wh.ChannelID != "" {
			body["chat_id"] = wh.ChannelID
		}
		if strings.Contains(wh.URL, "slack.com") {
			body = map[string]interface{}{"text": content}
		}
		payload, err = json.Marshal(body)

	default:
		body := map[string]interface{}{
			"text": content,
			"call": map[string]interface{}{
				"session_id":   evt.SessionID,
				"peer_id":      evt.PeerID,
				"direction":    evt.Direction,
				"outcome":      evt.Outcome,
				"is_video":     evt.IsVideo,
				"started_at":   evt.StartedAt,
				"ended_at":     evt.EndedAt,
				"talk_seconds": evt.TalkSeconds(),
			},
		}
		payload, err = json.Marshal(body)
	}

	if err != nil {
		logger.Log.Errorf("Failed to marshal webhook payload: %v", err)
		return
	}

	req, err := http.NewRequest("POST", wh.URL, bytes.NewBuffer(payload))
	if err != nil {
		logger.Log.Errorf("Failed to create request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		logger.Log.Errorf("Failed to send webhook to %s: %v", wh.URL, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		logger.Log.Errorf("Webhook %s returned status: %d", wh.URL, resp.StatusCode)
	} else {
		logger.Log.Infof("Webhook sent to %s", wh.URL)
	}
}

func defaultMessage(evt call.EndedEvent) string {
	switch evt.Outcome {
	case call.OutcomeMissed:
		return "Missed call from " + evt.PeerID
	case call.OutcomeCompleted:
		return "Call with " + evt.PeerID + " ended"
	default:
		return "Call with " + evt.PeerID + ": " + evt.Outcome
	}
}
