package bark

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/xcnya/friend-apply/internal/config"
)

// Service sends iOS push notifications via the Bark API.
type Service struct {
	cfg        config.BarkConfig
	httpClient *http.Client

	mu         sync.Mutex
	lastPushAt map[string]time.Time
	throttleD  time.Duration
}

func New(cfg config.BarkConfig) *Service {
	return &Service{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		lastPushAt: make(map[string]time.Time),
		throttleD:  10 * time.Minute,
	}
}

type pushPayload struct {
	DeviceKey string `json:"device_key"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Group     string `json:"group,omitempty"`
}

// Push sends a Bark notification immediately (no throttle).
func (s *Service) Push(title, body string) error {
	if !s.cfg.Enable || s.cfg.Key == "" {
		return fmt.Errorf("bark not configured")
	}
	serverURL := s.cfg.ServerURL
	if serverURL == "" {
		serverURL = "https://day.app"
	}

	payload := pushPayload{
		DeviceKey: s.cfg.Key,
		Title:     fmt.Sprintf("[友链申请] %s", title),
		Body:      body,
		Group:     "friend-apply",
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Post(serverURL+"/push", "application/json", bytes.NewReader(b))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// ThrottlePush sends a rate-limit alert, at most once per IP+path per window.
func (s *Service) ThrottlePush(ip, path string) {
	if !s.cfg.Enable || s.cfg.Key == "" {
		return
	}

	throttleKey := ip + "|" + path

	s.mu.Lock()
	last, ok := s.lastPushAt[throttleKey]
	if ok && time.Since(last) < s.throttleD {
		s.mu.Unlock()
		return
	}
	s.lastPushAt[throttleKey] = time.Now()
	s.mu.Unlock()

	_ = s.Push("疑似遭到攻击", fmt.Sprintf("IP: %s Path: %s", ip, path))
}
