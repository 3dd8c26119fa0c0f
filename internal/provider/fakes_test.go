package provider

import (
	"context"
	"errors"
	"sync"

	"github.com/attendly/attendly/internal/domain"
)

// fakeProvider is a scriptable Provider for registry and dispatcher tests.
type fakeProvider struct {
	id       string
	typ      domain.ProviderType
	channel  domain.Channel
	priority int
	active   bool
	sendable bool

	mu       sync.Mutex
	sends    int
	succeed  bool
	sendErr  error
	testOK   bool
	source   domain.ConfigSource
}

func (f *fakeProvider) ID() string                  { return f.id }
func (f *fakeProvider) Name() string                { return f.id }
func (f *fakeProvider) Type() domain.ProviderType   { return f.typ }
func (f *fakeProvider) Channel() domain.Channel     { return f.channel }
func (f *fakeProvider) Priority() int               { return f.priority }
func (f *fakeProvider) IsActive() bool              { return f.active }
func (f *fakeProvider) Available() bool             { return true }
func (f *fakeProvider) Source() domain.ConfigSource { return f.source }
func (f *fakeProvider) CanSend(context.Context) bool { return f.sendable }

func (f *fakeProvider) Send(ctx context.Context, msg *domain.Message) (*domain.SendResult, error) {
	return f.SendWithOptions(ctx, msg)
}

func (f *fakeProvider) SendWithOptions(ctx context.Context, msg *domain.Message) (*domain.SendResult, error) {
	f.mu.Lock()
	f.sends++
	f.mu.Unlock()

	if f.sendErr != nil {
		return &domain.SendResult{Success: false, Provider: f.typ, Errors: []string{f.sendErr.Error()}}, f.sendErr
	}
	if !f.succeed {
		err := errors.New("send rejected")
		return &domain.SendResult{Success: false, Provider: f.typ, Errors: []string{err.Error()}}, err
	}
	return &domain.SendResult{Success: true, MessageID: "msg-" + f.id, Provider: f.typ}, nil
}

func (f *fakeProvider) TestConnection(context.Context) bool { return f.testOK }
func (f *fakeProvider) Stats() domain.ProviderStats         { return domain.ProviderStats{} }
func (f *fakeProvider) ResetStats()                         {}

func (f *fakeProvider) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sends
}

// fakeStore is a scriptable ConfigStore for resolver tests.
type fakeStore struct {
	tenant    map[string]*domain.ProviderConfig // key: tenantID "/" type
	global    map[domain.ProviderType]*domain.ProviderConfig
	tenantErr error
	globalErr error

	tenantCalls int
	globalCalls int
}

func (s *fakeStore) TenantConfig(ctx context.Context, tenantID string, ch domain.Channel, pt domain.ProviderType) (*domain.ProviderConfig, error) {
	s.tenantCalls++
	if s.tenantErr != nil {
		return nil, s.tenantErr
	}
	if cfg, ok := s.tenant[tenantID+"/"+string(pt)]; ok {
		c := *cfg
		return &c, nil
	}
	return nil, ErrConfigNotFound
}

func (s *fakeStore) GlobalConfig(ctx context.Context, ch domain.Channel, pt domain.ProviderType) (*domain.ProviderConfig, error) {
	s.globalCalls++
	if s.globalErr != nil {
		return nil, s.globalErr
	}
	if cfg, ok := s.global[pt]; ok {
		c := *cfg
		return &c, nil
	}
	return nil, ErrConfigNotFound
}

func testConfig(pt domain.ProviderType, ch domain.Channel, priority int) domain.ProviderConfig {
	return domain.ProviderConfig{
		ID:       "cfg-" + string(pt),
		Type:     pt,
		Channel:  ch,
		Name:     string(pt),
		Priority: priority,
		IsActive: true,
		Settings: map[string]string{"api_key": "test"},
	}
}
