package payment

import "context"

// MockGateway is a configurable Gateway stub for tests.
type MockGateway struct {
	Intent *Intent
	Err    error

	Calls    int
	LastReq  IntentRequest
	CreateFn func(ctx context.Context, req IntentRequest) (*Intent, error)
}

// NewMockGateway returns a mock that succeeds by default.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		Intent: &Intent{ID: "pi_mock", Status: "succeeded", ClientSecret: "pi_mock_secret"},
	}
}

func (m *MockGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	m.Calls++
	m.LastReq = req
	if m.CreateFn != nil {
		return m.CreateFn(ctx, req)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Intent, nil
}

var _ Gateway = (*MockGateway)(nil)
