// Package service holds testify mocks for the domain service ports.
package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gatekeeper/internal/domain/entity"
	domainservice "gatekeeper/internal/domain/service"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockPasswordHasher is a mock type for the PasswordHasher type
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a new instance of MockPasswordHasher.
func NewMockPasswordHasher(t testingT) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (_m *MockPasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	ret := _m.Called(ctx, password)

	return ret.String(0), ret.Error(1)
}

func (_m *MockPasswordHasher) Check(ctx context.Context, password, hash string) (bool, error) {
	ret := _m.Called(ctx, password, hash)

	return ret.Bool(0), ret.Error(1)
}

// MockTokenService is a mock type for the TokenService type
type MockTokenService struct {
	mock.Mock
}

// NewMockTokenService creates a new instance of MockTokenService.
func NewMockTokenService(t testingT) *MockTokenService {
	m := &MockTokenService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (_m *MockTokenService) Mint(kind entity.TokenKind, subject string) (string, error) {
	ret := _m.Called(kind, subject)

	return ret.String(0), ret.Error(1)
}

func (_m *MockTokenService) Verify(token string, kind entity.TokenKind) (string, error) {
	ret := _m.Called(token, kind)

	return ret.String(0), ret.Error(1)
}

func (_m *MockTokenService) Refresh(refreshToken string) (string, error) {
	ret := _m.Called(refreshToken)

	return ret.String(0), ret.Error(1)
}

// MockRateLimiter is a mock type for the RateLimiter type
type MockRateLimiter struct {
	mock.Mock
}

// NewMockRateLimiter creates a new instance of MockRateLimiter.
func NewMockRateLimiter(t testingT) *MockRateLimiter {
	m := &MockRateLimiter{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (_m *MockRateLimiter) Allow(ctx context.Context, key string, policy domainservice.RateLimitPolicy) (domainservice.RateLimitDecision, error) {
	ret := _m.Called(ctx, key, policy)

	decision, _ := ret.Get(0).(domainservice.RateLimitDecision)

	return decision, ret.Error(1)
}
