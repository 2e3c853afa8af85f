// Package usecase holds testify mocks for the usecase ports.
package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gatekeeper/internal/domain/entity"
	"gatekeeper/internal/usecase"
)

// MockAuthUsecase is a mock type for the AuthUsecase type
type MockAuthUsecase struct {
	mock.Mock
}

// NewMockAuthUsecase creates a new instance of MockAuthUsecase.
func NewMockAuthUsecase(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAuthUsecase {
	m := &MockAuthUsecase{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (_m *MockAuthUsecase) Register(ctx context.Context, input usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	ret := _m.Called(ctx, input)

	out, _ := ret.Get(0).(*usecase.RegisterOutput)

	return out, ret.Error(1)
}

func (_m *MockAuthUsecase) Authenticate(ctx context.Context, input usecase.LoginInput) (*usecase.LoginOutput, error) {
	ret := _m.Called(ctx, input)

	out, _ := ret.Get(0).(*usecase.LoginOutput)

	return out, ret.Error(1)
}

func (_m *MockAuthUsecase) IssueTokenPair(user *entity.User) (*entity.TokenPair, error) {
	ret := _m.Called(user)

	pair, _ := ret.Get(0).(*entity.TokenPair)

	return pair, ret.Error(1)
}

func (_m *MockAuthUsecase) RefreshAccessToken(ctx context.Context, input usecase.RefreshInput) (*usecase.RefreshOutput, error) {
	ret := _m.Called(ctx, input)

	out, _ := ret.Get(0).(*usecase.RefreshOutput)

	return out, ret.Error(1)
}

func (_m *MockAuthUsecase) ResolveCurrentUser(ctx context.Context, accessToken string) (*entity.User, error) {
	ret := _m.Called(ctx, accessToken)

	user, _ := ret.Get(0).(*entity.User)

	return user, ret.Error(1)
}
