// Package repository holds testify mocks for the repository ports.
package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"gatekeeper/internal/domain/entity"
	domainrepo "gatekeeper/internal/domain/repository"
)

// MockUserRepository is a mock type for the UserRepository type
type MockUserRepository struct {
	mock.Mock
}

// NewMockUserRepository creates a new instance of MockUserRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockUserRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUserRepository {
	m := &MockUserRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (_m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	ret := _m.Called(ctx, id)

	user, _ := ret.Get(0).(*entity.User)

	return user, ret.Error(1)
}

func (_m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	ret := _m.Called(ctx, email)

	user, _ := ret.Get(0).(*entity.User)

	return user, ret.Error(1)
}

func (_m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	ret := _m.Called(ctx, username)

	user, _ := ret.Get(0).(*entity.User)

	return user, ret.Error(1)
}

func (_m *MockUserRepository) Create(ctx context.Context, user *entity.User) error {
	ret := _m.Called(ctx, user)

	return ret.Error(0)
}

// MockTransactionManager runs fn directly against Factory when Execute is
// expected with mock.Anything, mimicking a successful transaction.
type MockTransactionManager struct {
	mock.Mock

	Factory domainrepo.RepositoryFactory
}

// NewMockTransactionManager creates a new instance of MockTransactionManager bound to factory.
func NewMockTransactionManager(t interface {
	mock.TestingT
	Cleanup(func())
}, factory domainrepo.RepositoryFactory) *MockTransactionManager {
	m := &MockTransactionManager{Factory: factory}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (_m *MockTransactionManager) Execute(ctx context.Context, fn func(domainrepo.RepositoryFactory) error) error {
	ret := _m.Called(ctx, fn)
	if err := ret.Error(0); err != nil {
		return err
	}

	return fn(_m.Factory)
}

// StaticFactory returns the same repository for every call.
type StaticFactory struct {
	Users domainrepo.UserRepository
}

func (f StaticFactory) NewUserRepository() domainrepo.UserRepository {
	return f.Users
}
