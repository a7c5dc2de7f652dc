package user

import "context"

type MockService struct {
	CreateFunc func(ctx context.Context, req CreateUserRequest) (User, error)
	GetFunc    func(ctx context.Context, username string) (User, error)
	DeleteFunc func(ctx context.Context, username string) error
	LoginFunc  func(ctx context.Context, username, password string) (User, error)
}

func NewMockService() MockService {
	return MockService{
		CreateFunc: func(ctx context.Context, req CreateUserRequest) (User, error) { return User{}, nil },
		GetFunc:    func(ctx context.Context, username string) (User, error) { return User{}, nil },
		DeleteFunc: func(ctx context.Context, username string) error { return nil },
		LoginFunc:  func(ctx context.Context, username, password string) (User, error) { return User{}, nil },
	}
}

func (s *MockService) Create(ctx context.Context, req CreateUserRequest) (User, error) {
	return s.CreateFunc(ctx, req)
}

func (s *MockService) Get(ctx context.Context, username string) (User, error) {
	return s.GetFunc(ctx, username)
}

func (s *MockService) Delete(ctx context.Context, username string) error {
	return s.DeleteFunc(ctx, username)
}

func (s *MockService) Login(ctx context.Context, username, password string) (User, error) {
	return s.LoginFunc(ctx, username, password)
}
