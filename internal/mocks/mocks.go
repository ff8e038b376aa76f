package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chat-shim/internal/host"
	"chat-shim/internal/models"
	"chat-shim/internal/telemetry"
)

type ChatStoreMock struct {
	mock.Mock
}

func (m *ChatStoreMock) CreateChatRecord(ctx context.Context, id models.ChatID, opts *models.ChatCreationOptions) (*models.ChatRecord, error) {
	args := m.Called(ctx, id, opts)
	var rec *models.ChatRecord
	if val := args.Get(0); val != nil {
		rec = val.(*models.ChatRecord)
	}
	return rec, args.Error(1)
}

func (m *ChatStoreMock) FindChat(ctx context.Context, id models.ChatID) (*models.ChatRecord, error) {
	args := m.Called(ctx, id)
	var rec *models.ChatRecord
	if val := args.Get(0); val != nil {
		rec = val.(*models.ChatRecord)
	}
	return rec, args.Error(1)
}

func (m *ChatStoreMock) GetExistingChat(ctx context.Context, id models.ChatID) (*models.ChatRecord, error) {
	args := m.Called(ctx, id)
	var rec *models.ChatRecord
	if val := args.Get(0); val != nil {
		rec = val.(*models.ChatRecord)
	}
	return rec, args.Error(1)
}

func (m *ChatStoreMock) CreateChat(ctx context.Context, id models.ChatID, opts *models.ChatCreationOptions) (*models.ChatRecord, error) {
	args := m.Called(ctx, id, opts)
	var rec *models.ChatRecord
	if val := args.Get(0); val != nil {
		rec = val.(*models.ChatRecord)
	}
	return rec, args.Error(1)
}

type ContactStoreMock struct {
	mock.Mock
}

func (m *ContactStoreMock) GetContact(ctx context.Context, id models.ChatID) (*models.Contact, error) {
	args := m.Called(ctx, id)
	var contact *models.Contact
	if val := args.Get(0); val != nil {
		contact = val.(*models.Contact)
	}
	return contact, args.Error(1)
}

type LIDMapMock struct {
	mock.Mock
}

func (m *LIDMapMock) ToUserLID(ctx context.Context, id models.ChatID) (models.ChatID, error) {
	args := m.Called(ctx, id)
	var mapped models.ChatID
	if val := args.Get(0); val != nil {
		mapped = val.(models.ChatID)
	}
	return mapped, args.Error(1)
}

func (m *LIDMapMock) CoerceUserLID(ctx context.Context, id models.ChatID) (models.ChatID, error) {
	args := m.Called(ctx, id)
	var mapped models.ChatID
	if val := args.Get(0); val != nil {
		mapped = val.(models.ChatID)
	}
	return mapped, args.Error(1)
}

func (m *LIDMapMock) Capabilities() host.Capabilities {
	args := m.Called()
	var caps host.Capabilities
	if val := args.Get(0); val != nil {
		caps = val.(host.Capabilities)
	}
	return caps
}

type MigrationStateMock struct {
	mock.Mock
}

func (m *MigrationStateMock) IsLIDMigrated(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ host.ChatStore = (*ChatStoreMock)(nil)
var _ host.ContactStore = (*ContactStoreMock)(nil)
var _ host.LIDMap = (*LIDMapMock)(nil)
var _ host.MigrationState = (*MigrationStateMock)(nil)
var _ telemetry.Publisher = (*PublisherMock)(nil)
