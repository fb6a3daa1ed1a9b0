package service

import (
	"context"
	"testing"

	"toolcrib/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserFixture(t *testing.T) (UserService, *fakeUserRepo, *fakeAuditRepo) {
	t.Helper()
	userRepo := newFakeUserRepo()
	auditRepo := &fakeAuditRepo{}
	svc := NewUserService(userRepo, &fakeRoleRepo{}, auditRepo, fakeTxManager{})
	return svc, userRepo, auditRepo
}

func TestDeleteUserWritesAuditEntry(t *testing.T) {
	svc, userRepo, auditRepo := newUserFixture(t)
	ctx := context.Background()

	id := userRepo.add(model.User{Username: "torres", Email: "torres@example.com", IsActive: true})

	require.NoError(t, svc.DeleteUser(ctx, uuid.NewString(), id.String()))

	_, err := userRepo.GetByID(ctx, id)
	assert.Error(t, err)

	require.NotEmpty(t, auditRepo.entries)
	entry := auditRepo.entries[len(auditRepo.entries)-1]
	assert.Equal(t, model.ActionDeleteUser, entry.Action)
	assert.Equal(t, id.String(), entry.EntityID)
	assert.Equal(t, "torres", entry.EntityName)
}

func TestDeleteUserUnknown(t *testing.T) {
	svc, _, auditRepo := newUserFixture(t)

	err := svc.DeleteUser(context.Background(), uuid.NewString(), uuid.NewString())
	assert.ErrorContains(t, err, "user not found")
	assert.Empty(t, auditRepo.entries)
}
