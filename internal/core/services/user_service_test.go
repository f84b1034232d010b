package services

import (
	"context"
	"testing"

	"medask-forum/internal/adapters/persistence/models"
	"medask-forum/internal/core/domain"
	"medask-forum/internal/pkg/password"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserTestEnv() (*memStore, *UserService) {
	s := newMemStore()
	return s, NewUserService(&memUserRepo{s: s})
}

func TestUpdateUserByAdminRoles(t *testing.T) {
	s, svc := newUserTestEnv()
	admin := s.addUser(models.User{Username: "root", Email: "root@example.com", Roles: "ADMIN", IsActive: true})
	user := s.addUser(models.User{Username: "alice", Email: "alice@example.com", Roles: "PARTICIPANT", IsActive: true})

	got, err := svc.UpdateUserByAdmin(context.Background(), user.ID, admin.ID, &UpdateUserByAdminInput{
		Roles: []string{"PARTICIPANT", "EXPERT"},
	})
	require.NoError(t, err)
	assert.Contains(t, got.Roles, domain.RoleExpert)

	stored := s.users[user.ID]
	assert.Equal(t, "PARTICIPANT,EXPERT", stored.Roles)
}

func TestUpdateUserByAdminRejectsUnknownRole(t *testing.T) {
	s, svc := newUserTestEnv()
	admin := s.addUser(models.User{Username: "root", Email: "root@example.com", Roles: "ADMIN", IsActive: true})
	user := s.addUser(models.User{Username: "alice", Email: "alice@example.com", Roles: "PARTICIPANT", IsActive: true})

	_, err := svc.UpdateUserByAdmin(context.Background(), user.ID, admin.ID, &UpdateUserByAdminInput{
		Roles: []string{"SUPERUSER"},
	})
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestAdminCannotChangeOwnRoles(t *testing.T) {
	s, svc := newUserTestEnv()
	admin := s.addUser(models.User{Username: "root", Email: "root@example.com", Roles: "ADMIN", IsActive: true})

	_, err := svc.UpdateUserByAdmin(context.Background(), admin.ID, admin.ID, &UpdateUserByAdminInput{
		Roles: []string{"PARTICIPANT"},
	})
	assert.ErrorIs(t, err, ErrCannotChangeOwnRoles)
}

func TestDeactivateUserBlocksSelf(t *testing.T) {
	s, svc := newUserTestEnv()
	admin := s.addUser(models.User{Username: "root", Email: "root@example.com", Roles: "ADMIN", IsActive: true})
	user := s.addUser(models.User{Username: "alice", Email: "alice@example.com", Roles: "PARTICIPANT", IsActive: true})

	assert.ErrorIs(t, svc.DeactivateUser(context.Background(), admin.ID, admin.ID), ErrCannotDeleteSelf)
	require.NoError(t, svc.DeactivateUser(context.Background(), user.ID, admin.ID))

	_, exists := s.users[user.ID]
	assert.False(t, exists)
}

func TestUpdateProfileEmailUniqueness(t *testing.T) {
	s, svc := newUserTestEnv()
	s.addUser(models.User{Username: "bob", Email: "bob@example.com", Roles: "PARTICIPANT", IsActive: true})
	user := s.addUser(models.User{Username: "alice", Email: "alice@example.com", Roles: "PARTICIPANT", IsActive: true})

	taken := "bob@example.com"
	_, err := svc.UpdateProfile(context.Background(), user.ID, &UpdateProfileInput{Email: &taken})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)

	free := "alice2@example.com"
	got, err := svc.UpdateProfile(context.Background(), user.ID, &UpdateProfileInput{Email: &free})
	require.NoError(t, err)
	assert.Equal(t, free, got.Email)
}

func TestChangePassword(t *testing.T) {
	s, svc := newUserTestEnv()
	hash, err := password.Hash("oldpassword1")
	require.NoError(t, err)
	user := s.addUser(models.User{Username: "alice", Email: "alice@example.com", Password: hash, Roles: "PARTICIPANT", IsActive: true})

	err = svc.ChangePassword(context.Background(), user.ID, &ChangePasswordInput{
		OldPassword: "wrongpassword",
		NewPassword: "newpassword1",
	})
	assert.ErrorIs(t, err, ErrOldPasswordWrong)

	err = svc.ChangePassword(context.Background(), user.ID, &ChangePasswordInput{
		OldPassword: "oldpassword1",
		NewPassword: "short",
	})
	assert.ErrorIs(t, err, ErrWeakPassword)

	err = svc.ChangePassword(context.Background(), user.ID, &ChangePasswordInput{
		OldPassword: "oldpassword1",
		NewPassword: "newpassword1",
	})
	require.NoError(t, err)

	stored := s.users[user.ID]
	assert.True(t, password.Verify("newpassword1", stored.Password))
}

func TestListExperts(t *testing.T) {
	s, svc := newUserTestEnv()
	s.addUser(models.User{Username: "alice", Email: "alice@example.com", Roles: "PARTICIPANT", IsActive: true})
	s.addUser(models.User{Username: "dr.bob", Email: "bob@example.com", Roles: "PARTICIPANT,EXPERT", IsActive: true})

	experts, err := svc.ListExperts(context.Background())
	require.NoError(t, err)
	require.Len(t, experts, 1)
	assert.Equal(t, "dr.bob", experts[0].Username)
}
