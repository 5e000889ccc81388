package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/cartsync-backend/internal/users"
	"github.com/angelmondragon/cartsync-backend/pkg/types"
)

type stubUserService struct {
	profile   *users.ProfileDTO
	patch     *users.ProfilePatch
	addresses []types.Address
	err       error
}

func (s *stubUserService) GetProfile(context.Context, uuid.UUID) (*users.ProfileDTO, error) {
	return s.profile, s.err
}

func (s *stubUserService) UpdateProfile(_ context.Context, _ uuid.UUID, patch users.ProfilePatch) (*users.ProfileDTO, error) {
	s.patch = &patch
	return s.profile, s.err
}

func (s *stubUserService) ListAddresses(context.Context, uuid.UUID) ([]types.Address, error) {
	return s.addresses, s.err
}

func (s *stubUserService) AddAddress(_ context.Context, _ uuid.UUID, addr types.Address) ([]types.Address, error) {
	s.addresses = append(s.addresses, addr)
	return s.addresses, s.err
}

func TestUserProfile(t *testing.T) {
	userID := uuid.New()
	svc := &stubUserService{profile: &users.ProfileDTO{UserDTO: users.UserDTO{ID: userID, Name: "Ada"}}}

	rec := httptest.NewRecorder()
	UserProfile(svc, nil).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/user/profile", "", userID))

	require.Equal(t, http.StatusOK, rec.Code)
	var profile users.ProfileDTO
	decodeData(t, rec, &profile)
	require.Equal(t, "Ada", profile.Name)
}

func TestUserUpdateProfileKeepsAbsentFields(t *testing.T) {
	svc := &stubUserService{profile: &users.ProfileDTO{}}

	rec := httptest.NewRecorder()
	UserUpdateProfile(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPut, "/api/user/profile", `{"phone":"555-0100"}`, uuid.New()))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.patch)
	require.Nil(t, svc.patch.Name)
	require.Nil(t, svc.patch.Addresses)
	require.Equal(t, "555-0100", *svc.patch.Phone)
}

func TestUserAddAddressCreated(t *testing.T) {
	svc := &stubUserService{}
	body := `{"address":{"street":"1 Main St","city":"Springfield","zipCode":"12345","country":"US"}}`

	rec := httptest.NewRecorder()
	UserAddAddress(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/user/addresses", body, uuid.New()))

	require.Equal(t, http.StatusCreated, rec.Code)
	var addresses []types.Address
	decodeData(t, rec, &addresses)
	require.Len(t, addresses, 1)
	require.Equal(t, "Springfield", addresses[0].City)
}

func TestUserAddAddressRejectsIncomplete(t *testing.T) {
	svc := &stubUserService{}

	rec := httptest.NewRecorder()
	UserAddAddress(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/user/addresses", `{"address":{"city":"Springfield"}}`, uuid.New()))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, svc.addresses)
}
