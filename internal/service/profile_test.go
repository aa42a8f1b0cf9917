package service

import (
	"context"
	"errors"
	"html"
	"strings"
	"testing"

	"github.com/forgo/campusfeed/internal/authz"
	"github.com/forgo/campusfeed/internal/model"
	"github.com/forgo/campusfeed/internal/storage"
)

func newTestProfileService() (*ProfileService, *mockAccountRepo, *mockBlobStore) {
	repo := newMockAccountRepo()
	blobs := &mockBlobStore{}
	svc := NewProfileService(ProfileServiceConfig{
		Accounts:       repo,
		Blobs:          blobs,
		MaxUploadBytes: 1024,
	})
	return svc, repo, blobs
}

func TestGetProfile(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestProfileService()
	repo.seed("account:1", "ana@alumno.etec.um.edu.ar", model.RoleUser)

	view, err := svc.GetProfile(context.Background(), "account:1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.ID != "account:1" {
		t.Errorf("unexpected id %q", view.ID)
	}

	if _, err := svc.GetProfile(context.Background(), "account:2"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestUpdateProfile_BioEscapedForUsers(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestProfileService()
	repo.seed("account:1", "ana@alumno.etec.um.edu.ar", model.RoleUser)

	bio := `<img src=x onerror="alert(1)"> & more`
	view, err := svc.UpdateProfile(context.Background(),
		authz.Principal{AccountID: "account:1", Role: model.RoleUser},
		ProfileUpdate{Bio: &bio})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if view.Bio == nil || strings.ContainsAny(*view.Bio, "<>") {
		t.Fatalf("expected escaped bio, got %v", view.Bio)
	}
	if html.UnescapeString(*view.Bio) != bio {
		t.Errorf("escaping should round trip, got %q", *view.Bio)
	}
}

func TestUpdateProfile_BioRawForPrivileged(t *testing.T) {
	t.Parallel()

	for _, role := range []model.Role{model.RoleModerator, model.RoleAdmin} {
		svc, repo, _ := newTestProfileService()
		repo.seed("account:1", "mod@alumno.etec.um.edu.ar", role)

		bio := "<b>staff</b>"
		view, err := svc.UpdateProfile(context.Background(),
			authz.Principal{AccountID: "account:1", Role: role},
			ProfileUpdate{Bio: &bio})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", role, err)
		}
		if view.Bio == nil || *view.Bio != bio {
			t.Errorf("%s: expected raw bio, got %v", role, view.Bio)
		}
	}
}

func TestUpdateProfile_PartialLeavesOtherFields(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestProfileService()
	acc := repo.seed("account:1", "ana@alumno.etec.um.edu.ar", model.RoleUser)
	acc.Bio = strPtr("old bio")

	view, err := svc.UpdateProfile(context.Background(),
		authz.Principal{AccountID: "account:1", Role: model.RoleUser},
		ProfileUpdate{Username: strPtr("  new name ")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Username != "new name" {
		t.Errorf("expected username updated, got %q", view.Username)
	}
	if view.Bio == nil || *view.Bio != "old bio" {
		t.Errorf("bio should be unchanged, got %v", view.Bio)
	}
	if view.Role != model.RoleUser {
		t.Errorf("role must never change through profile update, got %q", view.Role)
	}
}

func TestUpdateProfile_EmptyUpdateIsRead(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestProfileService()
	repo.seed("account:1", "ana@alumno.etec.um.edu.ar", model.RoleUser)

	if _, err := svc.UpdateProfile(context.Background(),
		authz.Principal{AccountID: "account:1", Role: model.RoleUser}, ProfileUpdate{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.updates != 0 {
		t.Errorf("expected no writes, got %d", repo.updates)
	}
}

func TestUpdateProfile_Validation(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestProfileService()
	repo.seed("account:1", "ana@alumno.etec.um.edu.ar", model.RoleUser)
	p := authz.Principal{AccountID: "account:1", Role: model.RoleUser}

	long := strings.Repeat("b", model.MaxBioLength+1)
	if _, err := svc.UpdateProfile(context.Background(), p, ProfileUpdate{Bio: &long}); !errors.Is(err, ErrBioTooLong) {
		t.Errorf("expected ErrBioTooLong, got %v", err)
	}

	blank := "  "
	if _, err := svc.UpdateProfile(context.Background(), p, ProfileUpdate{Username: &blank}); !errors.Is(err, ErrUsernameInvalid) {
		t.Errorf("expected ErrUsernameInvalid, got %v", err)
	}

	notImage := &Upload{Data: []byte("#!/bin/sh\necho hi\n")}
	if _, err := svc.UpdateProfile(context.Background(), p, ProfileUpdate{Avatar: notImage}); !errors.Is(err, ErrUploadType) {
		t.Errorf("expected ErrUploadType, got %v", err)
	}

	huge := &Upload{Data: make([]byte, 2048)}
	if _, err := svc.UpdateProfile(context.Background(), p, ProfileUpdate{Banner: huge}); !errors.Is(err, ErrUploadTooLarge) {
		t.Errorf("expected ErrUploadTooLarge, got %v", err)
	}

	if repo.updates != 0 {
		t.Errorf("rejected updates must not write, got %d writes", repo.updates)
	}
}

func TestUpdateProfile_UploadsStoredFirst(t *testing.T) {
	t.Parallel()

	svc, repo, blobs := newTestProfileService()
	repo.seed("account:1", "ana@alumno.etec.um.edu.ar", model.RoleUser)

	view, err := svc.UpdateProfile(context.Background(),
		authz.Principal{AccountID: "account:1", Role: model.RoleUser},
		ProfileUpdate{Avatar: &Upload{Data: testPNG}, Banner: &Upload{Data: testPNG}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(blobs.keys) != 2 {
		t.Fatalf("expected two uploads, got %v", blobs.keys)
	}
	if !strings.HasPrefix(blobs.keys[0], "avatars/account_1-avatar-") || !strings.HasSuffix(blobs.keys[0], ".png") {
		t.Errorf("unexpected avatar key %q", blobs.keys[0])
	}
	if !strings.HasPrefix(blobs.keys[1], "banners/account_1-banner-") {
		t.Errorf("unexpected banner key %q", blobs.keys[1])
	}
	if view.Avatar == nil || *view.Avatar != "https://cdn.test/"+blobs.keys[0] {
		t.Errorf("avatar URL not stored, got %v", view.Avatar)
	}
}

func TestUpdateProfile_StorageFailureAborts(t *testing.T) {
	t.Parallel()

	svc, repo, blobs := newTestProfileService()
	repo.seed("account:1", "ana@alumno.etec.um.edu.ar", model.RoleUser)
	blobs.err = errors.New("s3: 503 slow down")

	bio := "new bio"
	_, err := svc.UpdateProfile(context.Background(),
		authz.Principal{AccountID: "account:1", Role: model.RoleUser},
		ProfileUpdate{Bio: &bio, Avatar: &Upload{Data: testPNG}})
	if !errors.Is(err, storage.ErrStorage) {
		t.Fatalf("expected storage.ErrStorage, got %v", err)
	}
	if repo.updates != 0 {
		t.Error("row must not be written after a failed upload")
	}
}

func TestUpdateProfile_MissingAccount(t *testing.T) {
	t.Parallel()

	svc, _, blobs := newTestProfileService()

	bio := "x"
	_, err := svc.UpdateProfile(context.Background(),
		authz.Principal{AccountID: "account:9", Role: model.RoleUser},
		ProfileUpdate{Bio: &bio, Avatar: &Upload{Data: testPNG}})
	if !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
	if len(blobs.keys) != 0 {
		t.Errorf("expected no uploads for a missing account, got %v", blobs.keys)
	}
}
