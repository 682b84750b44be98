package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/domain"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/events"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/storage"
	"github.com/google/uuid"
)

// Defaults used before the owner edits their profile
const (
	DefaultProfileName   = "用户"
	DefaultProfileAvatar = "👤"
	DefaultFamilyName    = "我的家庭"
)

// ProfileService handles the owner profile and the family group
type ProfileService struct {
	store     *storage.Adapter
	publisher events.Publisher
	now       func() time.Time
}

// NewProfileService creates a new ProfileService
func NewProfileService(store *storage.Adapter, publisher events.Publisher) *ProfileService {
	if publisher == nil {
		publisher = events.NoOpPublisher{}
	}
	return &ProfileService{store: store, publisher: publisher, now: time.Now}
}

// UpdateProfileInput holds the editable profile fields; nil fields are kept
type UpdateProfileInput struct {
	Name   *string
	Email  *string
	Avatar *string
}

// InviteMemberInput holds the input for inviting a family member
type InviteMemberInput struct {
	Email string
	Name  string
}

// UpdateMemberInput holds the editable member fields
type UpdateMemberInput struct {
	Name string
	Role domain.MemberRole
}

func (s *ProfileService) defaultProfile() domain.UserProfile {
	avatar := DefaultProfileAvatar
	return domain.UserProfile{
		ID:        "u_" + uuid.NewString(),
		Name:      DefaultProfileName,
		Avatar:    &avatar,
		CreatedAt: s.now().UTC(),
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", domain.ErrEmailRequired
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", domain.ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}

// newInviteCode returns a code shaped like SHARE-1A2B-3C4D-5E6F
func newInviteCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("SHARE-%s-%s-%s", raw[0:4], raw[4:8], raw[8:12])
}

// loadProfile reads the profile inside an update, creating the default one
// when none is stored yet
func (s *ProfileService) loadProfile(tx *storage.Tx) (domain.UserProfile, error) {
	profile, err := storage.ReadObject[domain.UserProfile](tx, domain.KeyUserProfile)
	if errors.Is(err, domain.ErrNotFound) {
		created := s.defaultProfile()
		if err := storage.WriteObject(tx, domain.KeyUserProfile, created); err != nil {
			return domain.UserProfile{}, err
		}
		return created, nil
	}
	if err != nil {
		return domain.UserProfile{}, err
	}
	return *profile, nil
}

// GetProfile returns the owner profile, creating a default one on first use
func (s *ProfileService) GetProfile(ctx context.Context) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	err := s.store.Update(ctx, []string{domain.KeyUserProfile}, func(tx *storage.Tx) error {
		var err error
		profile, err = s.loadProfile(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile changes the owner's name, email or avatar
func (s *ProfileService) UpdateProfile(ctx context.Context, input UpdateProfileInput) (*domain.UserProfile, error) {
	var name string
	if input.Name != nil {
		var err error
		if name, err = validateName(*input.Name); err != nil {
			return nil, err
		}
	}

	var email string
	if input.Email != nil && strings.TrimSpace(*input.Email) != "" {
		var err error
		if email, err = normalizeEmail(*input.Email); err != nil {
			return nil, err
		}
	}

	var profile domain.UserProfile
	err := s.store.Update(ctx, []string{domain.KeyUserProfile}, func(tx *storage.Tx) error {
		var err error
		profile, err = s.loadProfile(tx)
		if err != nil {
			return err
		}

		if input.Name != nil {
			profile.Name = name
		}
		if input.Email != nil {
			if email == "" {
				profile.Email = nil
			} else {
				profile.Email = &email
			}
		}
		if input.Avatar != nil {
			avatar := strings.TrimSpace(*input.Avatar)
			profile.Avatar = &avatar
		}
		return storage.WriteObject(tx, domain.KeyUserProfile, profile)
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetFamily returns the family group. The first call creates it with the
// owner as its only admin.
func (s *ProfileService) GetFamily(ctx context.Context) (*domain.FamilySharing, error) {
	family, err := storage.GetObject[domain.FamilySharing](ctx, s.store, domain.KeyFamilySharing)
	if !errors.Is(err, domain.ErrNotFound) {
		return family, err
	}

	var created domain.FamilySharing
	err = s.updateFamily(ctx, func(f *domain.FamilySharing) error {
		created = *f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// InviteMember adds a member with the member role
func (s *ProfileService) InviteMember(ctx context.Context, input InviteMemberInput) (*domain.FamilyMember, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	if len(name) > domain.MaxNameLength {
		return nil, domain.ErrNameTooLong
	}

	member := domain.FamilyMember{
		ID:    "m_" + uuid.NewString(),
		Name:  name,
		Email: &email,
		Role:  domain.MemberRoleMember,
	}

	err = s.updateFamily(ctx, func(f *domain.FamilySharing) error {
		for _, m := range f.Members {
			if m.Email != nil && *m.Email == email {
				return fmt.Errorf("member %s: %w", email, domain.ErrAlreadyExists)
			}
		}
		f.Members = append(f.Members, member)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// UpdateMember changes a member's name and role. The group always keeps at
// least one admin.
func (s *ProfileService) UpdateMember(ctx context.Context, id string, input UpdateMemberInput) (*domain.FamilyMember, error) {
	name, err := validateName(input.Name)
	if err != nil {
		return nil, err
	}
	if !input.Role.IsValid() {
		return nil, domain.ErrInvalidRole
	}

	var updated domain.FamilyMember
	err = s.updateFamily(ctx, func(f *domain.FamilySharing) error {
		for i := range f.Members {
			if f.Members[i].ID != id {
				continue
			}
			if f.Members[i].Role == domain.MemberRoleAdmin && input.Role != domain.MemberRoleAdmin && f.AdminCount() == 1 {
				return domain.ErrLastAdmin
			}
			f.Members[i].Name = name
			f.Members[i].Role = input.Role
			updated = f.Members[i]
			return nil
		}
		return domain.ErrMemberNotFound
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// RemoveMember removes a member from the group
func (s *ProfileService) RemoveMember(ctx context.Context, id string) error {
	return s.updateFamily(ctx, func(f *domain.FamilySharing) error {
		for i, m := range f.Members {
			if m.ID != id {
				continue
			}
			if m.Role == domain.MemberRoleAdmin && f.AdminCount() == 1 {
				return domain.ErrLastAdmin
			}
			f.Members = append(f.Members[:i], f.Members[i+1:]...)
			return nil
		}
		return domain.ErrMemberNotFound
	})
}

// updateFamily loads or creates the family group, applies fn and stores the
// result. Nothing is written when fn fails.
func (s *ProfileService) updateFamily(ctx context.Context, fn func(f *domain.FamilySharing) error) error {
	var family domain.FamilySharing
	err := s.store.Update(ctx, []string{domain.KeyUserProfile, domain.KeyFamilySharing}, func(tx *storage.Tx) error {
		current, err := storage.ReadObject[domain.FamilySharing](tx, domain.KeyFamilySharing)
		switch {
		case err == nil:
			family = *current
		case errors.Is(err, domain.ErrNotFound):
			owner, err := s.loadProfile(tx)
			if err != nil {
				return err
			}
			family = domain.FamilySharing{
				ID:         "f_" + uuid.NewString(),
				Name:       DefaultFamilyName,
				InviteCode: newInviteCode(),
				Members: []domain.FamilyMember{{
					ID:     owner.ID,
					Name:   owner.Name,
					Email:  owner.Email,
					Avatar: owner.Avatar,
					Role:   domain.MemberRoleAdmin,
				}},
				CreatedAt: s.now().UTC(),
			}
		default:
			return err
		}

		if err := fn(&family); err != nil {
			return err
		}
		return storage.WriteObject(tx, domain.KeyFamilySharing, family)
	})
	if err != nil {
		return err
	}

	s.publisher.Publish(ctx, events.NewEvent(events.EventTypeUpdated, events.EntityTypeFamily, family))
	return nil
}
