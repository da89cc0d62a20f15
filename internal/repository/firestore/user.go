package firestore

import (
	"context"
	"fmt"
	"time"

	gfs "cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tush00nka/captionchat/internal/model"
	"tush00nka/captionchat/internal/repository"
)

type userDoc struct {
	Email        string    `firestore:"email"`
	DisplayName  string    `firestore:"displayName"`
	PasswordHash string    `firestore:"passwordHash"`
	CreatedAt    time.Time `firestore:"createdAt"`
	ChatRooms    []string  `firestore:"chatRooms"`
}

type emailDoc struct {
	UID string `firestore:"uid"`
}

type UserRepository struct {
	Client *gfs.Client
}

func NewUserRepository(client *gfs.Client) *UserRepository {
	return &UserRepository{Client: client}
}

var _ repository.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) col() *gfs.CollectionRef {
	return r.Client.Collection(usersCollection)
}

func (r *UserRepository) emailCol() *gfs.CollectionRef {
	return r.Client.Collection(emailIndexCollection)
}

// Create пишет users/{uid} и userEmailToUid/{email} в одной транзакции.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	user.Email = repository.NormalizeEmail(user.Email)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	err := r.Client.RunTransaction(ctx, func(ctx context.Context, tx *gfs.Transaction) error {
		if err := tx.Create(r.emailCol().Doc(user.Email), emailDoc{UID: user.ID}); err != nil {
			return err
		}
		return tx.Create(r.col().Doc(user.ID), userDoc{
			Email:        user.Email,
			DisplayName:  user.DisplayName,
			PasswordHash: user.PasswordHash,
			CreatedAt:    user.CreatedAt,
			ChatRooms:    []string{},
		})
	})
	if status.Code(err) == codes.AlreadyExists {
		return repository.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	snap, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return decodeUser(snap)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	snap, err := r.emailCol().Doc(repository.NormalizeEmail(email)).Get(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	var idx emailDoc
	if err := snap.DataTo(&idx); err != nil {
		return nil, fmt.Errorf("failed to decode email index: %w", err)
	}
	return r.FindByID(ctx, idx.UID)
}

func (r *UserRepository) UpdateDisplayName(ctx context.Context, id, name string) error {
	_, err := r.col().Doc(id).Update(ctx, []gfs.Update{{Path: "displayName", Value: name}})
	return mapError(err)
}

func decodeUser(snap *gfs.DocumentSnapshot) (*model.User, error) {
	var doc userDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", snap.Ref.ID, err)
	}
	return &model.User{
		ID:           snap.Ref.ID,
		Email:        doc.Email,
		DisplayName:  doc.DisplayName,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt,
	}, nil
}
