package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	gfs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"tush00nka/captionchat/internal/model"
	"tush00nka/captionchat/internal/repository"
)

type roomDoc struct {
	Name                 string    `firestore:"name"`
	LastMessage          string    `firestore:"lastMessage"`
	LastMessageTimestamp time.Time `firestore:"lastMessageTimestamp"`
	Members              []string  `firestore:"members"`
	Administrators       []string  `firestore:"administrators"`
	CreatedAt            time.Time `firestore:"createdAt"`
}

type memberNameDoc struct {
	Name string `firestore:"name"`
}

type ChatRoomRepository struct {
	Client *gfs.Client
}

func NewChatRoomRepository(client *gfs.Client) *ChatRoomRepository {
	return &ChatRoomRepository{Client: client}
}

var _ repository.ChatRoomRepository = (*ChatRoomRepository)(nil)

func (r *ChatRoomRepository) col() *gfs.CollectionRef {
	return r.Client.Collection(chatRoomsCollection)
}

func (r *ChatRoomRepository) namesCol(chatID string) *gfs.CollectionRef {
	return r.col().Doc(chatID).Collection(memberNamesCollection)
}

func (r *ChatRoomRepository) userRef(userID string) *gfs.DocumentRef {
	return r.Client.Collection(usersCollection).Doc(userID)
}

func (r *ChatRoomRepository) Create(ctx context.Context, room *model.ChatRoom) error {
	err := r.Client.RunTransaction(ctx, func(ctx context.Context, tx *gfs.Transaction) error {
		if err := tx.Create(r.col().Doc(room.ID), roomDoc{
			Name:                 room.Name,
			LastMessage:          room.LastMessage,
			LastMessageTimestamp: room.LastMessageTimestamp,
			Members:              room.Members,
			Administrators:       room.Administrators,
			CreatedAt:            room.CreatedAt,
		}); err != nil {
			return err
		}

		for _, id := range room.Members {
			if name := room.MemberNames[id]; name != "" {
				if err := tx.Set(r.namesCol(room.ID).Doc(id), memberNameDoc{Name: name}); err != nil {
					return err
				}
			}
			if err := tx.Set(r.userRef(id), map[string]any{"chatRooms": gfs.ArrayUnion(room.ID)}, gfs.MergeAll); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create chat room: %w", err)
	}
	return nil
}

func (r *ChatRoomRepository) GetByID(ctx context.Context, id string) (*model.ChatRoom, error) {
	snap, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	room, err := decodeRoom(snap)
	if err != nil {
		return nil, err
	}

	iter := r.namesCol(id).Documents(ctx)
	defer iter.Stop()
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list member names: %w", err)
		}
		var n memberNameDoc
		if err := doc.DataTo(&n); err != nil {
			continue
		}
		room.MemberNames[doc.Ref.ID] = n.Name
	}

	return room, nil
}

// GetByIDs один запрос "__name__ in"; memberNames в списке не загружаются.
func (r *ChatRoomRepository) GetByIDs(ctx context.Context, ids []string) ([]model.ChatRoom, error) {
	if len(ids) > repository.MaxInClause {
		return nil, repository.ErrTooManyIDs
	}
	if len(ids) == 0 {
		return []model.ChatRoom{}, nil
	}

	refs := make([]*gfs.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, r.col().Doc(id))
	}

	return r.query(ctx, r.col().Where(gfs.DocumentID, "in", refs))
}

func (r *ChatRoomRepository) RoomIDsForUser(ctx context.Context, userID string) ([]string, error) {
	snap, err := r.userRef(userID).Get(ctx)
	if isNotFound(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user chat ids: %w", err)
	}

	var doc userDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", userID, err)
	}
	return doc.ChatRooms, nil
}

func (r *ChatRoomRepository) ListForMember(ctx context.Context, userID string) ([]model.ChatRoom, error) {
	return r.query(ctx, r.col().Where("members", "array-contains", userID))
}

func (r *ChatRoomRepository) AddMember(ctx context.Context, chatID string, member model.Member) error {
	return r.mutateRoom(ctx, chatID, func(tx *gfs.Transaction, roomRef *gfs.DocumentRef, _ *model.ChatRoom) error {
		updates := []gfs.Update{{Path: "members", Value: gfs.ArrayUnion(member.ID)}}
		if member.IsAdmin {
			updates = append(updates, gfs.Update{Path: "administrators", Value: gfs.ArrayUnion(member.ID)})
		}
		if err := tx.Update(roomRef, updates); err != nil {
			return err
		}
		if member.Name != "" {
			if err := tx.Set(r.namesCol(chatID).Doc(member.ID), memberNameDoc{Name: member.Name}); err != nil {
				return err
			}
		}
		return tx.Set(r.userRef(member.ID), map[string]any{"chatRooms": gfs.ArrayUnion(chatID)}, gfs.MergeAll)
	})
}

func (r *ChatRoomRepository) RemoveMember(ctx context.Context, chatID, memberID string) error {
	return r.mutateRoom(ctx, chatID, func(tx *gfs.Transaction, roomRef *gfs.DocumentRef, room *model.ChatRoom) error {
		if !room.IsMember(memberID) {
			return repository.ErrNotFound
		}
		if err := tx.Update(roomRef, []gfs.Update{
			{Path: "members", Value: gfs.ArrayRemove(memberID)},
			{Path: "administrators", Value: gfs.ArrayRemove(memberID)},
		}); err != nil {
			return err
		}
		if err := tx.Delete(r.namesCol(chatID).Doc(memberID)); err != nil {
			return err
		}
		return tx.Set(r.userRef(memberID), map[string]any{"chatRooms": gfs.ArrayRemove(chatID)}, gfs.MergeAll)
	})
}

func (r *ChatRoomRepository) SetAdmin(ctx context.Context, chatID, memberID string, admin bool) error {
	return r.mutateRoom(ctx, chatID, func(tx *gfs.Transaction, roomRef *gfs.DocumentRef, room *model.ChatRoom) error {
		if !room.IsMember(memberID) {
			return repository.ErrNotFound
		}
		var value any = gfs.ArrayRemove(memberID)
		if admin {
			value = gfs.ArrayUnion(memberID)
		}
		return tx.Update(roomRef, []gfs.Update{{Path: "administrators", Value: value}})
	})
}

func (r *ChatRoomRepository) UpdateName(ctx context.Context, chatID, name string) error {
	_, err := r.col().Doc(chatID).Update(ctx, []gfs.Update{{Path: "name", Value: name}})
	return mapError(err)
}

func (r *ChatRoomRepository) UpdateLastMessage(ctx context.Context, chatID, text string, ts time.Time) error {
	_, err := r.col().Doc(chatID).Update(ctx, []gfs.Update{
		{Path: "lastMessage", Value: text},
		{Path: "lastMessageTimestamp", Value: ts},
	})
	return mapError(err)
}

// mutateRoom читает комнату в транзакции и передает ее fn для записи.
func (r *ChatRoomRepository) mutateRoom(
	ctx context.Context,
	chatID string,
	fn func(tx *gfs.Transaction, roomRef *gfs.DocumentRef, room *model.ChatRoom) error,
) error {
	roomRef := r.col().Doc(chatID)
	err := r.Client.RunTransaction(ctx, func(ctx context.Context, tx *gfs.Transaction) error {
		snap, err := tx.Get(roomRef)
		if err != nil {
			return mapError(err)
		}
		room, err := decodeRoom(snap)
		if err != nil {
			return err
		}
		return fn(tx, roomRef, room)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return repository.ErrNotFound
	}
	return err
}

func (r *ChatRoomRepository) query(ctx context.Context, q gfs.Query) ([]model.ChatRoom, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var rooms []model.ChatRoom
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query chat rooms: %w", err)
		}
		room, err := decodeRoom(doc)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, *room)
	}
	return rooms, nil
}

func decodeRoom(snap *gfs.DocumentSnapshot) (*model.ChatRoom, error) {
	var doc roomDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode chat room %s: %w", snap.Ref.ID, err)
	}
	return &model.ChatRoom{
		ID:                   snap.Ref.ID,
		Name:                 doc.Name,
		LastMessage:          doc.LastMessage,
		LastMessageTimestamp: doc.LastMessageTimestamp,
		Members:              append([]string{}, doc.Members...),
		Administrators:       append([]string{}, doc.Administrators...),
		MemberNames:          map[string]string{},
		CreatedAt:            doc.CreatedAt,
	}, nil
}
