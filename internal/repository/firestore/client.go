// Package firestore хранит пользователей, комнаты, сообщения и подписи в Cloud Firestore.
//
// Раскладка коллекций:
//
//	users/{uid}                      email, displayName, passwordHash, chatRooms[]
//	userEmailToUid/{email}           uid
//	chatRooms/{chatId}               name, lastMessage, lastMessageTimestamp, members[], administrators[]
//	chatRooms/{chatId}/memberNames   {memberId}: name
//	chatRooms/{chatId}/captions      {fileId}: caption
//	chatsMessages/{chatId}/messages  сообщения комнаты
package firestore

import (
	"context"
	"errors"
	"fmt"

	gfs "cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tush00nka/captionchat/internal/repository"
)

const (
	usersCollection       = "users"
	emailIndexCollection  = "userEmailToUid"
	chatRoomsCollection   = "chatRooms"
	memberNamesCollection = "memberNames"
	captionsCollection    = "captions"
	chatMessagesRoot      = "chatsMessages"
	messagesCollection    = "messages"
)

func NewClient(ctx context.Context, projectID, databaseID string) (*gfs.Client, error) {
	if databaseID == "" {
		databaseID = gfs.DefaultDatabaseID
	}
	client, err := gfs.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return client, nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.NotFound {
		return repository.ErrNotFound
	}
	return err
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound || errors.Is(err, repository.ErrNotFound)
}
