package repository

import (
	"context"
	"time"

	"maggram/internal/dbmysql"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatRepository interface {
	CreateConversation(ctx context.Context, conv *dbmysql.Conversation, memberIDs []uint64) error
	ListConversations(ctx context.Context, userID uint64) ([]dbmysql.Conversation, error)
	IsMember(ctx context.Context, conversationID string, userID uint64) (bool, error)

	SaveMessage(ctx context.Context, msg *dbmysql.Message) error
	FetchHistory(ctx context.Context, conversationID string) ([]*dbmysql.Message, error)
	GetMessage(ctx context.Context, id int64) (*dbmysql.Message, error)

	CreateAttachment(ctx context.Context, att *dbmysql.Attachment) error
	GetAttachment(ctx context.Context, id string) (*dbmysql.Attachment, error)
	StampFirstDownload(ctx context.Context, id string, firstDownloadedAt, deleteAfter time.Time) (bool, error)
	UpsertDownload(ctx context.Context, attachmentID string, userID uint64, downloadedAt time.Time) error
	ListExpired(ctx context.Context, now time.Time, limit int) ([]dbmysql.Attachment, error)
	DeleteAttachmentWithLogs(ctx context.Context, id string) error
}

type chatRepo struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepo{db: db}
}

// --------- CONVERSATIONS ---------

func (r *chatRepo) CreateConversation(ctx context.Context, conv *dbmysql.Conversation, memberIDs []uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		for _, userID := range memberIDs {
			member := dbmysql.ConversationMember{
				ConversationID: conv.ID,
				UserID:         userID,
			}
			if err := tx.Create(&member).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *chatRepo) ListConversations(ctx context.Context, userID uint64) ([]dbmysql.Conversation, error) {
	var convs []dbmysql.Conversation
	err := r.db.WithContext(ctx).
		Joins("JOIN conversation_members ON conversation_members.conversation_id = conversations.id").
		Where("conversation_members.user_id = ?", userID).
		Order("conversations.updated_at DESC").
		Find(&convs).Error
	return convs, err
}

func (r *chatRepo) IsMember(ctx context.Context, conversationID string, userID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&dbmysql.ConversationMember{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	return count > 0, err
}

// --------- MESSAGES ---------

func (r *chatRepo) SaveMessage(ctx context.Context, msg *dbmysql.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *chatRepo) FetchHistory(ctx context.Context, conversationID string) ([]*dbmysql.Message, error) {
	var messages []*dbmysql.Message
	err := r.db.WithContext(ctx).
		Preload("Attachments").
		Where("conversation_id = ?", conversationID).
		Order("sent_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

func (r *chatRepo) GetMessage(ctx context.Context, id int64) (*dbmysql.Message, error) {
	var msg dbmysql.Message
	err := r.db.WithContext(ctx).First(&msg, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// --------- ATTACHMENTS ---------

func (r *chatRepo) CreateAttachment(ctx context.Context, att *dbmysql.Attachment) error {
	return r.db.WithContext(ctx).Create(att).Error
}

func (r *chatRepo) GetAttachment(ctx context.Context, id string) (*dbmysql.Attachment, error) {
	var att dbmysql.Attachment
	err := r.db.WithContext(ctx).First(&att, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &att, nil
}

// StampFirstDownload performs the one-time TTL stamp as a single
// conditional update. The IS NULL guard is re-checked at write time,
// so concurrent first downloads cannot double-stamp or reset the
// clock. Returns whether this call won the stamp.
func (r *chatRepo) StampFirstDownload(ctx context.Context, id string, firstDownloadedAt, deleteAfter time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&dbmysql.Attachment{}).
		Where("id = ? AND first_downloaded_at IS NULL", id).
		Updates(map[string]interface{}{
			"first_downloaded_at": firstDownloadedAt,
			"delete_after":        deleteAfter,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpsertDownload records that a user fetched the attachment, updating
// the timestamp on repeat downloads.
func (r *chatRepo) UpsertDownload(ctx context.Context, attachmentID string, userID uint64, downloadedAt time.Time) error {
	row := dbmysql.AttachmentDownload{
		AttachmentID: attachmentID,
		UserID:       userID,
		DownloadedAt: downloadedAt,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "attachment_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"downloaded_at": downloadedAt}),
		}).
		Create(&row).Error
}

func (r *chatRepo) ListExpired(ctx context.Context, now time.Time, limit int) ([]dbmysql.Attachment, error) {
	var atts []dbmysql.Attachment
	err := r.db.WithContext(ctx).
		Where("delete_after IS NOT NULL AND delete_after <= ?", now).
		Order("delete_after ASC").
		Limit(limit).
		Find(&atts).Error
	return atts, err
}

// DeleteAttachmentWithLogs removes the download-log rows and the
// attachment row in one transaction, so a torn state (logs gone, row
// remaining) is never committed.
func (r *chatRepo) DeleteAttachmentWithLogs(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&dbmysql.AttachmentDownload{}, "attachment_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&dbmysql.Attachment{}, "id = ?", id).Error
	})
}
