package service

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"maggram/internal/apperr"
	"maggram/internal/chat/repository"
	"maggram/internal/dbmysql"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AttachmentTTL is how long an attachment survives after its first
// download before it becomes sweep-eligible. An attachment never
// downloaded is retained indefinitely.
const AttachmentTTL = 48 * time.Hour

// FileStore is the on-disk storage slice the chat service needs.
type FileStore interface {
	Save(originalName string, content io.Reader) (string, int64, error)
	Open(url string) (io.ReadCloser, error)
	Delete(url string) error
}

// FileUpload is one file from a multipart message-send request.
type FileUpload struct {
	FileName string
	MimeType string
	Content  io.Reader
}

// ChatService defines the interface exposed to the handler layer
type ChatService interface {
	CreateConversation(ctx context.Context, creatorID uint64, memberIDs []uint64) (*dbmysql.Conversation, error)
	ListConversations(ctx context.Context, userID uint64) ([]dbmysql.Conversation, error)
	SendMessage(ctx context.Context, senderID uint64, conversationID, body string, files []FileUpload) (*dbmysql.Message, error)
	GetMessageHistory(ctx context.Context, viewerID uint64, conversationID string) ([]*dbmysql.Message, error)
	DownloadAttachment(ctx context.Context, viewerID uint64, attachmentID string) (io.ReadCloser, *dbmysql.Attachment, error)
	AttachmentMeta(ctx context.Context, viewerID uint64, attachmentID string) (*dbmysql.Attachment, error)
	RunSweep(ctx context.Context) (int, error)
	StartSweeper()
	Shutdown()
}

type chatService struct {
	repo  repository.ChatRepository
	files FileStore

	sweepBatchSize int
	sweepInterval  time.Duration

	now func() time.Time

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
}

// Constructor used in DI/wire. The interval sweeper is not started
// here; cmd calls StartSweeper after wiring.
func NewChatService(r repository.ChatRepository, files FileStore, sweepBatchSize int, sweepInterval time.Duration) ChatService {
	if sweepBatchSize <= 0 {
		sweepBatchSize = 200
	}
	if sweepInterval <= 0 {
		sweepInterval = 30 * time.Minute
	}
	return &chatService{
		repo:           r,
		files:          files,
		sweepBatchSize: sweepBatchSize,
		sweepInterval:  sweepInterval,
		now:            time.Now,
		done:           make(chan struct{}),
	}
}

// --------- CONVERSATIONS ---------

func (s *chatService) CreateConversation(ctx context.Context, creatorID uint64, memberIDs []uint64) (*dbmysql.Conversation, error) {
	members := map[uint64]bool{creatorID: true}
	for _, id := range memberIDs {
		if id != 0 {
			members[id] = true
		}
	}
	if len(members) < 2 {
		return nil, apperr.InvalidArg("conversation needs at least one other member")
	}

	conv := &dbmysql.Conversation{ID: uuid.NewString()}
	ids := make([]uint64, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}

	if err := s.repo.CreateConversation(ctx, conv, ids); err != nil {
		return nil, apperr.Internal("conversation create failed", err)
	}
	return conv, nil
}

func (s *chatService) ListConversations(ctx context.Context, userID uint64) ([]dbmysql.Conversation, error) {
	convs, err := s.repo.ListConversations(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("conversation query failed", err)
	}
	return convs, nil
}

// --------- MESSAGES ---------

// SendMessage stores a message and its attachments. Attachments start
// Fresh: both TTL timestamps nil, retained until first download starts
// the clock.
func (s *chatService) SendMessage(ctx context.Context, senderID uint64, conversationID, body string, files []FileUpload) (*dbmysql.Message, error) {
	if conversationID == "" {
		return nil, apperr.InvalidArg("conversation ID cannot be empty")
	}
	if body == "" && len(files) == 0 {
		return nil, apperr.InvalidArg("message needs text or files")
	}

	if err := s.requireMembership(ctx, conversationID, senderID); err != nil {
		return nil, err
	}

	s.sweepInline(ctx)

	msg := &dbmysql.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
		SentAt:         s.now().UTC(),
	}
	if err := s.repo.SaveMessage(ctx, msg); err != nil {
		return nil, apperr.Internal("message save failed", err)
	}

	for _, f := range files {
		url, size, err := s.files.Save(f.FileName, f.Content)
		if err != nil {
			return nil, apperr.Internal("attachment upload failed", err)
		}
		att := &dbmysql.Attachment{
			ID:        uuid.NewString(),
			MessageID: msg.ID,
			URL:       url,
			FileName:  f.FileName,
			MimeType:  f.MimeType,
			Size:      size,
		}
		if err := s.repo.CreateAttachment(ctx, att); err != nil {
			_ = s.files.Delete(url)
			return nil, apperr.Internal("attachment save failed", err)
		}
		msg.Attachments = append(msg.Attachments, *att)
	}

	return msg, nil
}

// GetMessageHistory returns full message history of a conversation
func (s *chatService) GetMessageHistory(ctx context.Context, viewerID uint64, conversationID string) ([]*dbmysql.Message, error) {
	if conversationID == "" {
		return nil, apperr.InvalidArg("conversation ID is required")
	}

	if err := s.requireMembership(ctx, conversationID, viewerID); err != nil {
		return nil, err
	}

	s.sweepInline(ctx)

	messages, err := s.repo.FetchHistory(ctx, conversationID)
	if err != nil {
		return nil, apperr.Internal("history query failed", err)
	}
	return messages, nil
}

// --------- ATTACHMENTS ---------

// DownloadAttachment opens the file for a conversation participant,
// stamping the TTL on the first download. Repeat downloads only upsert
// the per-user log row; the clock is never reset. An expired but
// not-yet-swept attachment still downloads: expiry means sweep
// eligible, not inaccessible.
func (s *chatService) DownloadAttachment(ctx context.Context, viewerID uint64, attachmentID string) (io.ReadCloser, *dbmysql.Attachment, error) {
	att, err := s.requireAttachmentAccess(ctx, viewerID, attachmentID)
	if err != nil {
		return nil, nil, err
	}

	now := s.now().UTC()
	stamped, err := s.repo.StampFirstDownload(ctx, att.ID, now, now.Add(AttachmentTTL))
	if err != nil {
		return nil, nil, apperr.Internal("download stamp failed", err)
	}
	if stamped {
		first := now
		after := now.Add(AttachmentTTL)
		att.FirstDownloadedAt = &first
		att.DeleteAfter = &after
	}

	if err := s.repo.UpsertDownload(ctx, att.ID, viewerID, now); err != nil {
		return nil, nil, apperr.Internal("download log failed", err)
	}

	rc, err := s.files.Open(att.URL)
	if err != nil {
		return nil, nil, apperr.Internal("attachment file unavailable", err)
	}
	return rc, att, nil
}

func (s *chatService) AttachmentMeta(ctx context.Context, viewerID uint64, attachmentID string) (*dbmysql.Attachment, error) {
	return s.requireAttachmentAccess(ctx, viewerID, attachmentID)
}

// --------- SWEEP ---------

// RunSweep deletes attachments whose TTL has elapsed: best-effort file
// delete (I/O failures are logged and swallowed), then log rows and
// attachment row in one transaction. Each attachment is an independent
// unit; one failure never halts the batch. Safe to call repeatedly.
func (s *chatService) RunSweep(ctx context.Context) (int, error) {
	expired, err := s.repo.ListExpired(ctx, s.now().UTC(), s.sweepBatchSize)
	if err != nil {
		return 0, apperr.Internal("sweep query failed", err)
	}

	removed := 0
	for _, att := range expired {
		if err := s.files.Delete(att.URL); err != nil {
			log.Printf("sweep: file delete failed for attachment %s: %v", att.ID, err)
		}
		if err := s.repo.DeleteAttachmentWithLogs(ctx, att.ID); err != nil {
			log.Printf("sweep: db cleanup failed for attachment %s: %v", att.ID, err)
			continue
		}
		removed++
	}
	return removed, nil
}

// sweepInline runs an opportunistic sweep before chat operations so
// expired attachments disappear with request traffic alone.
func (s *chatService) sweepInline(ctx context.Context) {
	if _, err := s.RunSweep(ctx); err != nil {
		log.Printf("inline sweep failed: %v", err)
	}
}

// StartSweeper runs the interval sweep as a backstop for quiet
// periods. Idempotent; Shutdown stops it.
func (s *chatService) StartSweeper() {
	s.startOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(s.sweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if n, err := s.RunSweep(context.Background()); err != nil {
						log.Printf("interval sweep failed: %v", err)
					} else if n > 0 {
						log.Printf("interval sweep removed %d attachments", n)
					}
				case <-s.done:
					return
				}
			}
		}()
	})
}

func (s *chatService) Shutdown() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}

// --------- ACCESS CONTROL ---------

func (s *chatService) requireMembership(ctx context.Context, conversationID string, userID uint64) error {
	ok, err := s.repo.IsMember(ctx, conversationID, userID)
	if err != nil {
		return apperr.Internal("membership check failed", err)
	}
	if !ok {
		return apperr.Forbidden("not a participant of this conversation")
	}
	return nil
}

// requireAttachmentAccess resolves an attachment and verifies the
// viewer participates in the owning conversation.
func (s *chatService) requireAttachmentAccess(ctx context.Context, viewerID uint64, attachmentID string) (*dbmysql.Attachment, error) {
	if attachmentID == "" {
		return nil, apperr.InvalidArg("attachment ID is required")
	}

	att, err := s.repo.GetAttachment(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("attachment not found")
		}
		return nil, apperr.Internal("attachment query failed", err)
	}

	msg, err := s.repo.GetMessage(ctx, att.MessageID)
	if err != nil {
		return nil, apperr.Internal("attachment message query failed", err)
	}

	if err := s.requireMembership(ctx, msg.ConversationID, viewerID); err != nil {
		return nil, err
	}
	return att, nil
}
