package attachment

import (
	"context"
	"log"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/haleyhq/pulseboard/internal/entity"
	attachmentRepo "github.com/haleyhq/pulseboard/internal/modules/attachment/repository"
	"github.com/haleyhq/pulseboard/pkg/apperror"
	"github.com/haleyhq/pulseboard/pkg/storage"
)

const maxFileSize = 10 << 20 // 10 MiB

var allowedExtensions = map[string]string{
	".jpg":  "image",
	".jpeg": "image",
	".png":  "image",
	".gif":  "image",
	".webp": "image",
	".pdf":  "document",
}

type AttachmentService interface {
	Upload(ctx context.Context, company *entity.Company, header *multipart.FileHeader) (*entity.Attachment, error)
	StartOrphanCleanup(ctx context.Context, interval time.Duration)
}

type attachmentService struct {
	repo    attachmentRepo.AttachmentRepository
	storage storage.FileStorage
}

func NewAttachmentService(repo attachmentRepo.AttachmentRepository, fileStorage storage.FileStorage) AttachmentService {
	return &attachmentService{repo: repo, storage: fileStorage}
}

// Upload stores the file and records an unclaimed attachment row. The row is
// bound to a post at post-creation time; unclaimed rows are garbage-collected.
func (s *attachmentService) Upload(ctx context.Context, company *entity.Company, header *multipart.FileHeader) (*entity.Attachment, error) {
	if header.Size > maxFileSize {
		return nil, apperror.ErrInvalidInput
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	fileType, ok := allowedExtensions[ext]
	if !ok {
		return nil, apperror.ErrInvalidInput
	}

	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	result, err := s.storage.Upload(ctx, file, "attachments/"+company.Slug, header.Filename)
	if err != nil {
		return nil, err
	}

	attachment := &entity.Attachment{
		CompanyID: company.ID,
		FileURL:   result.FileURL,
		ThumbURL:  result.ThumbURL,
		FileType:  fileType,
	}
	if err := s.repo.Create(ctx, attachment); err != nil {
		// Roll back the stored file so it does not leak.
		if delErr := s.storage.Delete(ctx, result.FileURL); delErr != nil {
			log.Printf("attachment: cleanup after failed create: %v", delErr)
		}
		return nil, err
	}
	return attachment, nil
}

// StartOrphanCleanup periodically removes uploads that were never attached to
// a post, both the storage object and the row.
func (s *attachmentService) StartOrphanCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupOnce(ctx)
			}
		}
	}()
}

func (s *attachmentService) cleanupOnce(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	orphans, err := s.repo.ListOrphansBefore(ctx, cutoff)
	if err != nil {
		log.Printf("attachment: list orphans: %v", err)
		return
	}

	for _, orphan := range orphans {
		if err := s.storage.Delete(ctx, orphan.FileURL); err != nil {
			log.Printf("attachment: delete orphan file %d: %v", orphan.ID, err)
			continue
		}
		if err := s.repo.Delete(ctx, orphan.ID); err != nil {
			log.Printf("attachment: delete orphan row %d: %v", orphan.ID, err)
		}
	}
	if len(orphans) > 0 {
		log.Printf("attachment: cleaned up %d orphaned uploads", len(orphans))
	}
}
