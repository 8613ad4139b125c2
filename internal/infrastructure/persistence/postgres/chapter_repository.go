package postgres

import (
	"context"
	"fmt"

	"github.com/loomtale/engine/internal/domain/entity"
	"github.com/loomtale/engine/internal/domain/repository"
)

// ChapterRepository implements repository.ChapterRepository over GORM.
type ChapterRepository struct {
	client *Client
	tx     repository.Transactor
}

// NewChapterRepository builds a ChapterRepository. tx is used by
// SetCurrent to demote the prior CURRENT record atomically.
func NewChapterRepository(client *Client, tx repository.Transactor) *ChapterRepository {
	return &ChapterRepository{client: client, tx: tx}
}

func (r *ChapterRepository) Add(ctx context.Context, record *entity.GenerationRecord) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.Add")
	defer span.End()

	if err := getDB(ctx, r.client.db).Create(record).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to add generation record: %w", err)
	}
	return nil
}

func (r *ChapterRepository) Get(ctx context.Context, id string) (*entity.GenerationRecord, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.Get")
	defer span.End()

	var record entity.GenerationRecord
	if err := getDB(ctx, r.client.db).First(&record, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get generation record: %w", err)
	}
	return &record, nil
}

func (r *ChapterRepository) Update(ctx context.Context, record *entity.GenerationRecord) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.Update")
	defer span.End()

	if err := getDB(ctx, r.client.db).Save(record).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update generation record: %w", err)
	}
	return nil
}

func (r *ChapterRepository) GetCurrent(ctx context.Context, projectID string, chapterNumber int) (*entity.GenerationRecord, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.GetCurrent")
	defer span.End()

	var record entity.GenerationRecord
	err := getDB(ctx, r.client.db).First(&record,
		"project_id = ? AND chapter_number = ? AND state = ?",
		projectID, chapterNumber, entity.StateCurrent).Error
	if err != nil {
		if isNotFound(err) {
			return nil, repository.ErrNoCurrent
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get current generation record: %w", err)
	}
	return &record, nil
}

func (r *ChapterRepository) SetCurrent(ctx context.Context, projectID string, chapterNumber int, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.SetCurrent")
	defer span.End()

	err := r.tx.WithTransaction(ctx, func(ctx context.Context) error {
		db := getDB(ctx, r.client.db)
		if err := db.Model(&entity.GenerationRecord{}).
			Where("project_id = ? AND chapter_number = ? AND state = ?", projectID, chapterNumber, entity.StateCurrent).
			Update("state", entity.StateHistory).Error; err != nil {
			return fmt.Errorf("failed to demote prior current record: %w", err)
		}
		if err := db.Model(&entity.GenerationRecord{}).
			Where("id = ?", id).
			Update("state", entity.StateCurrent).Error; err != nil {
			return fmt.Errorf("failed to promote record to current: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (r *ChapterRepository) List(ctx context.Context, projectID string) ([]*entity.GenerationRecord, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.List")
	defer span.End()

	var records []*entity.GenerationRecord
	if err := getDB(ctx, r.client.db).
		Where("project_id = ?", projectID).
		Order("chapter_number ASC, created_at ASC").
		Find(&records).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list generation records: %w", err)
	}
	return records, nil
}

func (r *ChapterRepository) History(ctx context.Context, projectID string, chapterNumber int) ([]*entity.GenerationRecord, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.History")
	defer span.End()

	var records []*entity.GenerationRecord
	if err := getDB(ctx, r.client.db).
		Where("project_id = ? AND chapter_number = ? AND state != ?", projectID, chapterNumber, entity.StateCurrent).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list generation record history: %w", err)
	}
	return records, nil
}

func (r *ChapterRepository) DeleteByProject(ctx context.Context, projectID string) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.DeleteByProject")
	defer span.End()

	if err := getDB(ctx, r.client.db).
		Where("project_id = ?", projectID).
		Delete(&entity.GenerationRecord{}).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete generation records for project: %w", err)
	}
	return nil
}
