package gormrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"savekeep/internal/adapter/repo/payload"
	"savekeep/internal/app/ports"
	"savekeep/internal/domain/progress"
	"savekeep/pkg/logger"
)

type ProfileRepo struct {
	db    *gorm.DB
	codec payload.Codec
}

func NewProfileRepo(db *gorm.DB, codec payload.Codec) ProfileRepo {
	return ProfileRepo{db: db, codec: codec}
}

func (r ProfileRepo) Load(ctx context.Context, profileID string) (progress.Record, error) {
	var m ProfileRecord
	if err := r.db.WithContext(ctx).Where("profile_id = ?", profileID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return progress.Record{}, ports.ErrNotFound
		}
		return progress.Record{}, fmt.Errorf("%w: %v", ports.ErrIOFailure, err)
	}
	rec, err := r.codec.Decode(m.Payload)
	if err != nil {
		logger.Component("repo.gorm").WithField("profile_id", profileID).WithError(err).
			Warn("corrupt profile data, treating as missing")
		return progress.Record{}, fmt.Errorf("%w: %v", ports.ErrCorruptData, err)
	}
	return rec, nil
}

func (r ProfileRepo) Save(ctx context.Context, record progress.Record, profileID string) error {
	if err := ports.ValidateProfileID(profileID); err != nil {
		return err
	}
	raw, err := r.codec.Encode(record)
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrIOFailure, err)
	}
	m := ProfileRecord{
		ProfileID: profileID,
		Payload:   raw,
		Version:   record.Version,
		UpdatedAt: time.Now().UTC(),
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "version", "updated_at"}),
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrIOFailure, err)
	}
	return nil
}

func (r ProfileRepo) Delete(ctx context.Context, profileID string) error {
	res := r.db.WithContext(ctx).Where("profile_id = ?", profileID).Delete(&ProfileRecord{})
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ports.ErrIOFailure, res.Error)
	}
	if res.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r ProfileRepo) ListAll(ctx context.Context) (map[string]progress.Record, error) {
	var rows []ProfileRecord
	if err := r.db.WithContext(ctx).Order("profile_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrIOFailure, err)
	}
	out := make(map[string]progress.Record, len(rows))
	for _, m := range rows {
		rec, err := r.codec.Decode(m.Payload)
		if err != nil {
			logger.Component("repo.gorm").WithField("profile_id", m.ProfileID).WithError(err).
				Warn("skipping unreadable profile")
			continue
		}
		out[m.ProfileID] = rec
	}
	return out, nil
}
