package repository

import (
	"community_hub/internal/domain/bounty/model"
	profileModel "community_hub/internal/domain/profile/model"

	"gorm.io/gorm"
)

type BountyRepository interface {
	ListBounties(offset, limit int) ([]model.Bounty, int64, error)
	GetBountyByID(id string) (*model.Bounty, error)
	CreateBountyWithTags(b *model.Bounty, tags []string) error
	UpdateBounty(authorID, id string, fields map[string]interface{}) (int64, error)
	DeleteBounty(authorID, id string) (int64, error)
	UpdateStatus(authorID, id, status string) (int64, error)

	GetTagsByBountyIDs(ids []string) (map[string][]string, error)
	GetProfilesByIDs(ids []string) (map[string]profileModel.Profile, error)
}

type bountyRepository struct {
	db *gorm.DB
}

func NewBountyRepository(db *gorm.DB) BountyRepository {
	return &bountyRepository{db: db}
}

func (r *bountyRepository) ListBounties(offset, limit int) ([]model.Bounty, int64, error) {
	var bounties []model.Bounty
	var total int64

	if err := r.db.Model(&model.Bounty{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.Order("created_at desc").Offset(offset).Limit(limit).Find(&bounties).Error; err != nil {
		return nil, 0, err
	}
	return bounties, total, nil
}

func (r *bountyRepository) GetBountyByID(id string) (*model.Bounty, error) {
	var b model.Bounty
	if err := r.db.Where("id = ?", id).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBountyWithTags 悬赏和标签同一事务落库
func (r *bountyRepository) CreateBountyWithTags(b *model.Bounty, tags []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(b).Error; err != nil {
			return err
		}
		for _, tag := range tags {
			row := &model.BountyTag{BountyID: b.ID, Tag: tag}
			if err := tx.Create(row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateBounty 作者谓词更新，0 行留给调用方区分不存在和无权限
func (r *bountyRepository) UpdateBounty(authorID, id string, fields map[string]interface{}) (int64, error) {
	res := r.db.Model(&model.Bounty{}).
		Where("id = ? AND author_id = ?", id, authorID).
		Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *bountyRepository) DeleteBounty(authorID, id string) (int64, error) {
	res := r.db.Where("id = ? AND author_id = ?", id, authorID).Delete(&model.Bounty{})
	return res.RowsAffected, res.Error
}

func (r *bountyRepository) UpdateStatus(authorID, id, status string) (int64, error) {
	res := r.db.Model(&model.Bounty{}).
		Where("id = ? AND author_id = ?", id, authorID).
		Update("status", status)
	return res.RowsAffected, res.Error
}

func (r *bountyRepository) GetTagsByBountyIDs(ids []string) (map[string][]string, error) {
	result := make(map[string][]string)
	if len(ids) == 0 {
		return result, nil
	}

	var rows []model.BountyTag
	if err := r.db.Where("bounty_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.BountyID] = append(result[row.BountyID], row.Tag)
	}
	return result, nil
}

func (r *bountyRepository) GetProfilesByIDs(ids []string) (map[string]profileModel.Profile, error) {
	result := make(map[string]profileModel.Profile)
	if len(ids) == 0 {
		return result, nil
	}

	var profiles []profileModel.Profile
	if err := r.db.Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}
	for _, p := range profiles {
		result[p.ID] = p
	}
	return result, nil
}
