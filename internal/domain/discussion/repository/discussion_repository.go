package repository

import (
	"errors"

	"community_hub/internal/domain/discussion/model"
	profileModel "community_hub/internal/domain/profile/model"

	"gorm.io/gorm"
)

type DiscussionRepository interface {
	ListDiscussions(offset, limit int) ([]model.Discussion, int64, error)
	GetDiscussionByID(id string) (*model.Discussion, error)
	CreateDiscussionWithTags(d *model.Discussion, tags []string) error
	UpdateDiscussion(authorID, id, title, body string) (int64, error)
	DeleteDiscussion(authorID, id string) (int64, error)

	GetTagsByDiscussionIDs(ids []string) (map[string][]string, error)
	CountLikesByDiscussionIDs(ids []string) (map[string]int64, error)
	CountRepliesByDiscussionIDs(ids []string) (map[string]int64, error)
	LikedDiscussionIDs(userID string, ids []string) (map[string]bool, error)

	CreateReply(reply *model.Reply) error
	ListReplies(discussionID string) ([]model.Reply, error)
	GetReplyByID(id string) (*model.Reply, error)
	CountLikesByReplyIDs(ids []string) (map[string]int64, error)
	LikedReplyIDs(userID string, ids []string) (map[string]bool, error)

	ToggleDiscussionLike(userID, discussionID string) (bool, int64, error)
	ToggleReplyLike(userID, replyID string) (bool, int64, error)

	GetProfilesByIDs(ids []string) (map[string]profileModel.Profile, error)
}

type discussionRepository struct {
	db *gorm.DB
}

func NewDiscussionRepository(db *gorm.DB) DiscussionRepository {
	return &discussionRepository{db: db}
}

// --- Discussion ---

func (r *discussionRepository) ListDiscussions(offset, limit int) ([]model.Discussion, int64, error) {
	var discussions []model.Discussion
	var total int64

	if err := r.db.Model(&model.Discussion{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.Order("created_at desc").Offset(offset).Limit(limit).Find(&discussions).Error; err != nil {
		return nil, 0, err
	}
	return discussions, total, nil
}

func (r *discussionRepository) GetDiscussionByID(id string) (*model.Discussion, error) {
	var d model.Discussion
	if err := r.db.Where("id = ?", id).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDiscussionWithTags 帖子和标签同一事务落库
// 中途失败整体回滚，不会留下没有标签的半成品
func (r *discussionRepository) CreateDiscussionWithTags(d *model.Discussion, tags []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(d).Error; err != nil {
			return err
		}
		for _, tag := range tags {
			row := &model.DiscussionTag{DiscussionID: d.ID, Tag: tag}
			if err := tx.Create(row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateDiscussion 作者谓词更新，返回影响行数
// 0 行说明帖子不存在或不是本人，调用方据此报权限错误
func (r *discussionRepository) UpdateDiscussion(authorID, id, title, body string) (int64, error) {
	res := r.db.Model(&model.Discussion{}).
		Where("id = ? AND author_id = ?", id, authorID).
		Updates(map[string]interface{}{"title": title, "body": body})
	return res.RowsAffected, res.Error
}

// DeleteDiscussion 作者谓词删除，标签/回复/点赞靠外键级联
func (r *discussionRepository) DeleteDiscussion(authorID, id string) (int64, error) {
	res := r.db.Where("id = ? AND author_id = ?", id, authorID).Delete(&model.Discussion{})
	return res.RowsAffected, res.Error
}

// --- 批量统计 (一次 GROUP BY，不按帖子逐个查) ---

func (r *discussionRepository) GetTagsByDiscussionIDs(ids []string) (map[string][]string, error) {
	result := make(map[string][]string)
	if len(ids) == 0 {
		return result, nil
	}

	var rows []model.DiscussionTag
	if err := r.db.Where("discussion_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.DiscussionID] = append(result[row.DiscussionID], row.Tag)
	}
	return result, nil
}

type countRow struct {
	Key   string `gorm:"column:key"`
	Count int64  `gorm:"column:count"`
}

func (r *discussionRepository) CountLikesByDiscussionIDs(ids []string) (map[string]int64, error) {
	return r.groupCount(&model.Like{}, "discussion_id", ids)
}

func (r *discussionRepository) CountRepliesByDiscussionIDs(ids []string) (map[string]int64, error) {
	return r.groupCount(&model.Reply{}, "discussion_id", ids)
}

func (r *discussionRepository) CountLikesByReplyIDs(ids []string) (map[string]int64, error) {
	return r.groupCount(&model.Like{}, "reply_id", ids)
}

func (r *discussionRepository) groupCount(m interface{}, column string, ids []string) (map[string]int64, error) {
	result := make(map[string]int64)
	if len(ids) == 0 {
		return result, nil
	}

	var rows []countRow
	err := r.db.Model(m).
		Select(column+" AS key, COUNT(*) AS count").
		Where(column+" IN ?", ids).
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.Key] = row.Count
	}
	return result, nil
}

func (r *discussionRepository) LikedDiscussionIDs(userID string, ids []string) (map[string]bool, error) {
	return r.likedIDs(userID, "discussion_id", ids)
}

func (r *discussionRepository) LikedReplyIDs(userID string, ids []string) (map[string]bool, error) {
	return r.likedIDs(userID, "reply_id", ids)
}

func (r *discussionRepository) likedIDs(userID, column string, ids []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if len(ids) == 0 || userID == "" {
		return result, nil
	}

	var keys []string
	err := r.db.Model(&model.Like{}).
		Where("user_id = ? AND "+column+" IN ?", userID, ids).
		Pluck(column, &keys).Error
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		result[key] = true
	}
	return result, nil
}

// --- Reply ---

func (r *discussionRepository) CreateReply(reply *model.Reply) error {
	return r.db.Create(reply).Error
}

func (r *discussionRepository) ListReplies(discussionID string) ([]model.Reply, error) {
	var replies []model.Reply
	if err := r.db.Where("discussion_id = ?", discussionID).
		Order("created_at asc").Find(&replies).Error; err != nil {
		return nil, err
	}
	return replies, nil
}

func (r *discussionRepository) GetReplyByID(id string) (*model.Reply, error) {
	var reply model.Reply
	if err := r.db.Where("id = ?", id).First(&reply).Error; err != nil {
		return nil, err
	}
	return &reply, nil
}

// --- Like ---

// ToggleDiscussionLike 事务内查改：有就删，没有就插，最后取最新计数
// 唯一索引兜底并发双击，重复插入会让其中一个事务失败
func (r *discussionRepository) ToggleDiscussionLike(userID, discussionID string) (bool, int64, error) {
	return r.toggleLike(userID, "discussion_id", discussionID, func(id string) *model.Like {
		return &model.Like{UserID: userID, DiscussionID: &id}
	})
}

func (r *discussionRepository) ToggleReplyLike(userID, replyID string) (bool, int64, error) {
	return r.toggleLike(userID, "reply_id", replyID, func(id string) *model.Like {
		return &model.Like{UserID: userID, ReplyID: &id}
	})
}

func (r *discussionRepository) toggleLike(userID, column, targetID string, build func(string) *model.Like) (bool, int64, error) {
	var liked bool
	var count int64

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing model.Like
		err := tx.Where("user_id = ? AND "+column+" = ?", userID, targetID).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			liked = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(build(targetID)).Error; err != nil {
				return err
			}
			liked = true
		default:
			return err
		}

		return tx.Model(&model.Like{}).Where(column+" = ?", targetID).Count(&count).Error
	})

	return liked, count, err
}

// --- Profile (作者信息批量解析) ---

func (r *discussionRepository) GetProfilesByIDs(ids []string) (map[string]profileModel.Profile, error) {
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
