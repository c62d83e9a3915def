package service

import (
	"errors"
	"strings"

	"community_hub/internal/domain/discussion/model"
	"community_hub/internal/domain/discussion/repository"
	"community_hub/internal/pkg/realtime"

	"gorm.io/gorm"
)

var (
	ErrDiscussionNotFound = errors.New("discussion not found")
	ErrReplyNotFound      = errors.New("reply not found")
	ErrNotOwner           = errors.New("not the author of this discussion")
	ErrEmptyTag           = errors.New("tags must not be empty")
	ErrInvalidLikeTarget  = errors.New("like target must be discussion or reply")
)

// 点赞目标类型
const (
	LikeTargetDiscussion = "discussion"
	LikeTargetReply      = "reply"
)

type DiscussionService interface {
	List(viewerID string, page, limit int) ([]model.DiscussionView, int64, error)
	Get(viewerID, id string) (*model.DiscussionView, error)
	Create(authorID, title, body string, tags []string) (*model.Discussion, error)
	Update(authorID, id, title, body string) error
	Delete(authorID, id string) error

	ListReplies(viewerID, discussionID string) ([]model.ReplyView, error)
	AddReply(authorID, discussionID, content string) (*model.Reply, error)

	ToggleLike(userID, targetType, targetID string) (*model.LikeResult, error)
}

type discussionService struct {
	repo   repository.DiscussionRepository
	events realtime.Publisher
}

func NewDiscussionService(repo repository.DiscussionRepository, events realtime.Publisher) DiscussionService {
	return &discussionService{repo: repo, events: events}
}

// List 讨论列表，按创建时间倒序
// 标签、点赞数、回复数、观察者点赞状态各一次批量查询补齐，
// 匿名视角下 UserLiked 恒为 false
func (s *discussionService) List(viewerID string, page, limit int) ([]model.DiscussionView, int64, error) {
	offset := (page - 1) * limit
	discussions, total, err := s.repo.ListDiscussions(offset, limit)
	if err != nil {
		return nil, 0, err
	}

	views, err := s.buildViews(viewerID, discussions)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (s *discussionService) Get(viewerID, id string) (*model.DiscussionView, error) {
	d, err := s.repo.GetDiscussionByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDiscussionNotFound
		}
		return nil, err
	}

	views, err := s.buildViews(viewerID, []model.Discussion{*d})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *discussionService) buildViews(viewerID string, discussions []model.Discussion) ([]model.DiscussionView, error) {
	ids := make([]string, 0, len(discussions))
	authorIDs := make([]string, 0, len(discussions))
	for _, d := range discussions {
		ids = append(ids, d.ID)
		authorIDs = append(authorIDs, d.AuthorID)
	}

	tags, err := s.repo.GetTagsByDiscussionIDs(ids)
	if err != nil {
		return nil, err
	}
	likeCounts, err := s.repo.CountLikesByDiscussionIDs(ids)
	if err != nil {
		return nil, err
	}
	replyCounts, err := s.repo.CountRepliesByDiscussionIDs(ids)
	if err != nil {
		return nil, err
	}
	liked, err := s.repo.LikedDiscussionIDs(viewerID, ids)
	if err != nil {
		return nil, err
	}
	authors, err := s.repo.GetProfilesByIDs(authorIDs)
	if err != nil {
		return nil, err
	}

	views := make([]model.DiscussionView, 0, len(discussions))
	for _, d := range discussions {
		tagList := tags[d.ID]
		if tagList == nil {
			tagList = []string{}
		}
		views = append(views, model.DiscussionView{
			Discussion:   d,
			Author:       authors[d.AuthorID],
			Tags:         tagList,
			LikesCount:   likeCounts[d.ID],
			RepliesCount: replyCounts[d.ID],
			UserLiked:    liked[d.ID],
		})
	}
	return views, nil
}

// Create 发帖，标签去重去空白后与帖子同一事务写入
func (s *discussionService) Create(authorID, title, body string, tags []string) (*model.Discussion, error) {
	cleaned, err := normalizeTags(tags)
	if err != nil {
		return nil, err
	}

	d := &model.Discussion{
		AuthorID: authorID,
		Title:    title,
		Body:     body,
	}

	if err := s.repo.CreateDiscussionWithTags(d, cleaned); err != nil {
		return nil, err
	}

	s.events.Publish(realtime.Event{
		Table:  realtime.TableDiscussions,
		Action: realtime.ActionInsert,
		RowID:  d.ID,
	})
	return d, nil
}

// normalizeTags 去空白、去重，空标签直接拒绝
// 数量上不设上限
func normalizeTags(tags []string) ([]string, error) {
	seen := make(map[string]struct{}, len(tags))
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		t := strings.TrimSpace(tag)
		if t == "" {
			return nil, ErrEmptyTag
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		cleaned = append(cleaned, t)
	}
	return cleaned, nil
}

// Update 编辑自己的帖子
// 谓词未命中时区分 "不存在" 和 "不是作者"，不假装更新成功
func (s *discussionService) Update(authorID, id, title, body string) error {
	rows, err := s.repo.UpdateDiscussion(authorID, id, title, body)
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, err := s.repo.GetDiscussionByID(id); errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDiscussionNotFound
		}
		return ErrNotOwner
	}

	s.events.Publish(realtime.Event{
		Table:  realtime.TableDiscussions,
		Action: realtime.ActionUpdate,
		RowID:  id,
	})
	return nil
}

// Delete 删除自己的帖子，标签/回复/点赞由外键级联清理
func (s *discussionService) Delete(authorID, id string) error {
	rows, err := s.repo.DeleteDiscussion(authorID, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, err := s.repo.GetDiscussionByID(id); errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDiscussionNotFound
		}
		return ErrNotOwner
	}

	s.events.Publish(realtime.Event{
		Table:  realtime.TableDiscussions,
		Action: realtime.ActionDelete,
		RowID:  id,
	})
	return nil
}

// ListReplies 回复全量升序返回，展示截断是客户端的事
func (s *discussionService) ListReplies(viewerID, discussionID string) ([]model.ReplyView, error) {
	if _, err := s.repo.GetDiscussionByID(discussionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDiscussionNotFound
		}
		return nil, err
	}

	replies, err := s.repo.ListReplies(discussionID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(replies))
	authorIDs := make([]string, 0, len(replies))
	for _, reply := range replies {
		ids = append(ids, reply.ID)
		authorIDs = append(authorIDs, reply.AuthorID)
	}

	likeCounts, err := s.repo.CountLikesByReplyIDs(ids)
	if err != nil {
		return nil, err
	}
	liked, err := s.repo.LikedReplyIDs(viewerID, ids)
	if err != nil {
		return nil, err
	}
	authors, err := s.repo.GetProfilesByIDs(authorIDs)
	if err != nil {
		return nil, err
	}

	views := make([]model.ReplyView, 0, len(replies))
	for _, reply := range replies {
		views = append(views, model.ReplyView{
			Reply:      reply,
			Author:     authors[reply.AuthorID],
			LikesCount: likeCounts[reply.ID],
			UserLiked:  liked[reply.ID],
		})
	}
	return views, nil
}

// AddReply 回复只增不改不删
func (s *discussionService) AddReply(authorID, discussionID, content string) (*model.Reply, error) {
	if _, err := s.repo.GetDiscussionByID(discussionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDiscussionNotFound
		}
		return nil, err
	}

	reply := &model.Reply{
		DiscussionID: discussionID,
		AuthorID:     authorID,
		Content:      content,
	}
	if err := s.repo.CreateReply(reply); err != nil {
		return nil, err
	}

	s.events.Publish(realtime.Event{
		Table:  realtime.TableReplies,
		Action: realtime.ActionInsert,
		RowID:  reply.ID,
		Filter: realtime.FilterKey("discussion_id", discussionID),
	})
	return reply, nil
}

// ToggleLike 点赞开关，结果同步返回
// 连按两次净效果为零：插入一次再删除一次
func (s *discussionService) ToggleLike(userID, targetType, targetID string) (*model.LikeResult, error) {
	var liked bool
	var count int64
	var err error
	var filter string

	switch targetType {
	case LikeTargetDiscussion:
		if _, err := s.repo.GetDiscussionByID(targetID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrDiscussionNotFound
			}
			return nil, err
		}
		liked, count, err = s.repo.ToggleDiscussionLike(userID, targetID)
		filter = realtime.FilterKey("discussion_id", targetID)
	case LikeTargetReply:
		if _, err := s.repo.GetReplyByID(targetID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrReplyNotFound
			}
			return nil, err
		}
		liked, count, err = s.repo.ToggleReplyLike(userID, targetID)
		filter = realtime.FilterKey("reply_id", targetID)
	default:
		return nil, ErrInvalidLikeTarget
	}
	if err != nil {
		return nil, err
	}

	action := realtime.ActionDelete
	if liked {
		action = realtime.ActionInsert
	}
	s.events.Publish(realtime.Event{
		Table:  realtime.TableLikes,
		Action: action,
		RowID:  targetID,
		Filter: filter,
	})

	return &model.LikeResult{Liked: liked, LikesCount: count}, nil
}
