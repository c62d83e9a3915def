package service

import (
	"errors"
	"strings"

	"community_hub/internal/domain/bounty/model"
	"community_hub/internal/domain/bounty/repository"
	"community_hub/internal/pkg/realtime"

	"gorm.io/gorm"
)

var (
	ErrBountyNotFound  = errors.New("bounty not found")
	ErrNotOwner        = errors.New("not the author of this bounty")
	ErrInvalidPrice    = errors.New("price must be greater than zero")
	ErrInvalidCurrency = errors.New("currency must be a 3-letter code")
	ErrInvalidStatus   = errors.New("invalid bounty status")
	ErrEmptyTag        = errors.New("tags must not be empty")
)

type CreateBountyInput struct {
	Title       string
	Description string
	Price       float64
	Currency    string
	Tags        []string
}

type UpdateBountyInput struct {
	Title       string
	Description string
	Price       float64
	Currency    string
}

type BountyService interface {
	List(page, limit int) ([]model.BountyView, int64, error)
	Get(id string) (*model.BountyView, error)
	Create(authorID string, input CreateBountyInput) (*model.Bounty, error)
	Update(authorID, id string, input UpdateBountyInput) error
	Delete(authorID, id string) error
	UpdateStatus(authorID, id, status string) error
}

type bountyService struct {
	repo   repository.BountyRepository
	events realtime.Publisher
}

func NewBountyService(repo repository.BountyRepository, events realtime.Publisher) BountyService {
	return &bountyService{repo: repo, events: events}
}

func (s *bountyService) List(page, limit int) ([]model.BountyView, int64, error) {
	offset := (page - 1) * limit
	bounties, total, err := s.repo.ListBounties(offset, limit)
	if err != nil {
		return nil, 0, err
	}

	views, err := s.buildViews(bounties)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (s *bountyService) Get(id string) (*model.BountyView, error) {
	b, err := s.repo.GetBountyByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBountyNotFound
		}
		return nil, err
	}

	views, err := s.buildViews([]model.Bounty{*b})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *bountyService) buildViews(bounties []model.Bounty) ([]model.BountyView, error) {
	ids := make([]string, 0, len(bounties))
	authorIDs := make([]string, 0, len(bounties))
	for _, b := range bounties {
		ids = append(ids, b.ID)
		authorIDs = append(authorIDs, b.AuthorID)
	}

	tags, err := s.repo.GetTagsByBountyIDs(ids)
	if err != nil {
		return nil, err
	}
	authors, err := s.repo.GetProfilesByIDs(authorIDs)
	if err != nil {
		return nil, err
	}

	views := make([]model.BountyView, 0, len(bounties))
	for _, b := range bounties {
		tagList := tags[b.ID]
		if tagList == nil {
			tagList = []string{}
		}
		views = append(views, model.BountyView{
			Bounty: b,
			Author: authors[b.AuthorID],
			Tags:   tagList,
		})
	}
	return views, nil
}

// Create 发布悬赏
// 价格和币种先校验，任何一项不合法都不会触碰数据库
func (s *bountyService) Create(authorID string, input CreateBountyInput) (*model.Bounty, error) {
	currency, err := validatePricing(input.Price, input.Currency)
	if err != nil {
		return nil, err
	}
	cleaned, err := normalizeTags(input.Tags)
	if err != nil {
		return nil, err
	}

	b := &model.Bounty{
		AuthorID:    authorID,
		Title:       input.Title,
		Description: input.Description,
		Price:       input.Price,
		Currency:    currency,
		Status:      model.StatusOpen,
	}

	if err := s.repo.CreateBountyWithTags(b, cleaned); err != nil {
		return nil, err
	}

	s.events.Publish(realtime.Event{
		Table:  realtime.TableBounties,
		Action: realtime.ActionInsert,
		RowID:  b.ID,
	})
	return b, nil
}

func (s *bountyService) Update(authorID, id string, input UpdateBountyInput) error {
	currency, err := validatePricing(input.Price, input.Currency)
	if err != nil {
		return err
	}

	rows, err := s.repo.UpdateBounty(authorID, id, map[string]interface{}{
		"title":       input.Title,
		"description": input.Description,
		"price":       input.Price,
		"currency":    currency,
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		return s.missingOrForbidden(id)
	}

	s.publishChange(realtime.ActionUpdate, id)
	return nil
}

func (s *bountyService) Delete(authorID, id string) error {
	rows, err := s.repo.DeleteBounty(authorID, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return s.missingOrForbidden(id)
	}

	s.publishChange(realtime.ActionDelete, id)
	return nil
}

// UpdateStatus 状态只能落在合法集合内，只有作者能改
func (s *bountyService) UpdateStatus(authorID, id, status string) error {
	if !model.ValidStatus(status) {
		return ErrInvalidStatus
	}

	rows, err := s.repo.UpdateStatus(authorID, id, status)
	if err != nil {
		return err
	}
	if rows == 0 {
		return s.missingOrForbidden(id)
	}

	s.publishChange(realtime.ActionUpdate, id)
	return nil
}

// missingOrForbidden 谓词未命中时区分 "不存在" 和 "不是作者"
func (s *bountyService) missingOrForbidden(id string) error {
	if _, err := s.repo.GetBountyByID(id); errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrBountyNotFound
	}
	return ErrNotOwner
}

func (s *bountyService) publishChange(action realtime.Action, id string) {
	s.events.Publish(realtime.Event{
		Table:  realtime.TableBounties,
		Action: action,
		RowID:  id,
	})
}

// validatePricing 返回规范化后的币种，校验和落库必须用同一个值
func validatePricing(price float64, currency string) (string, error) {
	if price <= 0 {
		return "", ErrInvalidPrice
	}
	c := strings.ToUpper(strings.TrimSpace(currency))
	if len(c) != 3 {
		return "", ErrInvalidCurrency
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "", ErrInvalidCurrency
		}
	}
	return c, nil
}

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
